package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/hekima/shindano/core/user"
)

// adminMiddleware lets admins and super-admins through.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.AdminType == user.Admin || claims.AdminType == user.SuperAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// loginRequiredMiddleware rejects anonymous requests on endpoints that
// otherwise accept them.
func loginRequiredMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
