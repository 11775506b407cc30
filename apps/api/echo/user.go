package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/user"
)

type userApi struct {
	svc *user.Service
}

func registerUserAPI(g *echo.Group, svc *user.Service) {
	api := userApi{svc: svc}

	g.POST("/login", api.login)
	g.POST("/register", api.register)
	g.POST("/email_auth", api.emailAuth)

	g.GET("/logout", api.logout, loginRequiredMiddleware())
	g.GET("/profile", api.profile)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data user.Login
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Login")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return jsonData(ctx, http.StatusOK, LoginResponse{Token: token})
}

// logout only acknowledges; the token is stateless and dies client-side.
func (api *userApi) logout(ctx echo.Context) error {
	return jsonData(ctx, http.StatusOK, "Succeeded")
}

func (api *userApi) register(ctx echo.Context) error {
	var data user.Register
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Register")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if _, err := api.svc.Register(ctx.Request().Context(), data, core.Conf.AllowRegister); err != nil {
		return err
	}
	return jsonData(ctx, http.StatusCreated, "Succeeded")
}

func (api *userApi) emailAuth(ctx echo.Context) error {
	var data user.EmailAuth
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailAuth")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if _, err := api.svc.AuthenticateEmail(ctx.Request().Context(), data.Token); err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, "Succeeded")
}

// profile returns the authenticated user, or null for anonymous callers so
// the frontend can probe the session without triggering an auth error.
func (api *userApi) profile(ctx echo.Context) error {
	usr, err := getContextViewer(ctx, api.svc)
	if err != nil {
		return err
	}
	if usr.ID == 0 {
		return jsonData(ctx, http.StatusOK, nil)
	}
	return jsonData(ctx, http.StatusOK, usr)
}

type LoginResponse struct {
	Token string `json:"token"`
}
