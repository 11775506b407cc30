package echoapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/contest"
	"github.com/hekima/shindano/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		UserSvc        *user.Service
		ContestSvc     *contest.Service
		Logger         core.Logger
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
		// Shutdown is closed when a fatal server-side error asks for a
		// graceful stop.
		Shutdown() <-chan struct{}
	}

	server struct {
		opts         *Options
		app          *echo.Echo
		shutdownCh   chan struct{}
		shutdownOnce sync.Once
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:       opts,
		app:        echo.New(),
		shutdownCh: make(chan struct{}),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	api.Use(jwt)

	registerUserAPI(api, s.opts.UserSvc)
	registerContestAPI(api, s.opts.ContestSvc, s.opts.UserSvc)

	admin := api.Group("/admin", adminMiddleware())
	registerContestAdminAPI(admin, s.opts.ContestSvc, s.opts.UserSvc)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Shutdown() <-chan struct{} {
	return s.shutdownCh
}

func (s *server) signalShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shindano API!")
}
