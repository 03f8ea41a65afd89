package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/assignment"
	"github.com/upskillhq/upskill/core/auth"
	"github.com/upskillhq/upskill/core/course"
	"github.com/upskillhq/upskill/core/team"
	"github.com/upskillhq/upskill/core/user"
)

type (
	// DBPinger reports storage liveness for the health endpoint.
	DBPinger interface {
		PingContext(ctx context.Context) error
	}

	Options struct {
		Addr           string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		AuthSvc       *auth.Service
		UserSvc       *user.Service
		CourseSvc     *course.Service
		AssignmentSvc *assignment.Service
		TeamSvc       *team.Service

		DB DBPinger

		// SignalShutdown triggers a graceful stop on unrecoverable errors.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/health/db", s.dbHealth)

	v1 := s.app.Group("/v1")
	authed := authMiddleware(s.opts.AuthSvc)

	registerAuthAPI(v1, authed, s.opts)
	registerUserAPI(v1, authed, s.opts)
	registerCourseAPI(v1, authed, s.opts)
	registerAssignmentAPI(v1, authed, s.opts)
	registerTeamAPI(v1, authed, s.opts)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Addr)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Upskill API!")
}

func (s *server) dbHealth(ctx echo.Context) error {
	status := "ok"
	code := http.StatusOK
	if err := s.opts.DB.PingContext(ctx.Request().Context()); err != nil {
		status = "db not ready"
		code = http.StatusInternalServerError
	}
	return ctx.JSON(code, echo.Map{"status": status})
}
