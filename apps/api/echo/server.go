package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
	"github.com/vidyasetu/vidyasetu/core/auth"
	"github.com/vidyasetu/vidyasetu/core/fee"
	"github.com/vidyasetu/vidyasetu/core/homework"
	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
)

type (
	Deps struct {
		Authenticator *auth.Authenticator
		Resolver      *auth.Resolver
		Authorizer    *auth.Authorizer
		UserSvc       *user.Service
		StudentSvc    *student.Service
		AttendanceSvc *attendance.Service
		FeeSvc        *fee.Service
		NoticeSvc     *notice.Service
		HomeworkSvc   *homework.Service
		Validate      *validator.Validate
		Translator    ut.Translator
		Metrics       http.Handler // optional
	}

	// Server is the HTTP API. It runs as a suture.Service.
	Server struct {
		conf     *core.Config
		logger   core.Logger
		deps     *Deps
		shutdown chan<- error
		app      *echo.Echo
	}
)

func NewServer(conf *core.Config, logger core.Logger, deps *Deps, shutdown chan<- error) *Server {
	s := &Server{
		conf:     conf,
		logger:   logger,
		deps:     deps,
		shutdown: shutdown,
		app:      echo.New(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug && !s.conf.TestMode
	s.app.JSONSerializer = jsonSerializer{}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.deps.Translator, s.signalShutdown)
	if s.conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.INFO)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, headerCoachingID},
	}))

	s.app.GET("/", home)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics))
	}

	authn := authMiddleware(s.deps.Resolver)
	authz := authorizeMiddleware(s.deps.Authorizer)
	api := s.app.Group("/api")

	registerAuthAPI(api.Group("/auth"), authn, authz, loginRateLimiter(s.conf), s.deps)
	registerAdminAPI(api.Group("/admin", authn, authz), s.deps)
	registerTeacherAPI(api.Group("/teacher", authn, authz, tenantMiddleware), s.deps)
	registerStudentAPI(api.Group("/student", authn, authz), s.deps)
}

// Serve starts listening and shuts the server down gracefully once ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.app.Start(s.conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "starting api server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.conf.Server.ShutdownTimeout)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutting down api server")
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *Server) String() string {
	return "api-server"
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown(err error) {
	if s.shutdown == nil {
		return
	}
	select {
	case s.shutdown <- err:
	default:
	}
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to VidyaSetu API!")
}
