package echoapi

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/auth"
)

// headerCoachingID lets a SUPER_ADMIN pick the coaching they act on in teacher routes.
const headerCoachingID = "X-Coaching-ID"

// authMiddleware resolves the bearer token into the request's core.Identity.
func authMiddleware(resolver *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := auth.BearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
			id, err := resolver.Resolve(ctx.Request().Context(), token)
			if err != nil {
				if core.IsNotFound(err) {
					return core.ErrUnauthenticated
				}
				return errors.Wrap(err, "resolving identity")
			}
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(core.ContextWithIdentity(req.Context(), id)))
			return next(ctx)
		}
	}
}

// authorizeMiddleware checks the identity's role against the route policy.
func authorizeMiddleware(authorizer *auth.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := ctxIdentity(ctx)
			if err != nil {
				return err
			}
			if err = authorizer.Authorize(id.Role, ctx.Request().URL.Path, ctx.Request().Method); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// tenantMiddleware applies the X-Coaching-ID header of a SUPER_ADMIN to their identity.
func tenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := ctxIdentity(ctx)
		if err != nil {
			return err
		}
		if coachingID := core.CleanString(ctx.Request().Header.Get(headerCoachingID)); coachingID != "" && id.IsSuperAdmin() {
			id.CoachingID = coachingID
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(core.ContextWithIdentity(req.Context(), id)))
		}
		return next(ctx)
	}
}

// loginRateLimiter limits the login attempts per client IP.
func loginRateLimiter(conf *core.Config) echo.MiddlewareFunc {
	limit := conf.Server.LoginRateLimit
	if limit <= 0 {
		limit = 5
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     int(math.Ceil(limit)),
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client").SetInternal(err)
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errTooManyRequests
		},
	})
}
