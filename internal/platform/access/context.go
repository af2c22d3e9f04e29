package access

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/auth"
)

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores a on ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the actor resolved for the request, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// ActorResolver loads the user's role and profile ids.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID int64) (Actor, error)
}

// Middleware resolves the authenticated user into an Actor on every request
// that carries one. It must run after auth.JWTMiddleware.
func Middleware(resolver ActorResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID, ok := auth.UserIDFromContext(ctx)
			if !ok {
				return next(c)
			}
			actor, err := resolver.ResolveActor(ctx, userID)
			if err != nil {
				if apperr.IsNotFound(err) {
					// The token outlived its user.
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}
			c.SetRequest(c.Request().WithContext(WithActor(ctx, actor)))
			c.Set("user_id", actor.UserID)
			c.Set("user_role", string(actor.Role))
			return next(c)
		}
	}
}

// Require returns the request actor or a 401 when the request is anonymous.
func Require(c echo.Context) (Actor, error) {
	a, ok := ActorFromContext(c.Request().Context())
	if !ok {
		return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return a, nil
}
