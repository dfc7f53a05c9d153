package plan

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/practicehub/practicehub/internal/platform/auth"
)

// Resolver reports the subscription plan for a user. Implemented by the org
// service; users with no organization are on the free plan.
type Resolver interface {
	PlanForUser(ctx context.Context, userID string) string
}

// RequireWithinLimit returns middleware that rejects requests once the user's
// monthly consumption reaches the plan's cap for the named limit. Consumption
// is recorded only when the handler succeeds.
func RequireWithinLimit(resolver Resolver, meter *UsageMeter, limit string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID := auth.UserIDFromContext(ctx)
			p := resolver.PlanForUser(ctx, userID)
			if !WithinLimit(p, limit, meter.Count(userID)) {
				log.Debug().Str("plan", p).Str("limit", limit).
					Msg("monthly limit reached")
				return echo.NewHTTPError(http.StatusForbidden,
					"monthly limit reached for your current plan")
			}
			if err := next(c); err != nil {
				return err
			}
			meter.Increment(userID)
			return nil
		}
	}
}

// RequireFeature returns middleware that rejects requests from plans without
// the feature.
func RequireFeature(resolver Resolver, feature string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID := auth.UserIDFromContext(ctx)
			p := resolver.PlanForUser(ctx, userID)
			if !HasFeature(p, feature) {
				log.Debug().Str("plan", p).Str("feature", feature).
					Msg("feature not available on plan")
				return echo.NewHTTPError(http.StatusForbidden,
					"this feature is not available on your current plan")
			}
			return next(c)
		}
	}
}
