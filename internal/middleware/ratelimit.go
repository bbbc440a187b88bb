package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/clearvision/midnight-tickets/internal/dto"
	"github.com/clearvision/midnight-tickets/internal/metrics"
	"github.com/clearvision/midnight-tickets/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

const rateLimitedMessage = "Too many requests, please try again later."

// RateLimit limits requests per client IP. If the limiter itself fails the
// request is let through.
func RateLimit(limiter ratelimit.Limiter, m *metrics.Metrics) echo.MiddlewareFunc {
	logger := slog.Default().With("component", "ratelimit")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ip := c.RealIP()

			res, err := limiter.Allow(ctx, "ip:"+ip)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed", "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retry := res.RetryAfter(time.Now())
				h.Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
				if m != nil {
					m.RateLimited.Inc()
				}
				logger.WarnContext(ctx, "rate limit exceeded", "ip", ip, "path", c.Path())
				return c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Message: rateLimitedMessage})
			}
			return next(c)
		}
	}
}
