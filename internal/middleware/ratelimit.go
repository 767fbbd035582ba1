package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"go-inventory-api/pkg/apperror"
	"go-inventory-api/pkg/ratelimit"
)

var errRateLimited = apperror.New(apperror.CodeRateLimited, "too many requests, slow down")

// RateLimit rejects requests once the client IP exhausts its budget for scope.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, scope string, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := limiter.Allow(c.UserContext(), scope+":"+c.IP())
		if err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
			return c.Next()
		}
		if !allowed {
			return errRateLimited
		}
		return c.Next()
	}
}
