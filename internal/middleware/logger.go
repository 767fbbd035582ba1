package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request. Errors from the chain are handed to
// the app's error handler first so the logged status is the one sent.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		}

		event = event.
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", c.IP())
		if account, ok := CurrentAccount(c); ok {
			event = event.Uint("account_id", account.ID)
		}
		event.Msg("request completed")

		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
