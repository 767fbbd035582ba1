package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"go-inventory-api/internal/middleware"
	"go-inventory-api/internal/model"
	"go-inventory-api/pkg/apperror"
	"go-inventory-api/pkg/validator"
)

var errUnauthenticated = apperror.New(apperror.CodeInvalidToken, "Unauthorized")

// ErrorHandler renders every error as {"error": message, "code": CODE}.
// Internal failures are logged and replaced by a generic message.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr := apperror.As(err); appErr != nil {
			meta := apperror.MetadataFor(appErr.Code())
			message := appErr.Message()
			if appErr.Code() == apperror.CodeInternal {
				log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
				message = meta.PublicMessage
			}
			return c.Status(meta.HTTPStatus).JSON(fiber.Map{"error": message, "code": appErr.Code()})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
		meta := apperror.MetadataFor(apperror.CodeInternal)
		return c.Status(meta.HTTPStatus).JSON(fiber.Map{"error": meta.PublicMessage, "code": apperror.CodeInternal})
	}
}

// parseJSON decodes the body into req and runs struct validation.
func parseJSON(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	}
	return validator.Check(req)
}

func currentAccount(c *fiber.Ctx) (*model.Account, error) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		return nil, errUnauthenticated
	}
	return account, nil
}

// URLResolver picks the base URL used to turn stored paths into absolute URLs.
type URLResolver struct {
	configured string
}

func NewURLResolver(configured string) URLResolver {
	return URLResolver{configured: strings.TrimRight(configured, "/")}
}

func (r URLResolver) BaseURL(c *fiber.Ctx) string {
	if r.configured != "" {
		return r.configured
	}
	return c.BaseURL()
}
