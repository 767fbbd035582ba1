package middleware

import (
	"errors"
	"strings"

	"go-inventory-api/internal/model"
	"go-inventory-api/internal/repository"
	"go-inventory-api/internal/service"
	"go-inventory-api/pkg/apperror"
	"go-inventory-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	LocalAccount      = "account"
	LocalTokenPurpose = "token_purpose"
)

var (
	errBadAuthFormat  = apperror.New(apperror.CodeInvalidToken, "invalid authorization format, use: Bearer <token>")
	errWrongPurpose   = apperror.New(apperror.CodeInvalidToken, "token cannot be used for this route")
	errUnknownAccount = apperror.New(apperror.CodeInvalidToken, "user not found")
	errSessionRevoked = apperror.New(apperror.CodeInvalidToken, "session has been revoked")
)

// RequireAuth validates the bearer token, checks that its purpose is one of
// purposes (access when none given) and that the account still exists with
// the same token version. The account is stored in c.Locals(LocalAccount).
func RequireAuth(tokens *jwt.Issuer, accounts repository.AccountRepository, purposes ...string) fiber.Handler {
	if len(purposes) == 0 {
		purposes = []string{jwt.PurposeAccess}
	}

	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return jwt.ErrMissingToken
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return errBadAuthFormat
		}

		claims, err := tokens.Resolve(parts[1])
		if err != nil {
			return err
		}
		if !allowed(purposes, claims.Purpose) {
			return errWrongPurpose
		}

		accountID, err := claims.AccountID()
		if err != nil {
			return err
		}

		// Check session against DB
		account, err := accounts.FindByID(c.UserContext(), accountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUnknownAccount
			}
			return apperror.Wrap(apperror.CodeInternal, err, "failed to load user")
		}
		if account.TokenVersion != claims.TokenVersion {
			return errSessionRevoked
		}
		if !account.Active {
			return service.ErrAccountInactive
		}

		c.Locals(LocalAccount, account)
		c.Locals(LocalTokenPurpose, claims.Purpose)
		return c.Next()
	}
}

// CurrentAccount returns the account attached by RequireAuth.
func CurrentAccount(c *fiber.Ctx) (*model.Account, bool) {
	account, ok := c.Locals(LocalAccount).(*model.Account)
	return account, ok && account != nil
}

func allowed(purposes []string, purpose string) bool {
	for _, p := range purposes {
		if p == purpose {
			return true
		}
	}
	return false
}
