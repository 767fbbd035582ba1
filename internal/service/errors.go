package service

import "go-inventory-api/pkg/apperror"

var (
	ErrInvalidCredentials = apperror.New(apperror.CodeInvalidCredentials, "invalid email or password")
	ErrAccountInactive    = apperror.New(apperror.CodeForbidden, "user account is inactive")
	ErrAccountNotFound    = apperror.New(apperror.CodeNotFound, "user not found")
	ErrAlreadyVerified    = apperror.New(apperror.CodeValidation, "user is already verified")
	ErrEmailTaken         = apperror.New(apperror.CodeAlreadyExists, "user already exists")
	ErrPhoneTaken         = apperror.New(apperror.CodeAlreadyExists, "phone number is already in use")
	ErrPasswordMismatch   = apperror.New(apperror.CodeValidationMismatch, "password and confirm password do not match")
	ErrPasswordTooLong    = apperror.New(apperror.CodeValidation, "password must be at most 72 bytes")
	ErrInvalidOTP         = apperror.New(apperror.CodeInvalidOTP, "invalid otp")
	ErrRoleNotAllowed     = apperror.New(apperror.CodeValidation, "user_type must be supplier or consumer")

	ErrProductNotFound = apperror.New(apperror.CodeNotFound, "product not found")
	ErrUpdateForbidden = apperror.New(apperror.CodeForbidden, "You are not authorized to update this product")
	ErrDeleteForbidden = apperror.New(apperror.CodeForbidden, "You are not authorized to delete this product")
	ErrSKUTaken        = apperror.New(apperror.CodeAlreadyExists, "sku already exists")
	ErrSlugExhausted   = apperror.New(apperror.CodeAlreadyExists, "could not allocate a unique slug")
)

func internal(err error, message string) error {
	return apperror.Wrap(apperror.CodeInternal, err, message)
}

func invalid(format string, args ...any) error {
	return apperror.Newf(apperror.CodeValidation, format, args...)
}
