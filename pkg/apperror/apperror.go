package apperror

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeValidationMismatch Code = "VALIDATION_MISMATCH"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidOTP         Code = "INVALID_OTP"
	CodeNotFound           Code = "NOT_FOUND"
	CodeForbidden          Code = "FORBIDDEN"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeExpiredToken       Code = "EXPIRED_TOKEN"
	CodeMalformedToken     Code = "MALFORMED_TOKEN"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is surfaced to HTTP callers.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeAlreadyExists:      {HTTPStatus: http.StatusConflict, PublicMessage: "resource already exists"},
	CodeValidation:         {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "validation failed"},
	CodeValidationMismatch: {HTTPStatus: http.StatusBadRequest, PublicMessage: "values do not match"},
	CodeInvalidCredentials: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "invalid credentials"},
	CodeInvalidOTP:         {HTTPStatus: http.StatusBadRequest, PublicMessage: "invalid otp"},
	CodeNotFound:           {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeForbidden:          {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	CodeInvalidToken:       {HTTPStatus: http.StatusUnauthorized, PublicMessage: "invalid token"},
	CodeExpiredToken:       {HTTPStatus: http.StatusUnauthorized, PublicMessage: "token expired"},
	CodeMalformedToken:     {HTTPStatus: http.StatusUnauthorized, PublicMessage: "malformed token"},
	CodeRateLimited:        {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "too many requests"},
	CodeInternal:           {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error"},
}

// MetadataFor returns the metadata registered for code, falling back to CodeInternal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first *Error in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf reports the code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodeInternal
}
