package service

import "context"

type OTPPurpose string

const (
	PurposeRegistration  OTPPurpose = "registration"
	PurposePasswordReset OTPPurpose = "password_reset"
)

// OTPSender delivers a freshly issued code to its owner.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string, purpose OTPPurpose) error
}
