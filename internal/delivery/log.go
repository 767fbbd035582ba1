package delivery

import (
	"context"

	"github.com/rs/zerolog"

	"go-inventory-api/internal/service"
)

// LogSender writes OTP notifications to the structured log instead of an
// outbound channel. The code itself is only included when revealCode is set.
type LogSender struct {
	log        zerolog.Logger
	revealCode bool
}

func NewLogSender(log zerolog.Logger, revealCode bool) *LogSender {
	return &LogSender{
		log:        log.With().Str("component", "otp_delivery").Logger(),
		revealCode: revealCode,
	}
}

func (s *LogSender) SendOTP(ctx context.Context, email, code string, purpose service.OTPPurpose) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	event := s.log.Info().Str("email", email).Str("purpose", string(purpose))
	if s.revealCode {
		event = event.Str("code", code)
	}
	event.Msg("otp issued")
	return nil
}
