package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-inventory-api/internal/model"
	"go-inventory-api/internal/repository"
	"go-inventory-api/pkg/database"
)

// CodeGenerator produces a numeric code of the given length.
type CodeGenerator func(length int) (string, error)

// RandomDigits draws every digit from crypto/rand.
func RandomDigits(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// OTPIssuer keeps at most one challenge per email and overwrites it on reissue.
type OTPIssuer struct {
	repo     repository.OTPRepository
	length   int
	ttl      time.Duration
	generate CodeGenerator
	now      func() time.Time
}

type OTPOption func(*OTPIssuer)

func WithCodeGenerator(gen CodeGenerator) OTPOption {
	return func(o *OTPIssuer) {
		if gen != nil {
			o.generate = gen
		}
	}
}

func WithOTPClock(now func() time.Time) OTPOption {
	return func(o *OTPIssuer) {
		if now != nil {
			o.now = now
		}
	}
}

func NewOTPIssuer(repo repository.OTPRepository, length int, ttl time.Duration, opts ...OTPOption) *OTPIssuer {
	o := &OTPIssuer{
		repo:     repo,
		length:   length,
		ttl:      ttl,
		generate: RandomDigits,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IssueOrRefresh replaces the code of the existing challenge for email, or
// creates one when there is none.
func (o *OTPIssuer) IssueOrRefresh(ctx context.Context, email string) (*model.OTPChallenge, error) {
	code, err := o.generate(o.length)
	if err != nil {
		return nil, err
	}
	expiresAt := o.now().Add(o.ttl)

	existing, err := o.repo.FindByEmail(ctx, email)
	if err == nil {
		return o.refresh(ctx, existing, code, expiresAt)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	challenge := &model.OTPChallenge{Email: email, Code: code, ExpiresAt: expiresAt}
	if err := o.repo.Create(ctx, challenge); err != nil {
		if !database.IsUniqueViolation(err, "email") {
			return nil, err
		}
		// A concurrent issue created the row first; last writer wins.
		existing, err := o.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return o.refresh(ctx, existing, code, expiresAt)
	}
	return challenge, nil
}

func (o *OTPIssuer) refresh(ctx context.Context, challenge *model.OTPChallenge, code string, expiresAt time.Time) (*model.OTPChallenge, error) {
	challenge.Code = code
	challenge.ExpiresAt = expiresAt
	if err := o.repo.Update(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// Verify succeeds only for an unexpired challenge whose code equals submitted exactly.
func (o *OTPIssuer) Verify(ctx context.Context, email, submitted string) (*model.OTPChallenge, error) {
	challenge, err := o.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}
	if challenge.Expired(o.now()) {
		return nil, ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(submitted)) != 1 {
		return nil, ErrInvalidOTP
	}
	return challenge, nil
}

// Burn swaps the code for a random non-numeric value and expires it, so the
// challenge cannot be replayed.
func (o *OTPIssuer) Burn(ctx context.Context, challenge *model.OTPChallenge) error {
	challenge.Code = uuid.NewString()
	challenge.ExpiresAt = o.now()
	return o.repo.Update(ctx, challenge)
}
