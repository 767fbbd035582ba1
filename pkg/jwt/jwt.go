package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-inventory-api/pkg/apperror"
)

const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
)

var (
	ErrInvalidToken   = apperror.New(apperror.CodeInvalidToken, "invalid token")
	ErrExpiredToken   = apperror.New(apperror.CodeExpiredToken, "token expired")
	ErrMalformedToken = apperror.New(apperror.CodeMalformedToken, "malformed token")
	ErrMissingToken   = apperror.New(apperror.CodeInvalidToken, "missing authorization token")
)

// Claims represents the JWT claims structure
type Claims struct {
	Purpose      string `json:"purpose"`
	TokenVersion string `json:"token_version,omitempty"`
	jwt.RegisteredClaims
}

// AccountID parses the subject claim back into a numeric account id.
func (c *Claims) AccountID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrMalformedToken
	}
	return uint(id), nil
}

// Issuer mints and resolves HS256 bearer tokens with a server-held secret.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

func NewIssuer(secret, issuer string, opts ...Option) *Issuer {
	i := &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Mint creates a signed token whose subject is accountID and which expires after ttl.
func (i *Issuer) Mint(accountID uint, ttl time.Duration, purpose, tokenVersion string) (string, error) {
	now := i.now()
	claims := &Claims{
		Purpose:      purpose,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(accountID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Resolve verifies signature and expiry and returns the embedded claims.
func (i *Issuer) Resolve(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	},
		jwt.WithTimeFunc(i.now),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, err
	}
	return claims, nil
}
