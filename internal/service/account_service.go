package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-inventory-api/internal/model"
	"go-inventory-api/internal/repository"
	"go-inventory-api/pkg/database"
	"go-inventory-api/pkg/jwt"
	"go-inventory-api/pkg/metrics"
	"go-inventory-api/pkg/storage"
)

const (
	TokenTypeBearer = "bearer"

	profilePictureFolder = "profile_pictures"
)

type AccountService interface {
	UserExists(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, input RegisterInput) (*model.Account, error)
	VerifyOTP(ctx context.Context, email, code string) (*model.Account, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*TokenResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ForgotPasswordVerify(ctx context.Context, email, code string) (*TokenResult, error)
	ResetPassword(ctx context.Context, accountID uint, password, confirmPassword string) error
	Me(ctx context.Context, accountID uint) (*model.Account, error)
	UpdateProfile(ctx context.Context, accountID uint, patch model.ProfilePatch) (*model.Account, error)
	UpdatePicture(ctx context.Context, accountID uint, upload storage.Upload) (*model.Account, error)
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// TokenResult is a minted bearer token and the account it belongs to.
type TokenResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	Account     *model.Account
}

// TokenPolicy sets the lifetime of each kind of token.
type TokenPolicy struct {
	AccessTTL time.Duration
	ResetTTL  time.Duration
}

type AccountDeps struct {
	Accounts    repository.AccountRepository
	OTP         *OTPIssuer
	Credentials *CredentialStore
	Tokens      *jwt.Issuer
	Policy      TokenPolicy
	Sender      OTPSender
	Storage     storage.Storage
	Metrics     *metrics.Recorder
	Log         zerolog.Logger
}

type accountService struct {
	accounts    repository.AccountRepository
	otp         *OTPIssuer
	credentials *CredentialStore
	tokens      *jwt.Issuer
	policy      TokenPolicy
	sender      OTPSender
	storage     storage.Storage
	metrics     *metrics.Recorder
	log         zerolog.Logger
	now         func() time.Time
}

func NewAccountService(deps AccountDeps) AccountService {
	return &accountService{
		accounts:    deps.Accounts,
		otp:         deps.OTP,
		credentials: deps.Credentials,
		tokens:      deps.Tokens,
		policy:      deps.Policy,
		sender:      deps.Sender,
		storage:     deps.Storage,
		metrics:     deps.Metrics,
		log:         deps.Log.With().Str("component", "account_service").Logger(),
		now:         time.Now,
	}
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *accountService) UserExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.accounts.ExistsByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return false, internal(err, "failed to look up user")
	}
	return exists, nil
}

func (s *accountService) Register(ctx context.Context, input RegisterInput) (account *model.Account, err error) {
	defer func() { s.metrics.AuthEvent("register", err) }()

	email := NormalizeEmail(input.Email)

	// 1. Reject duplicates in any letter case
	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, internal(err, "failed to look up user")
	}
	if exists {
		return nil, ErrEmailTaken
	}

	// 2. Password confirmation
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	// 3. Create the unverified account
	account = &model.Account{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         model.RoleConsumer,
		Active:       true,
		TokenVersion: uuid.NewString(),
	}
	if err := s.credentials.SetPassword(account, input.Password); err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return nil, err
		}
		return nil, internal(err, "failed to hash password")
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if database.IsUniqueViolation(err, "email") {
			return nil, ErrEmailTaken
		}
		return nil, internal(err, "failed to create user")
	}

	// 4. Issue the verification code
	if err := s.issueAndSend(ctx, email, PurposeRegistration); err != nil {
		return nil, err
	}

	s.log.Info().Uint("account_id", account.ID).Msg("account registered")
	return account, nil
}

func (s *accountService) VerifyOTP(ctx context.Context, email, code string) (account *model.Account, err error) {
	defer func() { s.metrics.AuthEvent("verify_otp", err) }()

	email = NormalizeEmail(email)
	if _, err := s.otp.Verify(ctx, email, code); err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			return nil, err
		}
		return nil, internal(err, "failed to verify otp")
	}

	account, err = s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account.Verified {
		return account, nil
	}

	account.Verified = true
	if err := s.accounts.Update(ctx, account, "verified"); err != nil {
		return nil, internal(err, "failed to update user")
	}
	return account, nil
}

func (s *accountService) ResendOTP(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.AuthEvent("resend_otp", err) }()

	email = NormalizeEmail(email)
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account.Verified {
		return ErrAlreadyVerified
	}
	return s.issueAndSend(ctx, email, PurposeRegistration)
}

// Login deliberately returns the same error for an unknown email and a wrong
// password. Verification is not required.
func (s *accountService) Login(ctx context.Context, email, password string) (result *TokenResult, err error) {
	defer func() { s.metrics.AuthEvent("login", err) }()

	// 1. Find account by email
	account, err := s.accounts.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.credentials.VerifyPassword(nil, password)
			return nil, ErrInvalidCredentials
		}
		return nil, internal(err, "failed to look up user")
	}

	// 2. Verify password
	if !s.credentials.VerifyPassword(account, password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Check if account is active
	if !account.Active {
		return nil, ErrAccountInactive
	}

	// 4. Mint the access token
	return s.mint(account, s.policy.AccessTTL, jwt.PurposeAccess)
}

// ForgotPassword reports ErrAccountNotFound for unknown emails; callers
// decide whether to reveal that.
func (s *accountService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.AuthEvent("forgot_password", err) }()

	email = NormalizeEmail(email)
	if _, err := s.findByEmail(ctx, email); err != nil {
		return err
	}
	return s.issueAndSend(ctx, email, PurposePasswordReset)
}

func (s *accountService) ForgotPasswordVerify(ctx context.Context, email, code string) (result *TokenResult, err error) {
	defer func() { s.metrics.AuthEvent("forgot_password_verify", err) }()

	email = NormalizeEmail(email)
	challenge, err := s.otp.Verify(ctx, email, code)
	if err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			return nil, err
		}
		return nil, internal(err, "failed to verify otp")
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// One-time use: burn the code before handing out the reset token.
	if err := s.otp.Burn(ctx, challenge); err != nil {
		return nil, internal(err, "failed to invalidate otp")
	}

	return s.mint(account, s.policy.ResetTTL, jwt.PurposePasswordReset)
}

// ResetPassword stores the new hash and rotates the token version, which
// revokes every token issued before.
func (s *accountService) ResetPassword(ctx context.Context, accountID uint, password, confirmPassword string) (err error) {
	defer func() { s.metrics.AuthEvent("reset_password", err) }()

	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	if _, err := s.findByID(ctx, accountID); err != nil {
		return err
	}

	hashed, err := s.credentials.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return err
		}
		return internal(err, "failed to hash password")
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hashed, uuid.NewString()); err != nil {
		return internal(err, "failed to update password")
	}

	s.log.Info().Uint("account_id", accountID).Msg("password reset")
	return nil
}

func (s *accountService) Me(ctx context.Context, accountID uint) (*model.Account, error) {
	return s.findByID(ctx, accountID)
}

func (s *accountService) UpdateProfile(ctx context.Context, accountID uint, patch model.ProfilePatch) (*model.Account, error) {
	account, err := s.findByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// Collapse blank optional strings to NULL so they never collide on unique indexes.
	patch.Phone = blankToNull(patch.Phone)
	patch.Occupation = blankToNull(patch.Occupation)
	patch.Address = blankToNull(patch.Address)

	if patch.Name.Present() && strings.TrimSpace(patch.Name.Value) == "" {
		return nil, invalid("name must not be empty")
	}
	if patch.District.Present() && !patch.District.Value.Valid() {
		return nil, invalid("unknown district %q", patch.District.Value)
	}
	if patch.UserType.Present() && patch.UserType.Value != model.RoleSupplier && patch.UserType.Value != model.RoleConsumer {
		return nil, ErrRoleNotAllowed
	}

	columns := patch.Columns()
	if len(columns) == 0 {
		return account, nil
	}
	if err := patch.Apply(account); err != nil {
		return nil, err
	}
	if err := s.accounts.Update(ctx, account, columns...); err != nil {
		if database.IsUniqueViolation(err, "phone") {
			return nil, ErrPhoneTaken
		}
		return nil, internal(err, "failed to update user")
	}
	return account, nil
}

func (s *accountService) UpdatePicture(ctx context.Context, accountID uint, upload storage.Upload) (*model.Account, error) {
	account, err := s.findByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	path, err := s.storage.Save(ctx, profilePictureFolder, upload)
	if err != nil {
		return nil, internal(err, "failed to store picture")
	}
	account.Picture = &path

	if err := s.accounts.Update(ctx, account, "picture"); err != nil {
		return nil, internal(err, "failed to update user")
	}
	return account, nil
}

func (s *accountService) issueAndSend(ctx context.Context, email string, purpose OTPPurpose) error {
	challenge, err := s.otp.IssueOrRefresh(ctx, email)
	if err != nil {
		return internal(err, "failed to issue otp")
	}
	if s.sender == nil {
		return nil
	}
	// Delivery failures are logged; the caller can ask for a resend.
	if err := s.sender.SendOTP(ctx, email, challenge.Code, purpose); err != nil {
		s.log.Warn().Err(err).Str("purpose", string(purpose)).Msg("otp delivery failed")
	}
	return nil
}

func (s *accountService) mint(account *model.Account, ttl time.Duration, purpose string) (*TokenResult, error) {
	token, err := s.tokens.Mint(account.ID, ttl, purpose, account.TokenVersion)
	if err != nil {
		return nil, internal(err, "failed to generate token")
	}
	return &TokenResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   s.now().Add(ttl),
		Account:     account,
	}, nil
}

func (s *accountService) findByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, internal(err, "failed to look up user")
	}
	return account, nil
}

func (s *accountService) findByID(ctx context.Context, id uint) (*model.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, internal(err, "failed to look up user")
	}
	return account, nil
}

func blankToNull(o model.Optional[string]) model.Optional[string] {
	if o.Present() && strings.TrimSpace(o.Value) == "" {
		return model.Null[string]()
	}
	return o
}
