package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-inventory-api/internal/model"
	"go-inventory-api/internal/repository"
	"go-inventory-api/pkg/jwt"
	"go-inventory-api/pkg/storage"
)

const testSecret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	return db
}

// sequenceCodes hands out the given codes in order, repeating the last one.
func sequenceCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code, nil
	}
}

type sentOTP struct {
	Email   string
	Code    string
	Purpose OTPPurpose
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentOTP
}

func (r *recordingSender) SendOTP(_ context.Context, email, code string, purpose OTPPurpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentOTP{Email: email, Code: code, Purpose: purpose})
	return nil
}

func (r *recordingSender) last() sentOTP {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type accountFixture struct {
	db       *gorm.DB
	svc      AccountService
	accounts repository.AccountRepository
	otp      *OTPIssuer
	tokens   *jwt.Issuer
	sender   *recordingSender
	clock    *clock
	storeDir string
}

func newAccountFixture(t *testing.T, codes ...string) *accountFixture {
	t.Helper()
	if len(codes) == 0 {
		codes = []string{"123456"}
	}

	db := newTestDB(t)
	clk := &clock{now: time.Now()}
	accounts := repository.NewAccountRepo(db)
	otp := NewOTPIssuer(repository.NewOTPRepo(db), 6, 10*time.Minute,
		WithCodeGenerator(sequenceCodes(codes...)),
		WithOTPClock(clk.Now),
	)
	creds, err := NewCredentialStore(bcrypt.MinCost)
	require.NoError(t, err)
	tokens := jwt.NewIssuer(testSecret, "test", jwt.WithClock(clk.Now))
	sender := &recordingSender{}
	dir := t.TempDir()

	svc := NewAccountService(AccountDeps{
		Accounts:    accounts,
		OTP:         otp,
		Credentials: creds,
		Tokens:      tokens,
		Policy:      TokenPolicy{AccessTTL: time.Hour, ResetTTL: 15 * time.Minute},
		Sender:      sender,
		Storage:     storage.NewLocal(dir, "/static"),
		Log:         zerolog.Nop(),
	})

	return &accountFixture{
		db:       db,
		svc:      svc,
		accounts: accounts,
		otp:      otp,
		tokens:   tokens,
		sender:   sender,
		clock:    clk,
		storeDir: dir,
	}
}

func (f *accountFixture) register(t *testing.T, email, password string) *model.Account {
	t.Helper()
	acc, err := f.svc.Register(context.Background(), RegisterInput{
		Name:            "Test User",
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)
	return acc
}

func countRows(t *testing.T, db *gorm.DB, table interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(table).Count(&n).Error)
	return n
}
