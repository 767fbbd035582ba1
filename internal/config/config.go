package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

const (
	AppEnvDevelopment = "development"
	AppEnvProduction  = "production"
)

// Config holds application configuration values.
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	Password  PasswordConfig
	OTP       OTPConfig
	Storage   StorageConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"go-inventory-api"`
	Env         string `envconfig:"APP_ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"3000"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	BaseURL     string `envconfig:"PUBLIC_BASE_URL"`
	CORSOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDevelopment)
}

type DBConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	User            string        `envconfig:"DB_USER" default:"postgres"`
	Password        string        `envconfig:"DB_PASSWORD"`
	Name            string        `envconfig:"DB_NAME" default:"fast_inventory"`
	Port            string        `envconfig:"DB_PORT" default:"5432"`
	SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	EnsureDatabase  bool          `envconfig:"DB_ENSURE_DATABASE" default:"false"`
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the parts.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret    string        `envconfig:"JWT_SECRET" required:"true"`
	Issuer    string        `envconfig:"JWT_ISSUER" default:"go-inventory-api"`
	AccessTTL time.Duration `envconfig:"JWT_ACCESS_TTL" default:"168h"`
	ResetTTL  time.Duration `envconfig:"JWT_RESET_TTL" default:"15m"`
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"BCRYPT_COST" default:"10"`
}

type OTPConfig struct {
	Length int           `envconfig:"OTP_LENGTH" default:"6"`
	TTL    time.Duration `envconfig:"OTP_TTL" default:"10m"`
}

type StorageConfig struct {
	StaticDir       string `envconfig:"STATIC_DIR" default:"./static"`
	StaticURLPrefix string `envconfig:"STATIC_URL_PREFIX" default:"/static"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

type RateLimitConfig struct {
	AuthRequests int           `envconfig:"AUTH_RATE_LIMIT" default:"20"`
	AuthWindow   time.Duration `envconfig:"AUTH_RATE_LIMIT_WINDOW" default:"1m"`
}

// Load reads .env (when present) and the environment into a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.ResetTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL and JWT_RESET_TTL must be positive"))
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		errs = append(errs, fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", c.OTP.Length))
	}
	if c.OTP.TTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}
	if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return errors.Join(errs...)
}
