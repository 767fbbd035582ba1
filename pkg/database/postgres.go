package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options captures the connection settings ConnectDB needs.
type Options struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	EnsureDatabase  bool
}

// gormWriter routes gorm's logger output onto zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debug().Msgf(format, args...)
}

// NewGormLogger bridges gorm's logger onto zerolog at debug level.
func NewGormLogger(log zerolog.Logger) logger.Interface {
	return logger.New(
		gormWriter{log: log.With().Str("component", "gorm").Logger()},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func ConnectDB(opts Options, log zerolog.Logger) (*gorm.DB, error) {
	if opts.EnsureDatabase {
		if err := EnsureDatabase(opts.DSN); err != nil {
			return nil, fmt.Errorf("ensure database: %w", err)
		}
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  opts.DSN,
		PreferSimpleProtocol: true, // Disables implicit prepared statements for transaction-mode poolers
	}), &gorm.Config{
		Logger:      NewGormLogger(log),
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	log.Info().Msg("database connection established")
	return db, nil
}

// EnsureDatabase creates the database named in a postgres:// URL when it does
// not exist yet. Key/value DSNs are left alone.
func EnsureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	sqlDB, err := sql.Open("postgres", parsed.String())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}

// IsUniqueViolation reports whether err is a unique constraint failure. When
// column is non-empty the error text must also mention it.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") &&
		!strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "SQLSTATE 23505") {
		return false
	}
	if column == "" {
		return true
	}
	return strings.Contains(strings.ToLower(msg), strings.ToLower(column))
}
