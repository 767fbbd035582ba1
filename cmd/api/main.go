package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"go-inventory-api/internal/config"
	"go-inventory-api/internal/delivery"
	"go-inventory-api/internal/repository"
	"go-inventory-api/internal/router"
	"go-inventory-api/internal/service"
	"go-inventory-api/pkg/database"
	"go-inventory-api/pkg/jwt"
	"go-inventory-api/pkg/logger"
	"go-inventory-api/pkg/metrics"
	"go-inventory-api/pkg/ratelimit"
	"go-inventory-api/pkg/storage"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Options{ServiceName: "go-inventory-api"})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Options{
		ServiceName: cfg.App.Name,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
	})

	// 2. Setup Database
	db, err := database.ConnectDB(database.Options{
		DSN:             cfg.DB.DSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		EnsureDatabase:  cfg.DB.EnsureDatabase,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	// 3. Infrastructure
	if err := os.MkdirAll(cfg.Storage.StaticDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Storage.StaticDir).Msg("failed to create static dir")
	}
	store := storage.NewLocal(cfg.Storage.StaticDir, cfg.Storage.StaticURLPrefix)
	recorder := metrics.New()
	tokens := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer)
	limiter := newLimiter(cfg, log)

	credentials, err := service.NewCredentialStore(cfg.Password.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init credential store")
	}

	// 4. Dependency Injection (Wiring Layers)
	accountRepo := repository.NewAccountRepo(db)
	otpRepo := repository.NewOTPRepo(db)
	productRepo := repository.NewProductRepo(db)

	accountService := service.NewAccountService(service.AccountDeps{
		Accounts:    accountRepo,
		OTP:         service.NewOTPIssuer(otpRepo, cfg.OTP.Length, cfg.OTP.TTL),
		Credentials: credentials,
		Tokens:      tokens,
		Policy:      service.TokenPolicy{AccessTTL: cfg.JWT.AccessTTL, ResetTTL: cfg.JWT.ResetTTL},
		Sender:      delivery.NewLogSender(log, cfg.App.IsDev()),
		Storage:     store,
		Metrics:     recorder,
		Log:         log,
	})
	productService := service.NewProductService(productRepo, store, recorder, log)

	// 5. Setup Fiber
	app := router.New(router.Deps{
		Config:   cfg,
		Log:      log,
		Accounts: accountService,
		Products: productService,
		Users:    accountRepo,
		Tokens:   tokens,
		Limiter:  limiter,
		Metrics:  recorder,
	})

	// 6. Graceful Shutdown
	go func() {
		log.Info().Str("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("starting server")
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Panic().Err(err).Msg("server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("server exited")
}

// newLimiter shares the auth budget through Redis when REDIS_URL is set and
// falls back to a per-process limiter otherwise.
func newLimiter(cfg *config.Config, log zerolog.Logger) ratelimit.Limiter {
	if cfg.Redis.URL == "" {
		return ratelimit.NewMemory(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := ratelimit.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-process rate limiter")
		return ratelimit.NewMemory(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
	}
	return ratelimit.NewRedis(client, cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
}
