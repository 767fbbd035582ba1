package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"go-inventory-api/internal/config"
	"go-inventory-api/internal/repository"
	"go-inventory-api/internal/service"
	"go-inventory-api/pkg/database"
	"go-inventory-api/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account and revoke its sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// 1. Load config
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{
				ServiceName: "reset-password",
				Level:       cfg.App.LogLevel,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
			})

			// 2. Setup Database
			db, err := database.ConnectDB(database.Options{
				DSN:             cfg.DB.DSN(),
				MaxIdleConns:    1,
				MaxOpenConns:    1,
				ConnMaxLifetime: time.Minute,
			}, log)
			if err != nil {
				return err
			}

			credentials, err := service.NewCredentialStore(cfg.Password.BcryptCost)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			account, err := resetPassword(ctx, repository.NewAccountRepo(db), credentials, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password for %s has been reset; existing sessions are revoked\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the account to update")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// resetPassword stores a new hash and rotates the token version. It returns
// the normalized email of the updated account.
func resetPassword(ctx context.Context, accounts repository.AccountRepository, credentials *service.CredentialStore, email, password string) (string, error) {
	// 1. Find account
	account, err := accounts.FindByEmail(ctx, service.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("account %s not found", email)
		}
		return "", fmt.Errorf("find account: %w", err)
	}

	// 2. Hash new password
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be blank")
	}
	hash, err := credentials.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	// 3. Update
	if err := accounts.UpdatePassword(ctx, account.ID, hash, uuid.NewString()); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	return account.Email, nil
}
