package service

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-inventory-api/internal/model"
)

// CredentialStore hashes and checks account passwords with bcrypt.
type CredentialStore struct {
	cost  int
	dummy []byte
}

func NewCredentialStore(cost int) (*CredentialStore, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		return nil, err
	}
	return &CredentialStore{cost: cost, dummy: dummy}, nil
}

// Hash returns the bcrypt hash of plaintext.
func (s *CredentialStore) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hashed), nil
}

// SetPassword hashes and sets the account's password
func (s *CredentialStore) SetPassword(account *model.Account, plaintext string) error {
	hashed, err := s.Hash(plaintext)
	if err != nil {
		return err
	}
	account.PasswordHash = &hashed
	return nil
}

// VerifyPassword reports whether plaintext matches the stored hash. An account
// without a hash never matches.
func (s *CredentialStore) VerifyPassword(account *model.Account, plaintext string) bool {
	if account == nil || account.PasswordHash == nil || *account.PasswordHash == "" {
		s.burn(plaintext)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(plaintext)) == nil
}

// burn spends one comparison against a throwaway hash so a missing account
// costs the same as a wrong password.
func (s *CredentialStore) burn(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(plaintext))
}
