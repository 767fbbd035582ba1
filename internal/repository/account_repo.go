package repository

import (
	"context"
	"errors"

	"go-inventory-api/internal/model"

	"gorm.io/gorm"
)

type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id uint) (*model.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, account *model.Account) error
	Update(ctx context.Context, account *model.Account, columns ...string) error
	UpdatePassword(ctx context.Context, id uint, hash, tokenVersion string) error
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db}
}

// FindByEmail matches case-insensitively.
func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) FindByID(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error
	return count > 0, err
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// Update writes only the named columns (plus updated_at). Columns it is not
// told about, such as the password hash and token version, are left as stored.
func (r *accountRepo) Update(ctx context.Context, account *model.Account, columns ...string) error {
	if len(columns) == 0 {
		return errors.New("account update needs at least one column")
	}
	return r.db.WithContext(ctx).Model(account).Select(columns).Updates(account).Error
}

// UpdatePassword stores a new hash and rotates the token version in one statement.
func (r *accountRepo) UpdatePassword(ctx context.Context, id uint, hash, tokenVersion string) error {
	return r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash": hash,
		"token_version": tokenVersion,
	}).Error
}
