package repository

import (
	"context"

	"go-inventory-api/internal/model"

	"gorm.io/gorm"
)

type OTPRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.OTPChallenge, error)
	Create(ctx context.Context, challenge *model.OTPChallenge) error
	Update(ctx context.Context, challenge *model.OTPChallenge) error
}

type otpRepo struct {
	db *gorm.DB
}

func NewOTPRepo(db *gorm.DB) OTPRepository {
	return &otpRepo{db}
}

func (r *otpRepo) FindByEmail(ctx context.Context, email string) (*model.OTPChallenge, error) {
	var challenge model.OTPChallenge
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&challenge).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *otpRepo) Create(ctx context.Context, challenge *model.OTPChallenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *otpRepo) Update(ctx context.Context, challenge *model.OTPChallenge) error {
	return r.db.WithContext(ctx).Model(&model.OTPChallenge{}).Where("id = ?", challenge.ID).Updates(map[string]interface{}{
		"code":       challenge.Code,
		"expires_at": challenge.ExpiresAt,
	}).Error
}
