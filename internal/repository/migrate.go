package repository

import (
	"go-inventory-api/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables backing every repository.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Account{}, &model.OTPChallenge{}, &model.Product{})
}
