package repository

import (
	"context"

	"go-inventory-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]model.Product, error)
	FindPublished(ctx context.Context) ([]model.Product, error)
	Modify(ctx context.Context, id uint, fn func(*model.Product) error) (*model.Product, error)
	Delete(ctx context.Context, id uint) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("Owner").Create(product).Error
}

// FindBySlug skips rows flagged deleted.
func (r *productRepo) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("slug = ? AND deleted = ?", slug, false).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SlugExists checks every row, flagged or not, since the unique index does too.
func (r *productRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *productRepo) FindByOwner(ctx context.Context, ownerID uint) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted = ?", ownerID, false).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindPublished(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("is_published = ? AND deleted = ?", true, false).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

// Modify re-reads the product under a row lock, hands it to fn and saves the
// result in the same transaction. An error from fn rolls everything back.
func (r *productRepo) Modify(ctx context.Context, id uint, fn func(*model.Product) error) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deleted = ?", false).
			First(&product, id).Error; err != nil {
			return err
		}
		if err := fn(&product); err != nil {
			return err
		}
		return tx.Omit("Owner").Save(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}
