package service

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-inventory-api/internal/model"
	"go-inventory-api/internal/repository"
	"go-inventory-api/pkg/apperror"
	"go-inventory-api/pkg/database"
	"go-inventory-api/pkg/metrics"
	"go-inventory-api/pkg/pagination"
	"go-inventory-api/pkg/slug"
	"go-inventory-api/pkg/storage"
)

var maxMoney = decimal.New(1, model.MoneyPrecision-model.MoneyScale)

const (
	productImageFolder = "product_images"

	// maxSlugAttempts bounds inserts lost to concurrent creators of the same slug.
	maxSlugAttempts = 5
)

type ProductService interface {
	Create(ctx context.Context, ownerID uint, patch model.ProductPatch, uploads ProductUploads) (*model.Product, error)
	ListByOwner(ctx context.Context, ownerID uint, params pagination.Params) (pagination.Page[model.Product], error)
	ListPublished(ctx context.Context, params pagination.Params) (pagination.Page[model.Product], error)
	Get(ctx context.Context, slug string) (*model.Product, error)
	Update(ctx context.Context, slug string, ownerID uint, patch model.ProductPatch, uploads ProductUploads) (*model.Product, error)
	Delete(ctx context.Context, slug string, ownerID uint) error
}

// ProductUploads are the files attached to a create or update call.
type ProductUploads struct {
	Primary *storage.Upload
	Images  []storage.Upload
}

type productService struct {
	repo    repository.ProductRepository
	storage storage.Storage
	metrics *metrics.Recorder
	log     zerolog.Logger
}

func NewProductService(repo repository.ProductRepository, store storage.Storage, recorder *metrics.Recorder, log zerolog.Logger) ProductService {
	return &productService{
		repo:    repo,
		storage: store,
		metrics: recorder,
		log:     log.With().Str("component", "product_service").Logger(),
	}
}

func (s *productService) Create(ctx context.Context, ownerID uint, patch model.ProductPatch, uploads ProductUploads) (product *model.Product, err error) {
	defer func() { s.metrics.ProductOperation("create", err) }()

	// 1. Required fields
	if missing := patch.MissingForCreate(); len(missing) > 0 {
		return nil, invalid("missing required fields: %s", strings.Join(missing, ", "))
	}

	// 2. Defaults, then the supplied fields
	product = &model.Product{
		MinStockLevel: model.DefaultMinStockLevel,
		Status:        model.StatusActive,
		IsPublished:   true,
		OwnerID:       ownerID,
	}
	if err := patch.Apply(product); err != nil {
		return nil, err
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	// 3. Store images
	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}
	stored.attach(product)

	// 4. Insert under a unique slug
	if err := s.insert(ctx, product); err != nil {
		s.discard(stored)
		return nil, err
	}

	s.log.Info().Uint("product_id", product.ID).Str("slug", product.Slug).Uint("owner_id", ownerID).Msg("product created")
	return product, nil
}

// insert looks up a free slug and retries with the next candidate when a
// concurrent create claims it between the lookup and the insert.
func (s *productService) insert(ctx context.Context, product *model.Product) error {
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate, err := slug.Unique(ctx, product.Name, s.repo.SlugExists)
		if err != nil {
			return internal(err, "failed to generate slug")
		}
		product.ID = 0
		product.Slug = candidate

		err = s.repo.Create(ctx, product)
		switch {
		case err == nil:
			return nil
		case database.IsUniqueViolation(err, "sku"):
			return ErrSKUTaken
		case database.IsUniqueViolation(err, "slug"):
			s.log.Debug().Str("slug", candidate).Int("attempt", attempt+1).Msg("slug taken concurrently, retrying")
			continue
		default:
			return internal(err, "failed to create product")
		}
	}
	return ErrSlugExhausted
}

func (s *productService) ListByOwner(ctx context.Context, ownerID uint, params pagination.Params) (pagination.Page[model.Product], error) {
	products, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return pagination.Page[model.Product]{}, internal(err, "failed to list products")
	}
	return pagination.Paginate(products, params), nil
}

func (s *productService) ListPublished(ctx context.Context, params pagination.Params) (pagination.Page[model.Product], error) {
	products, err := s.repo.FindPublished(ctx)
	if err != nil {
		return pagination.Page[model.Product]{}, internal(err, "failed to list products")
	}
	return pagination.Paginate(products, params), nil
}

func (s *productService) Get(ctx context.Context, slug string) (*model.Product, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, internal(err, "failed to load product")
	}
	return product, nil
}

// Update applies only the supplied fields. New images are appended; a new
// primary image replaces the old one.
func (s *productService) Update(ctx context.Context, slug string, ownerID uint, patch model.ProductPatch, uploads ProductUploads) (product *model.Product, err error) {
	defer func() { s.metrics.ProductOperation("update", err) }()

	// 1. Existence and ownership, before anything is written
	current, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != ownerID {
		return nil, ErrUpdateForbidden
	}

	// 2. Reject a bad patch before any file is stored
	preview := *current
	if err := mergeProduct(&preview, patch); err != nil {
		return nil, err
	}

	// 3. Uploads
	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	// 4. Merge into the locked row so concurrent appends are kept
	product, err = s.repo.Modify(ctx, current.ID, func(p *model.Product) error {
		if p.OwnerID != ownerID {
			return ErrUpdateForbidden
		}
		if err := mergeProduct(p, patch); err != nil {
			return err
		}
		stored.attach(p)
		return nil
	})
	if err != nil {
		s.discard(stored)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrProductNotFound
		case database.IsUniqueViolation(err, "sku"):
			return nil, ErrSKUTaken
		case apperror.As(err) != nil:
			return nil, err
		default:
			return nil, internal(err, "failed to update product")
		}
	}
	return product, nil
}

func mergeProduct(p *model.Product, patch model.ProductPatch) error {
	if err := patch.Apply(p); err != nil {
		return err
	}
	return validateProduct(p)
}

func (s *productService) Delete(ctx context.Context, slug string, ownerID uint) (err error) {
	defer func() { s.metrics.ProductOperation("delete", err) }()

	product, err := s.Get(ctx, slug)
	if err != nil {
		return err
	}
	if product.OwnerID != ownerID {
		return ErrDeleteForbidden
	}

	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return internal(err, "failed to delete product")
	}

	s.log.Info().Uint("product_id", product.ID).Str("slug", product.Slug).Msg("product deleted")
	return nil
}

// storedUploads are the URL paths of files saved for one request.
type storedUploads struct {
	primary *string
	images  []string
}

func (u storedUploads) attach(p *model.Product) {
	if u.primary != nil {
		p.PrimaryImage = u.primary
	}
	p.Images = append(slices.Clone(p.Images), u.images...)
}

func (u storedUploads) paths() []string {
	paths := slices.Clone(u.images)
	if u.primary != nil {
		paths = append(paths, *u.primary)
	}
	return paths
}

func (s *productService) storeUploads(ctx context.Context, uploads ProductUploads) (storedUploads, error) {
	var stored storedUploads
	if uploads.Primary != nil {
		path, err := s.storage.Save(ctx, productImageFolder, *uploads.Primary)
		if err != nil {
			return storedUploads{}, internal(err, "failed to store primary image")
		}
		stored.primary = &path
	}

	for _, upload := range uploads.Images {
		path, err := s.storage.Save(ctx, productImageFolder, upload)
		if err != nil {
			s.discard(stored)
			return storedUploads{}, internal(err, "failed to store image")
		}
		stored.images = append(stored.images, path)
	}
	return stored, nil
}

// discard removes files whose product row was never written. It runs on an
// error path, so failures are only logged.
func (s *productService) discard(stored storedUploads) {
	for _, path := range stored.paths() {
		if err := s.storage.Remove(context.Background(), path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to remove orphaned upload")
		}
	}
}

func validateProduct(p *model.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return invalid("name must not be empty")
	case strings.TrimSpace(p.SKU) == "":
		return invalid("sku must not be empty")
	case !p.Price.IsPositive():
		return invalid("price must be greater than zero")
	case p.CostPrice.Valid && p.CostPrice.Decimal.IsNegative():
		return invalid("cost_price must not be negative")
	case p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsNegative():
		return invalid("discount_price must not be negative")
	case p.Quantity < 0:
		return invalid("quantity must not be negative")
	case p.MinStockLevel < 0:
		return invalid("min_stock_level must not be negative")
	case p.Weight != nil && (math.IsNaN(*p.Weight) || math.IsInf(*p.Weight, 0)):
		return invalid("weight must be a finite number")
	case p.Weight != nil && *p.Weight < 0:
		return invalid("weight must not be negative")
	case !p.Category.Valid():
		return invalid("unknown category %q", p.Category)
	case !p.Status.Valid():
		return invalid("unknown status %q", p.Status)
	}
	for _, money := range []struct {
		field string
		value decimal.NullDecimal
	}{
		{"price", decimal.NewNullDecimal(p.Price)},
		{"cost_price", p.CostPrice},
		{"discount_price", p.DiscountPrice},
	} {
		if err := checkMoney(money.field, money.value); err != nil {
			return err
		}
	}
	return nil
}

// checkMoney keeps amounts inside the numeric(12,2) columns: at most two
// decimal places and ten integer digits.
func checkMoney(field string, value decimal.NullDecimal) error {
	if !value.Valid {
		return nil
	}
	switch {
	case !value.Decimal.Equal(value.Decimal.Round(model.MoneyScale)):
		return invalid("%s must have at most %d decimal places", field, model.MoneyScale)
	case value.Decimal.Abs().GreaterThanOrEqual(maxMoney):
		return invalid("%s must be less than %s", field, maxMoney)
	}
	return nil
}

