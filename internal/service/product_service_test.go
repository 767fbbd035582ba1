package service

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-inventory-api/internal/model"
	"go-inventory-api/internal/repository"
	"go-inventory-api/pkg/apperror"
	"go-inventory-api/pkg/metrics"
	"go-inventory-api/pkg/pagination"
	"go-inventory-api/pkg/storage"
)

type productFixture struct {
	db     *gorm.DB
	svc    ProductService
	repo   repository.ProductRepository
	static string
	owner  *model.Account
	other  *model.Account
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	db := newTestDB(t)
	return newProductFixtureWithRepo(t, db, repository.NewProductRepo(db))
}

func newProductFixtureWithRepo(t *testing.T, db *gorm.DB, repo repository.ProductRepository) *productFixture {
	t.Helper()
	accounts := repository.NewAccountRepo(db)
	owner := &model.Account{Email: "owner@example.com", Name: "Owner", Role: model.RoleSupplier, Active: true}
	other := &model.Account{Email: "other@example.com", Name: "Other", Role: model.RoleSupplier, Active: true}
	require.NoError(t, accounts.Create(context.Background(), owner))
	require.NoError(t, accounts.Create(context.Background(), other))

	static := t.TempDir()
	return &productFixture{
		db:     db,
		svc:    NewProductService(repo, storage.NewLocal(static, "/static"), metrics.New(), zerolog.Nop()),
		repo:   repo,
		static: static,
		owner:  owner,
		other:  other,
	}
}

func basePatch(name, sku string) model.ProductPatch {
	return model.ProductPatch{
		Name:          model.Some(name),
		Price:         model.Some(decimal.RequireFromString("49.99")),
		SKU:           model.Some(sku),
		Quantity:      model.Some(25),
		MinStockLevel: model.Some(5),
		Category:      model.Some(model.CategoryClothing),
	}
}

func (f *productFixture) create(t *testing.T, name, sku string, uploads ProductUploads) *model.Product {
	t.Helper()
	p, err := f.svc.Create(context.Background(), f.owner.ID, basePatch(name, sku), uploads)
	require.NoError(t, err)
	return p
}

func TestCreateAssignsSlugAndDefaults(t *testing.T) {
	f := newProductFixture(t)

	p := f.create(t, "Red Shoes", "RS-1", ProductUploads{})

	assert.Equal(t, "red-shoes", p.Slug)
	assert.Equal(t, f.owner.ID, p.OwnerID)
	assert.Equal(t, model.StatusActive, p.Status)
	assert.True(t, p.IsPublished)
	assert.False(t, p.IsFeatured)
	assert.Equal(t, 5, p.MinStockLevel)

	second := f.create(t, "Red Shoes", "RS-2", ProductUploads{})
	assert.Equal(t, "red-shoes-1", second.Slug)

	third := f.create(t, "red   shoes!", "RS-3", ProductUploads{})
	assert.Equal(t, "red-shoes-2", third.Slug)
}

func TestCreateEmptySlugFallsBack(t *testing.T) {
	f := newProductFixture(t)

	p := f.create(t, "!!!", "X-1", ProductUploads{})
	assert.Equal(t, "product", p.Slug)
}

func TestCreateValidatesRequiredAndValues(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner.ID, model.ProductPatch{Name: model.Some("Only name")}, ProductUploads{})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	assert.Contains(t, err.Error(), "price, sku, quantity, min_stock_level, category")

	patch := basePatch("Free", "F-1")
	patch.Price = model.Some(decimal.Zero)
	_, err = f.svc.Create(ctx, f.owner.ID, patch, ProductUploads{})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	patch = basePatch("Negative", "N-1")
	patch.Quantity = model.Some(-1)
	_, err = f.svc.Create(ctx, f.owner.ID, patch, ProductUploads{})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	patch = basePatch("Weird", "W-1")
	patch.Category = model.Some(model.ProductCategory("weapons"))
	_, err = f.svc.Create(ctx, f.owner.ID, patch, ProductUploads{})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	for _, weight := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		patch = basePatch("Heavy", "H-1")
		patch.Weight = model.Some(weight)
		_, err = f.svc.Create(ctx, f.owner.ID, patch, ProductUploads{})
		assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err), "weight %v", weight)
	}

	for _, tc := range []struct {
		name  string
		apply func(*model.ProductPatch)
	}{
		{"price rounds to zero", func(p *model.ProductPatch) { p.Price = model.Some(decimal.RequireFromString("0.004")) }},
		{"price has three decimals", func(p *model.ProductPatch) { p.Price = model.Some(decimal.RequireFromString("10.005")) }},
		{"price overflows column", func(p *model.ProductPatch) { p.Price = model.Some(decimal.RequireFromString("10000000000")) }},
		{"cost has three decimals", func(p *model.ProductPatch) { p.CostPrice = model.Some(decimal.RequireFromString("1.001")) }},
		{"discount overflows column", func(p *model.ProductPatch) {
			p.DiscountPrice = model.Some(decimal.RequireFromString("99999999999.99"))
		}},
	} {
		patch = basePatch("Priced", "PR-1")
		tc.apply(&patch)
		_, err = f.svc.Create(ctx, f.owner.ID, patch, ProductUploads{})
		assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err), tc.name)
	}

	assert.Equal(t, int64(0), countRows(t, f.db, &model.Product{}))

	patch = basePatch("Largest", "L-1")
	patch.Price = model.Some(decimal.RequireFromString("9999999999.99"))
	_, err = f.svc.Create(ctx, f.owner.ID, patch, ProductUploads{})
	require.NoError(t, err)
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	f := newProductFixture(t)
	f.create(t, "Lamp", "SKU-1", ProductUploads{})

	_, err := f.svc.Create(context.Background(), f.owner.ID, basePatch("Another Lamp", "SKU-1"), ProductUploads{})

	assert.ErrorIs(t, err, ErrSKUTaken)
	assert.Equal(t, int64(1), countRows(t, f.db, &model.Product{}))
}

func TestCreateRemovesUploadsWhenInsertFails(t *testing.T) {
	f := newProductFixture(t)
	f.create(t, "Lamp", "SKU-1", ProductUploads{})

	_, err := f.svc.Create(context.Background(), f.owner.ID, basePatch("Another Lamp", "SKU-1"), ProductUploads{
		Primary: uploadPtr(storage.FromBytes("cover.png", []byte("cover"))),
		Images:  []storage.Upload{storage.FromBytes("a.png", []byte("a"))},
	})
	require.ErrorIs(t, err, ErrSKUTaken)

	entries, err := os.ReadDir(filepath.Join(f.static, "product_images"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// interleavedRepo lets another writer append an image right after the
// service reads the product, before it writes.
type interleavedRepo struct {
	repository.ProductRepository
	db    *gorm.DB
	armed bool
}

func (r *interleavedRepo) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	p, err := r.ProductRepository.FindBySlug(ctx, slug)
	if err != nil || !r.armed {
		return p, err
	}
	r.armed = false

	concurrent := *p
	concurrent.Images = append(slices.Clone(p.Images), "/static/product_images/concurrent.png")
	if err := r.db.Omit("Owner").Save(&concurrent).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func TestUpdateKeepsImagesAppendedConcurrently(t *testing.T) {
	db := newTestDB(t)
	repo := &interleavedRepo{ProductRepository: repository.NewProductRepo(db), db: db}
	f := newProductFixtureWithRepo(t, db, repo)
	ctx := context.Background()
	created := f.create(t, "Shared", "SH-1", ProductUploads{
		Images: []storage.Upload{storage.FromBytes("a.png", []byte("a"))},
	})

	repo.armed = true
	updated, err := f.svc.Update(ctx, created.Slug, f.owner.ID, model.ProductPatch{Quantity: model.Some(7)}, ProductUploads{
		Images: []storage.Upload{storage.FromBytes("b.png", []byte("b"))},
	})
	require.NoError(t, err)

	require.Len(t, updated.Images, 3)
	assert.Equal(t, created.Images[0], updated.Images[0])
	assert.Equal(t, "/static/product_images/concurrent.png", updated.Images[1])
	assert.Equal(t, 7, updated.Quantity)

	stored, err := f.svc.Get(ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, updated.Images, stored.Images)
}

func TestUpdateRejectedAfterStoringRemovesUploads(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	f.create(t, "First", "FS-1", ProductUploads{})
	second := f.create(t, "Second", "FS-2", ProductUploads{})

	_, err := f.svc.Update(ctx, second.Slug, f.owner.ID, model.ProductPatch{SKU: model.Some("FS-1")}, ProductUploads{
		Images: []storage.Upload{storage.FromBytes("c.png", []byte("c"))},
	})
	require.ErrorIs(t, err, ErrSKUTaken)

	entries, err := os.ReadDir(filepath.Join(f.static, "product_images"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	stored, err := f.svc.Get(ctx, second.Slug)
	require.NoError(t, err)
	assert.Equal(t, "FS-2", stored.SKU)
	assert.Empty(t, stored.Images)
}

// racyRepo reports the first slug it checks as free, as if a concurrent create
// claimed it between the check and the insert.
type racyRepo struct {
	repository.ProductRepository
	mu    sync.Mutex
	lied  bool
	calls int
}

func (r *racyRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	r.mu.Lock()
	r.calls++
	if !r.lied {
		r.lied = true
		r.mu.Unlock()
		return false, nil
	}
	r.mu.Unlock()
	return r.ProductRepository.SlugExists(ctx, slug)
}

func TestCreateRetriesSlugCollision(t *testing.T) {
	db := newTestDB(t)
	base := repository.NewProductRepo(db)
	seed := newProductFixtureWithRepo(t, db, base)
	seed.create(t, "Desk", "D-1", ProductUploads{})

	racy := &racyRepo{ProductRepository: base}
	svc := NewProductService(racy, storage.NewLocal(t.TempDir(), "/static"), nil, zerolog.Nop())

	p, err := svc.Create(context.Background(), seed.owner.ID, basePatch("Desk", "D-2"), ProductUploads{})
	require.NoError(t, err)
	assert.Equal(t, "desk-1", p.Slug)
	assert.Greater(t, racy.calls, 1)
}

func TestUpdateByNonOwnerIsForbiddenAndChangesNothing(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	created := f.create(t, "Guarded", "G-1", ProductUploads{
		Images: []storage.Upload{storage.FromBytes("a.png", []byte("a"))},
	})

	before, err := f.repo.FindBySlug(ctx, created.Slug)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, created.Slug, f.other.ID, model.ProductPatch{
		Name:     model.Some("Hijacked"),
		Quantity: model.Some(0),
	}, ProductUploads{Images: []storage.Upload{storage.FromBytes("x.png", []byte("x"))}})

	assert.ErrorIs(t, err, ErrUpdateForbidden)
	assert.Equal(t, "You are not authorized to update this product", apperror.As(err).Message())

	after, err := f.repo.FindBySlug(ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateAppendsImagesAndAppliesOnlySuppliedFields(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	created := f.create(t, "Gallery", "GL-1", ProductUploads{
		Primary: uploadPtr(storage.FromBytes("cover.png", []byte("cover"))),
		Images: []storage.Upload{
			storage.FromBytes("a.png", []byte("a")),
			storage.FromBytes("b.png", []byte("b")),
		},
	})
	require.Len(t, created.Images, 2)

	updated, err := f.svc.Update(ctx, created.Slug, f.owner.ID, model.ProductPatch{
		Quantity: model.Some(3),
		Name:     model.Some("Gallery Renamed"),
	}, ProductUploads{
		Images: []storage.Upload{storage.FromBytes("c.png", []byte("c"))},
	})
	require.NoError(t, err)

	require.Len(t, updated.Images, 3)
	assert.Equal(t, created.Images, updated.Images[:2])
	assert.True(t, strings.HasSuffix(updated.Images[2], ".png"))
	assert.Equal(t, created.PrimaryImage, updated.PrimaryImage)

	stored, err := f.svc.Get(ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, updated.Images, stored.Images)
	assert.Equal(t, 3, stored.Quantity)
	assert.Equal(t, "Gallery Renamed", stored.Name)
	assert.Equal(t, "gallery", stored.Slug)
	assert.Equal(t, "GL-1", stored.SKU)
	assert.True(t, stored.Price.Equal(decimal.RequireFromString("49.99")))
	assert.Equal(t, model.CategoryClothing, stored.Category)
}

func TestUpdateReplacesPrimaryImage(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	created := f.create(t, "Poster", "P-1", ProductUploads{
		Primary: uploadPtr(storage.FromBytes("old.png", []byte("old"))),
	})

	updated, err := f.svc.Update(ctx, created.Slug, f.owner.ID, model.ProductPatch{}, ProductUploads{
		Primary: uploadPtr(storage.FromBytes("new.jpg", []byte("new"))),
	})
	require.NoError(t, err)

	require.NotNil(t, updated.PrimaryImage)
	assert.NotEqual(t, *created.PrimaryImage, *updated.PrimaryImage)
	assert.Equal(t, ".jpg", filepath.Ext(*updated.PrimaryImage))
	assert.Empty(t, updated.Images)
}

func TestUpdateMissingProduct(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.svc.Update(context.Background(), "nope", f.owner.ID, model.ProductPatch{}, ProductUploads{})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateRejectsClearingRequiredField(t *testing.T) {
	f := newProductFixture(t)
	created := f.create(t, "Table", "T-1", ProductUploads{})

	_, err := f.svc.Update(context.Background(), created.Slug, f.owner.ID, model.ProductPatch{
		Price: model.Null[decimal.Decimal](),
	}, ProductUploads{})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestDelete(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	created := f.create(t, "Bin", "B-1", ProductUploads{})

	err := f.svc.Delete(ctx, created.Slug, f.other.ID)
	assert.ErrorIs(t, err, ErrDeleteForbidden)
	assert.Equal(t, "You are not authorized to delete this product", apperror.As(err).Message())

	require.NoError(t, f.svc.Delete(ctx, created.Slug, f.owner.ID))

	_, err = f.svc.Get(ctx, created.Slug)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, int64(0), countRows(t, f.db, &model.Product{}))

	assert.ErrorIs(t, f.svc.Delete(ctx, created.Slug, f.owner.ID), ErrProductNotFound)
}

func TestListings(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		f.create(t, name, "L-"+name, ProductUploads{})
	}
	hidden := basePatch("Hidden", "L-Hidden")
	hidden.IsPublished = model.Some(false)
	_, err := f.svc.Create(ctx, f.owner.ID, hidden, ProductUploads{})
	require.NoError(t, err)

	foreign := basePatch("Foreign", "L-Foreign")
	_, err = f.svc.Create(ctx, f.other.ID, foreign, ProductUploads{})
	require.NoError(t, err)

	mine, err := f.svc.ListByOwner(ctx, f.owner.ID, pagination.Params{Page: 1, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, mine.Total)
	assert.Equal(t, 2, mine.Pages)
	require.Len(t, mine.Items, 3)
	assert.Equal(t, "alpha", mine.Items[0].Slug)
	assert.Equal(t, "gamma", mine.Items[2].Slug)

	published, err := f.svc.ListPublished(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 4, published.Total)
	for _, p := range published.Items {
		assert.NotEqual(t, "hidden", p.Slug)
	}
}

func TestReadsSkipFlaggedProducts(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	created := f.create(t, "Ghost", "GH-1", ProductUploads{})
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", created.ID).Update("deleted", true).Error)

	_, err := f.svc.Get(ctx, created.Slug)
	assert.ErrorIs(t, err, ErrProductNotFound)

	mine, err := f.svc.ListByOwner(ctx, f.owner.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 0, mine.Total)

	// The flagged row still holds its slug.
	again := f.create(t, "Ghost", "GH-2", ProductUploads{})
	assert.Equal(t, "ghost-1", again.Slug)
}

func uploadPtr(u storage.Upload) *storage.Upload {
	return &u
}
