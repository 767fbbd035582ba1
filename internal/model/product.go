package model

import (
	"time"

	"github.com/shopspring/decimal"

	"go-inventory-api/pkg/storage"
)

type ProductStatus string

const (
	StatusActive       ProductStatus = "active"
	StatusInactive     ProductStatus = "inactive"
	StatusOutOfStock   ProductStatus = "out_of_stock"
	StatusDiscontinued ProductStatus = "discontinued"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOutOfStock, StatusDiscontinued:
		return true
	}
	return false
}

type ProductCategory string

const (
	CategoryElectronics ProductCategory = "electronics"
	CategoryClothing    ProductCategory = "clothing"
	CategoryFood        ProductCategory = "food"
	CategoryFurniture   ProductCategory = "furniture"
	CategoryBooks       ProductCategory = "books"
	CategoryToys        ProductCategory = "toys"
	CategorySports      ProductCategory = "sports"
	CategoryBeauty      ProductCategory = "beauty"
	CategoryAutomotive  ProductCategory = "automotive"
	CategoryHomeGarden  ProductCategory = "home_garden"
	CategoryOther       ProductCategory = "other"
)

func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryFood, CategoryFurniture, CategoryBooks,
		CategoryToys, CategorySports, CategoryBeauty, CategoryAutomotive, CategoryHomeGarden, CategoryOther:
		return true
	}
	return false
}

const DefaultMinStockLevel = 10

// Money columns are numeric(12,2).
const (
	MoneyPrecision = 12
	MoneyScale     = 2
)

type Product struct {
	BaseModel
	Name        string  `gorm:"type:varchar(255);not null;index"`
	Slug        string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description *string `gorm:"type:text"`

	// Pricing
	Price         decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	CostPrice     decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	DiscountPrice decimal.NullDecimal `gorm:"type:numeric(12,2)"`

	// Inventory
	SKU           string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Quantity      int    `gorm:"not null"`
	MinStockLevel int    `gorm:"not null"`

	// Classification
	Category    ProductCategory `gorm:"type:varchar(32);not null"`
	Subcategory *string         `gorm:"type:varchar(255)"`
	Brand       *string         `gorm:"type:varchar(255)"`
	Tags        *string         `gorm:"type:text"`

	// Media
	PrimaryImage *string  `gorm:"type:varchar(512)"`
	Images       []string `gorm:"type:text;serializer:json"`

	// Shipping
	Weight     *float64
	Unit       *string  `gorm:"type:varchar(32)"`
	Dimensions *string  `gorm:"type:varchar(255)"`

	Status      ProductStatus `gorm:"type:varchar(32);not null"`
	IsFeatured  bool          `gorm:"not null"`
	IsPublished bool          `gorm:"not null;index"`
	Deleted     bool          `gorm:"not null;index"`

	OwnerID uint     `gorm:"not null;index"`
	Owner   *Account `gorm:"foreignKey:OwnerID"`
}

// IsLowStock reports quantity at or below the reorder level.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStockLevel
}

// ProfitMargin is the markup over cost in percent, or zero without a positive cost.
func (p *Product) ProfitMargin() decimal.Decimal {
	if !p.CostPrice.Valid || !p.CostPrice.Decimal.IsPositive() {
		return decimal.Zero
	}
	cost := p.CostPrice.Decimal
	return p.Price.Sub(cost).Div(cost).Mul(decimal.NewFromInt(100))
}

func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// ProductResponse is the public view of a Product with derived fields.
type ProductResponse struct {
	ID             uint                `json:"id"`
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	Description    *string             `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	CostPrice      decimal.NullDecimal `json:"cost_price"`
	DiscountPrice  decimal.NullDecimal `json:"discount_price"`
	EffectivePrice decimal.Decimal     `json:"effective_price"`
	ProfitMargin   decimal.Decimal     `json:"profit_margin"`
	SKU            string              `json:"sku"`
	Quantity       int                 `json:"quantity"`
	MinStockLevel  int                 `json:"min_stock_level"`
	IsLowStock     bool                `json:"is_low_stock"`
	Category       ProductCategory     `json:"category"`
	Subcategory    *string             `json:"subcategory"`
	Brand          *string             `json:"brand"`
	Tags           *string             `json:"tags"`
	PrimaryImage   *string             `json:"primary_image"`
	Images         []string            `json:"images"`
	Weight         *float64            `json:"weight"`
	Unit           *string             `json:"unit"`
	Dimensions     *string             `json:"dimensions"`
	Status         ProductStatus       `json:"status"`
	IsFeatured     bool                `json:"is_featured"`
	IsPublished    bool                `json:"is_published"`
	OwnerID        uint                `json:"owner_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ToResponse converts Product to ProductResponse with image paths resolved
// against baseURL.
func (p *Product) ToResponse(baseURL string) ProductResponse {
	var primary *string
	if p.PrimaryImage != nil {
		resolved := storage.AbsoluteURL(baseURL, *p.PrimaryImage)
		primary = &resolved
	}

	var images []string
	if len(p.Images) > 0 {
		images = make([]string, len(p.Images))
		for i, img := range p.Images {
			images[i] = storage.AbsoluteURL(baseURL, img)
		}
	}

	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		CostPrice:      p.CostPrice,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: p.EffectivePrice(),
		ProfitMargin:   p.ProfitMargin().Round(2),
		SKU:            p.SKU,
		Quantity:       p.Quantity,
		MinStockLevel:  p.MinStockLevel,
		IsLowStock:     p.IsLowStock(),
		Category:       p.Category,
		Subcategory:    p.Subcategory,
		Brand:          p.Brand,
		Tags:           p.Tags,
		PrimaryImage:   primary,
		Images:         images,
		Weight:         p.Weight,
		Unit:           p.Unit,
		Dimensions:     p.Dimensions,
		Status:         p.Status,
		IsFeatured:     p.IsFeatured,
		IsPublished:    p.IsPublished,
		OwnerID:        p.OwnerID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
