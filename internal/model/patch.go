package model

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"go-inventory-api/pkg/apperror"
)

// Optional distinguishes an absent field from an explicit null and a value.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports a supplied non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func setValue[T any](dst *T, o Optional[T]) {
	if o.Present() {
		*dst = o.Value
	}
}

func setPtr[T any](dst **T, o Optional[T]) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = nil
		return
	}
	v := o.Value
	*dst = &v
}

func setDecimal(dst *decimal.NullDecimal, o Optional[decimal.Decimal]) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = decimal.NullDecimal{}
		return
	}
	*dst = decimal.NewNullDecimal(o.Value)
}

// ProductPatch carries the product fields a caller explicitly supplied.
type ProductPatch struct {
	Name          Optional[string]
	Description   Optional[string]
	Price         Optional[decimal.Decimal]
	CostPrice     Optional[decimal.Decimal]
	DiscountPrice Optional[decimal.Decimal]
	SKU           Optional[string]
	Quantity      Optional[int]
	MinStockLevel Optional[int]
	Category      Optional[ProductCategory]
	Subcategory   Optional[string]
	Brand         Optional[string]
	Tags          Optional[string]
	Weight        Optional[float64]
	Unit          Optional[string]
	Dimensions    Optional[string]
	Status        Optional[ProductStatus]
	IsFeatured    Optional[bool]
	IsPublished   Optional[bool]
}

// MissingForCreate lists the required fields that were not supplied.
func (p ProductPatch) MissingForCreate() []string {
	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("name", p.Name.Present())
	check("price", p.Price.Present())
	check("sku", p.SKU.Present())
	check("quantity", p.Quantity.Present())
	check("min_stock_level", p.MinStockLevel.Present())
	check("category", p.Category.Present())
	return missing
}

// Apply merges the supplied fields into dst. Non-nullable columns reject an
// explicit null and leave dst untouched.
func (p ProductPatch) Apply(dst *Product) error {
	var cleared []string
	nonNull := map[string]bool{
		"name":            p.Name.Null,
		"price":           p.Price.Null,
		"sku":             p.SKU.Null,
		"quantity":        p.Quantity.Null,
		"min_stock_level": p.MinStockLevel.Null,
		"category":        p.Category.Null,
		"status":          p.Status.Null,
		"is_featured":     p.IsFeatured.Null,
		"is_published":    p.IsPublished.Null,
	}
	for name, null := range nonNull {
		if null {
			cleared = append(cleared, name)
		}
	}
	if len(cleared) > 0 {
		return clearedError(cleared)
	}

	setValue(&dst.Name, p.Name)
	setPtr(&dst.Description, p.Description)
	setValue(&dst.Price, p.Price)
	setDecimal(&dst.CostPrice, p.CostPrice)
	setDecimal(&dst.DiscountPrice, p.DiscountPrice)
	setValue(&dst.SKU, p.SKU)
	setValue(&dst.Quantity, p.Quantity)
	setValue(&dst.MinStockLevel, p.MinStockLevel)
	setValue(&dst.Category, p.Category)
	setPtr(&dst.Subcategory, p.Subcategory)
	setPtr(&dst.Brand, p.Brand)
	setPtr(&dst.Tags, p.Tags)
	setPtr(&dst.Weight, p.Weight)
	setPtr(&dst.Unit, p.Unit)
	setPtr(&dst.Dimensions, p.Dimensions)
	setValue(&dst.Status, p.Status)
	setValue(&dst.IsFeatured, p.IsFeatured)
	setValue(&dst.IsPublished, p.IsPublished)
	return nil
}

// ProfilePatch is the self-service subset of Account fields.
type ProfilePatch struct {
	Name       Optional[string]   `json:"name"`
	Phone      Optional[string]   `json:"phone"`
	Occupation Optional[string]   `json:"occupation"`
	District   Optional[District] `json:"district"`
	Address    Optional[string]   `json:"address"`
	UserType   Optional[Role]     `json:"user_type"`
}

func (p ProfilePatch) Apply(dst *Account) error {
	var cleared []string
	if p.Name.Null {
		cleared = append(cleared, "name")
	}
	if p.UserType.Null {
		cleared = append(cleared, "user_type")
	}
	if len(cleared) > 0 {
		return clearedError(cleared)
	}

	setValue(&dst.Name, p.Name)
	setPtr(&dst.Phone, p.Phone)
	setPtr(&dst.Occupation, p.Occupation)
	setPtr(&dst.District, p.District)
	setPtr(&dst.Address, p.Address)
	setValue(&dst.Role, p.UserType)
	return nil
}

// Columns names the account columns the patch touches.
func (p ProfilePatch) Columns() []string {
	var columns []string
	add := func(column string, set bool) {
		if set {
			columns = append(columns, column)
		}
	}
	add("name", p.Name.Set)
	add("phone", p.Phone.Set)
	add("occupation", p.Occupation.Set)
	add("district", p.District.Set)
	add("address", p.Address.Set)
	add("role", p.UserType.Set)
	return columns
}

func clearedError(fields []string) error {
	slices.Sort(fields)
	return apperror.Newf(apperror.CodeValidation, "fields cannot be null: %s", strings.Join(fields, ", "))
}
