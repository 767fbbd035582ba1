package handler

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"go-inventory-api/internal/model"
	"go-inventory-api/internal/service"
	"go-inventory-api/pkg/apperror"
	"go-inventory-api/pkg/storage"
)

// formFields holds the first value of every key the client actually sent, so
// presence can be told apart from absence.
type formFields map[string]string

func readForm(c *fiber.Ctx) (formFields, map[string][]*multipart.FileHeader, error) {
	fields := formFields{}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid multipart form")
		}
		for key, values := range form.Value {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
		return fields, form.File, nil
	}

	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		if _, seen := fields[string(key)]; !seen {
			fields[string(key)] = string(value)
		}
	})
	return fields, nil, nil
}

// text maps an absent key to absent and a blank value to null.
func (f formFields) text(key string) model.Optional[string] {
	raw, ok := f[key]
	if !ok {
		return model.Optional[string]{}
	}
	if value := strings.TrimSpace(raw); value != "" {
		return model.Some(value)
	}
	return model.Null[string]()
}

func parseField[T any](f formFields, key string, parse func(string) (T, error)) (model.Optional[T], error) {
	raw := f.text(key)
	if !raw.Present() {
		return model.Optional[T]{Set: raw.Set, Null: raw.Null}, nil
	}
	value, err := parse(raw.Value)
	if err != nil {
		return model.Optional[T]{}, apperror.Newf(apperror.CodeValidation, "%s has an invalid value", key)
	}
	return model.Some(value), nil
}

func convert[T, U any](o model.Optional[T], fn func(T) U) model.Optional[U] {
	out := model.Optional[U]{Set: o.Set, Null: o.Null}
	if o.Present() {
		out.Value = fn(o.Value)
	}
	return out
}

// productPatchFromForm builds a patch from the submitted form. Keys that were
// not sent stay absent; blank values clear optional columns.
func productPatchFromForm(f formFields) (model.ProductPatch, error) {
	var (
		patch model.ProductPatch
		err   error
	)

	patch.Name = f.text("name")
	patch.Description = f.text("description")
	patch.SKU = f.text("sku")
	patch.Subcategory = f.text("subcategory")
	patch.Brand = f.text("brand")
	patch.Tags = f.text("tags")
	patch.Unit = f.text("unit")
	patch.Dimensions = f.text("dimensions")
	patch.Category = convert(f.text("category"), func(v string) model.ProductCategory {
		return model.ProductCategory(strings.ToLower(v))
	})
	patch.Status = convert(f.text("status"), func(v string) model.ProductStatus {
		return model.ProductStatus(strings.ToLower(v))
	})

	if patch.Price, err = parseField(f, "price", decimal.NewFromString); err != nil {
		return patch, err
	}
	if patch.CostPrice, err = parseField(f, "cost_price", decimal.NewFromString); err != nil {
		return patch, err
	}
	if patch.DiscountPrice, err = parseField(f, "discount_price", decimal.NewFromString); err != nil {
		return patch, err
	}
	if patch.Quantity, err = parseField(f, "quantity", strconv.Atoi); err != nil {
		return patch, err
	}
	if patch.MinStockLevel, err = parseField(f, "min_stock_level", strconv.Atoi); err != nil {
		return patch, err
	}
	if patch.Weight, err = parseField(f, "weight", func(v string) (float64, error) {
		return strconv.ParseFloat(v, 64)
	}); err != nil {
		return patch, err
	}
	if patch.IsFeatured, err = parseField(f, "is_featured", strconv.ParseBool); err != nil {
		return patch, err
	}
	if patch.IsPublished, err = parseField(f, "is_published", strconv.ParseBool); err != nil {
		return patch, err
	}
	return patch, nil
}

// productUploadsFromForm picks "primary_image" and every "images" part,
// skipping empty file inputs.
func productUploadsFromForm(files map[string][]*multipart.FileHeader) service.ProductUploads {
	var uploads service.ProductUploads
	for _, fh := range files["primary_image"] {
		if fh.Filename != "" {
			upload := storage.FromFileHeader(fh)
			uploads.Primary = &upload
			break
		}
	}
	for _, fh := range files["images"] {
		if fh.Filename != "" {
			uploads.Images = append(uploads.Images, storage.FromFileHeader(fh))
		}
	}
	return uploads
}

func parseProductRequest(c *fiber.Ctx) (model.ProductPatch, service.ProductUploads, error) {
	fields, files, err := readForm(c)
	if err != nil {
		return model.ProductPatch{}, service.ProductUploads{}, err
	}
	patch, err := productPatchFromForm(fields)
	if err != nil {
		return model.ProductPatch{}, service.ProductUploads{}, err
	}
	return patch, productUploadsFromForm(files), nil
}
