package handler

import (
	"go-inventory-api/internal/model"
	"go-inventory-api/internal/service"
	"go-inventory-api/pkg/pagination"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	products service.ProductService
	urls     URLResolver
}

func NewProductHandler(products service.ProductService, urls URLResolver) *ProductHandler {
	return &ProductHandler{products: products, urls: urls}
}

// CreateProduct creates a product owned by the caller from a multipart form
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	patch, uploads, err := parseProductRequest(c)
	if err != nil {
		return err
	}

	product, err := h.products.Create(c.UserContext(), account.ID, patch, uploads)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"data":    product.ToResponse(h.urls.BaseURL(c)),
	})
}

// GetProducts lists the caller's products
// GET /api/v1/products
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	page, err := h.products.ListByOwner(c.UserContext(), account.ID, pagination.FromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Products retrieved successfully", "data": h.toResponsePage(c, page)})
}

// GetPublishedProducts lists every published product
// GET /api/v1/products/public/list
func (h *ProductHandler) GetPublishedProducts(c *fiber.Ctx) error {
	page, err := h.products.ListPublished(c.UserContext(), pagination.FromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Products retrieved successfully", "data": h.toResponsePage(c, page)})
}

// GetProduct returns one product by slug
// GET /api/v1/products/:slug
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.products.Get(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product retrieved successfully", "data": product.ToResponse(h.urls.BaseURL(c))})
}

// UpdateProduct applies a partial update; new images are appended
// PUT/PATCH /api/v1/products/:slug
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	patch, uploads, err := parseProductRequest(c)
	if err != nil {
		return err
	}

	product, err := h.products.Update(c.UserContext(), c.Params("slug"), account.ID, patch, uploads)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"data":    product.ToResponse(h.urls.BaseURL(c)),
	})
}

// DeleteProduct removes a product owned by the caller
// DELETE /api/v1/products/:slug
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	if err := h.products.Delete(c.UserContext(), c.Params("slug"), account.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

func (h *ProductHandler) toResponsePage(c *fiber.Ctx, page pagination.Page[model.Product]) pagination.Page[model.ProductResponse] {
	base := h.urls.BaseURL(c)
	return pagination.Map(page, func(p model.Product) model.ProductResponse {
		return p.ToResponse(base)
	})
}
