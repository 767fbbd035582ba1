package handler

import (
	"go-inventory-api/internal/model"
	"go-inventory-api/internal/service"
	"go-inventory-api/pkg/storage"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	accounts service.AccountService
	urls     URLResolver
}

func NewUserHandler(accounts service.AccountService, urls URLResolver) *UserHandler {
	return &UserHandler{accounts: accounts, urls: urls}
}

// Me returns the authenticated profile
// GET /api/v1/user/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	fresh, err := h.accounts.Me(c.UserContext(), account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User profile data", "data": fresh.ToResponse(h.urls.BaseURL(c))})
}

// UpdateMe applies a partial profile update; null clears optional fields
// PATCH /api/v1/user/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	var patch model.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	}

	updated, err := h.accounts.UpdateProfile(c.UserContext(), account.ID, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully", "data": updated.ToResponse(h.urls.BaseURL(c))})
}

// UploadPicture stores a new profile picture from the "picture" form file
// POST /api/v1/user/me/picture
func (h *UserHandler) UploadPicture(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("picture")
	if err != nil || file.Filename == "" {
		return fiber.NewError(fiber.StatusBadRequest, "picture file is required")
	}

	updated, err := h.accounts.UpdatePicture(c.UserContext(), account.ID, storage.FromFileHeader(file))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Profile picture updated successfully", "data": updated.ToResponse(h.urls.BaseURL(c))})
}
