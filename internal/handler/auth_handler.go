package handler

import (
	"errors"
	"time"

	"go-inventory-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

const forgotPasswordMessage = "If this email is registered, a verification code has been sent"

type AuthHandler struct {
	accounts service.AccountService
	urls     URLResolver
}

func NewAuthHandler(accounts service.AccountService, urls URLResolver) *AuthHandler {
	return &AuthHandler{accounts: accounts, urls: urls}
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RegisterRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric_code,min=4,max=10"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// UserExists reports whether an email is registered
// POST /api/v1/auth/user-exists
func (h *AuthHandler) UserExists(c *fiber.Ctx) error {
	var req EmailRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	exists, err := h.accounts.UserExists(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	message := "User does not exist"
	if exists {
		message = "User exists"
	}
	return c.JSON(fiber.Map{"message": message, "user_exists": exists})
}

// Register creates an unverified account and sends a verification code
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.Register(c.UserContext(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    fiber.Map{"name": account.Name, "email": account.Email},
	})
}

// VerifyOTP marks the account verified
// POST /api/v1/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.VerifyOTP(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "OTP verified successfully",
		"data":    account.ToResponse(h.urls.BaseURL(c)),
	})
}

// ResendOTP issues a fresh registration code
// POST /api/v1/auth/resend-otp
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req EmailRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ResendOTP(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "OTP sent successfully"})
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	result, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"data": fiber.Map{
			"access_token": result.AccessToken,
			"token_type":   result.TokenType,
			"expires_at":   result.ExpiresAt.UTC().Format(time.RFC3339),
			"user":         result.Account.ToResponse(h.urls.BaseURL(c)),
		},
	})
}

// ForgotPassword answers identically whether or not the email is registered
// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req EmailRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ForgotPassword(c.UserContext(), req.Email); err != nil && !errors.Is(err, service.ErrAccountNotFound) {
		return err
	}
	return c.JSON(fiber.Map{"message": forgotPasswordMessage})
}

// ForgotPasswordVerify exchanges a reset code for a short-lived reset token
// POST /api/v1/auth/forgot-password/verify
func (h *AuthHandler) ForgotPasswordVerify(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	result, err := h.accounts.ForgotPasswordVerify(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "OTP verified successfully",
		"data": fiber.Map{
			"access_token": result.AccessToken,
			"token_type":   result.TokenType,
			"expires_at":   result.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}

// ResetPassword sets a new password for the authenticated account
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	var req ResetPasswordRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ResetPassword(c.UserContext(), account.ID, req.Password, req.ConfirmPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}
