package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"go-inventory-api/internal/config"
	"go-inventory-api/internal/handler"
	"go-inventory-api/internal/middleware"
	"go-inventory-api/internal/repository"
	"go-inventory-api/internal/service"
	"go-inventory-api/pkg/jwt"
	"go-inventory-api/pkg/metrics"
	"go-inventory-api/pkg/ratelimit"
)

const bodyLimit = 16 * 1024 * 1024

// Deps are the wired collaborators the HTTP layer needs.
type Deps struct {
	Config   *config.Config
	Log      zerolog.Logger
	Accounts service.AccountService
	Products service.ProductService
	Users    repository.AccountRepository
	Tokens   *jwt.Issuer
	Limiter  ratelimit.Limiter
	Metrics  *metrics.Recorder
}

func New(deps Deps) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    bodyLimit,
		ErrorHandler: handler.ErrorHandler(deps.Log),
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(deps.Log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowCredentials: strings.TrimSpace(cfg.App.CORSOrigins) != "*",
	}))

	urls := handler.NewURLResolver(cfg.App.BaseURL)
	authHandler := handler.NewAuthHandler(deps.Accounts, urls)
	userHandler := handler.NewUserHandler(deps.Accounts, urls)
	productHandler := handler.NewProductHandler(deps.Products, urls)

	requireAccess := middleware.RequireAuth(deps.Tokens, deps.Users)
	requireReset := middleware.RequireAuth(deps.Tokens, deps.Users, jwt.PurposeAccess, jwt.PurposePasswordReset)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": cfg.App.Name})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Static(cfg.Storage.StaticURLPrefix, cfg.Storage.StaticDir)

	api := app.Group("/api/v1")

	// ============ AUTH ROUTES ============
	auth := api.Group("/auth")
	if deps.Limiter != nil {
		auth.Use(middleware.RateLimit(deps.Limiter, "auth", deps.Log))
	}
	auth.Post("/user-exists", authHandler.UserExists)
	auth.Post("/register", authHandler.Register)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/resend-otp", authHandler.ResendOTP)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/forgot-password/verify", authHandler.ForgotPasswordVerify)
	auth.Post("/reset-password", requireReset, authHandler.ResetPassword)

	// ============ USER ROUTES ============
	user := api.Group("/user", requireAccess)
	user.Get("/me", userHandler.Me)
	user.Patch("/me", userHandler.UpdateMe)
	user.Post("/me/picture", userHandler.UploadPicture)

	// ============ PRODUCT ROUTES ============
	// Static segments are registered before /:slug.
	products := api.Group("/products")
	products.Get("/public/list", productHandler.GetPublishedProducts)
	products.Get("/", requireAccess, productHandler.GetProducts)
	products.Post("/", requireAccess, productHandler.CreateProduct)
	products.Get("/:slug", productHandler.GetProduct)
	products.Put("/:slug", requireAccess, productHandler.UpdateProduct)
	products.Patch("/:slug", requireAccess, productHandler.UpdateProduct)
	products.Delete("/:slug", requireAccess, productHandler.DeleteProduct)

	return app
}
