package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"loomline/internal/catalog"
	"loomline/internal/checkout"
	"loomline/internal/config"
	"loomline/internal/domain"
	"loomline/internal/http/handlers"
	applog "loomline/internal/log"
	"loomline/internal/store"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	st, err := store.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	seedAdmin(st)

	cat := catalog.New()
	deps := handlers.NewDeps(st, cfg, cat, checkout.StubGateway{}, checkout.LogSender{})

	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong, please try again"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))

	// ---------- Pages ----------
	app.Static("/static", "./web/static")
	app.Get("/", deps.CatalogHandler.Home)
	app.Get("/product/:id", deps.CatalogHandler.ProductPage)

	// ---------- API ----------
	api := app.Group("/api/v1")

	loginLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	})
	api.Post("/auth/register", deps.AuthHandler.Register)
	api.Post("/auth/login", loginLimiter, deps.AuthHandler.Login)

	api.Get("/products", deps.CatalogHandler.ListProducts)
	api.Get("/products/:id", deps.CatalogHandler.GetProduct)
	api.Get("/products/:id/reviews", deps.ReviewHandler.List)
	api.Get("/products/:id/reviews/stats", deps.ReviewHandler.Stats)

	authed := api.Group("", handlers.RequireAuth(deps.Identity))
	authed.Get("/orders", deps.OrderHandler.History)
	authed.Get("/orders/:id", deps.OrderHandler.View)
	authed.Post("/products/:id/reviews", deps.ReviewHandler.Create)
	authed.Post("/reviews/:id/vote", deps.ReviewHandler.Vote)
	authed.Post("/checkout/stage", deps.CheckoutHandler.Stage)
	authed.Post("/checkout/otp/resend", deps.CheckoutHandler.ResendOTP)

	otpLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.otp.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	})
	authed.Post("/checkout/otp/verify", otpLimiter, deps.CheckoutHandler.VerifyOTP)

	api.Post("/payments/callback", deps.CheckoutHandler.PaymentCallback)

	// ---------- Admin ----------
	admin := app.Group("/admin", handlers.RequireAdmin(deps.Identity))
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Get("/customers", deps.AdminHandler.ListCustomers)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

// seedAdmin ensures an admin account exists when ADMIN_EMAIL and
// ADMIN_PASSWORD are set. Safe to run every start.
func seedAdmin(st *store.Stores) {
	email := os.Getenv("ADMIN_EMAIL")
	pass := os.Getenv("ADMIN_PASSWORD")
	if email == "" || pass == "" {
		return
	}
	norm := domain.NormalizeEmail(email)
	if _, err := st.Customers.ByEmail(norm); err == nil {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] admin hash: %v", err)
		return
	}
	now := time.Now().UTC()
	err = st.Customers.Create(&domain.Customer{
		ID:          uuid.NewString(),
		Email:       norm,
		DisplayName: "Admin",
		Hash:        string(hash),
		Role:        domain.RoleAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil && err != domain.ErrDuplicateEmail {
		log.Printf("[seed] admin: %v", err)
	}
}
