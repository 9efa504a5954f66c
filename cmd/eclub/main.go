package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"eclub/internal/config"
	"eclub/internal/http/handlers"
	applog "eclub/internal/log"
	"eclub/internal/repos"
	"eclub/internal/services"
	"eclub/internal/upload"
)

func main() {
	cfg := config.Load()
	s := cfg.Settings

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}

	// Uploaded images go to the bucket when one is configured, else to disk.
	var store upload.Storage = &upload.LocalStorage{Dir: mediaDir, BaseURL: s.MediaURL}
	if s.UploadBucket != "" {
		gcs, err := upload.NewGCSStorage(context.Background(), s.UploadBucket)
		if err != nil {
			log.Fatal(err)
		}
		defer gcs.Close()
		store = gcs
		log.Printf("[upload] images -> gs://%s", s.UploadBucket)
	}

	var notifier services.Notifier
	if s.SendGridKey != "" {
		notifier = &services.SendGridNotifier{APIKey: s.SendGridKey, From: s.MailFrom, Site: s.SiteName}
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo, State: repos.NewStateRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard; image uploads get their limit plus form overhead.
	bodyLimit := 1 << 20
	if n := s.UploadMaxMB<<20 + 64<<10; n > bodyLimit {
		bodyLimit = n
	}
	app.Server().MaxRequestBodySize = bodyLimit

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(handlers.Shared(s))
	// Attach user to context if logged in (for pages and log lines)
	app.Use(handlers.LoadUser(authSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(handlers.CSRF(s.SecureCookies))
	app.Use(handlers.ExposeCSRF)

	// ---------- Static assets ----------
	log.Printf("[static] /static -> ./web/static")
	log.Printf("[static] /media  -> %s", mediaDir)

	app.Static("/static", "./web/static")
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		full := filepath.Join(mediaDir, clean)
		return c.SendFile(full, true)
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, store, notifier)
	requireUser := handlers.RequireUser(authSvc)

	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/cart") })

	// Cart
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/clear", deps.CartHandler.Clear)
	app.Post("/cart/:id/quantity", deps.CartHandler.UpdateQuantity)
	app.Post("/cart/:id/delete", deps.CartHandler.Remove)

	// Wishlist
	app.Get("/wishlist", deps.WishlistHandler.List)
	app.Post("/wishlist", deps.WishlistHandler.Save)
	app.Post("/wishlist/delete", deps.WishlistHandler.Unsave)
	app.Post("/wishlist/toggle", deps.WishlistHandler.Toggle)
	app.Post("/wishlist/clear", deps.WishlistHandler.Clear)

	// Account
	acct := app.Group("/account", requireUser)
	acct.Get("/addresses", deps.AddressHandler.List)
	acct.Post("/addresses", deps.AddressHandler.Create)
	acct.Post("/addresses/:id", deps.AddressHandler.Update)
	acct.Post("/addresses/:id/delete", deps.AddressHandler.Delete)
	acct.Post("/addresses/:id/default", deps.AddressHandler.SetDefault)
	acct.Post("/delete", authH.DeleteAccount)

	// Checkout & orders (card preview is hit while typing, so it gets its own budget)
	cardLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|card"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.card.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	app.Post("/checkout/card", cardLimiter, deps.OrderHandler.Card)
	app.Get("/checkout", deps.OrderHandler.Show)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/order/:id", deps.OrderHandler.View)
	app.Get("/orders", requireUser, deps.OrderHandler.History)

	// API
	api := app.Group("/api/v1")
	uploadLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|upload"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.upload.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Post("/uploads/image", uploadLimiter, deps.UploadHandler.Image)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(handlers.NotFound)

	log.Fatal(app.Listen(":" + cfg.Port))
}
