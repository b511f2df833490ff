package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tenantsync/configs"
	v1 "tenantsync/internal/api/v1"
	"tenantsync/internal/api/v1/handlers"
	"tenantsync/internal/assistant"
	"tenantsync/internal/intake"
	"tenantsync/internal/middleware"
	"tenantsync/internal/payment"
	"tenantsync/internal/repository"
	ws "tenantsync/internal/websocket"
	"tenantsync/pkg/crypto"
	"tenantsync/pkg/database"
	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

func main() {
	cfg := configs.LoadConfig()

	logger.InitLoggers(cfg.LogDir)
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := database.ConnectDB(cfg)
	defer db.Close()
	logger.SystemLogger.Info("Database Connected")

	// Tables are created on first start.
	if err := repository.CreateTableIfNotExists(ctx, db); err != nil {
		logger.ErrorLogger.Fatal("Error creating tables", zap.Error(err))
	}

	cache, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.ErrorLogger.Fatal("Error connecting to redis", zap.Error(err))
	}
	if cache != nil {
		defer cache.Close()
		logger.SystemLogger.Info("Redis Connected")
	}

	cipher, err := crypto.New(cfg.EncryptionKey)
	if err != nil {
		logger.ErrorLogger.Fatal("Error building cipher", zap.Error(err))
	}
	store := repository.NewStore(db, cipher)

	ai, err := assistant.New(cfg.OllamaURL, cfg.OllamaModel, cfg.AssistantTimeout, http.DefaultClient)
	if err != nil {
		logger.ErrorLogger.Fatal("Error creating assistant client", zap.Error(err))
	}

	// Conversations live in Redis when it is available so every instance sees them.
	var intakeStore intake.Store
	if cache != nil {
		intakeStore = intake.NewRedisStore(cache, cfg.IntakeTTL)
	} else {
		mem := intake.NewMemoryStore(cfg.IntakeTTL)
		defer mem.Close()
		intakeStore = mem
	}

	deps := handlers.Deps{
		Config:    cfg,
		Repo:      store,
		Auth:      middleware.NewAuth([]byte(cfg.JWTSecret), store),
		Assistant: ai,
		Intake:    intake.NewFlow(intakeStore, ai),
		Cache:     cache,
	}
	if cfg.PayPalClientID != "" && cfg.PayPalSecret != "" {
		pp, err := payment.NewPayPal(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalMode, "")
		if err != nil {
			logger.ErrorLogger.Fatal("Error creating PayPal client", zap.Error(err))
		}
		deps.Orders = pp
	} else {
		logger.SystemLogger.Warn("PayPal is not configured, order endpoints are disabled")
	}
	if cfg.StripeKey != "" {
		deps.Intents = payment.NewStripe(cfg.StripeKey, "")
	} else {
		logger.SystemLogger.Warn("Stripe is not configured, payment intents are disabled")
	}

	hub := ws.NewHub()
	go hub.Run(ctx)
	deps.Notifier = hub

	app := fiber.New(fiber.Config{BodyLimit: 50 << 20})

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	v1.RegisterRoutes(app, handlers.New(deps), hub)

	go func() {
		<-ctx.Done()
		logger.SystemLogger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.ErrorLogger.Error("Error during shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}
