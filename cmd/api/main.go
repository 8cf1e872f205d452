package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"

	"github.com/ShayNeeo/DeltaUp/internal/adapter/handler"
	"github.com/ShayNeeo/DeltaUp/internal/adapter/middleware"
	"github.com/ShayNeeo/DeltaUp/internal/adapter/storage"
	"github.com/ShayNeeo/DeltaUp/internal/core/auth"
	"github.com/ShayNeeo/DeltaUp/internal/core/config"
	"github.com/ShayNeeo/DeltaUp/internal/core/transfer"
	"github.com/ShayNeeo/DeltaUp/internal/core/worker"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	dbPool, err := storage.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := storage.Migrate(context.Background(), dbPool); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	cache := connectRedis(cfg.RedisAddr)

	gate := auth.NewGate([]byte(cfg.JWTSecret), cfg.TokenTTL, nil)

	accountRepo := storage.NewAccountRepository(dbPool)
	ledgerRepo := storage.NewLedgerRepository(dbPool)
	oauthRepo := storage.NewOAuthRepository(dbPool)
	transferStore := storage.NewTransferStore(dbPool, cfg.LockTimeout)
	engine := transfer.NewEngine(transferStore, cfg.WebhookURL, nil, nil)

	authHandler := &handler.AuthHandler{Accounts: accountRepo, Gate: gate, Cache: cache}
	accountHandler := &handler.AccountHandler{Accounts: accountRepo, Ledger: ledgerRepo}
	transferHandler := &handler.TransferHandler{Engine: engine}
	qrHandler := &handler.QRCodeHandler{Accounts: accountHandler}
	oauthHandler := &handler.OAuthHandler{
		Accounts:     accountRepo,
		Codes:        oauthRepo,
		Gate:         gate,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(splitOrigins(cfg.AllowedOrigins), ","),
		AllowHeaders: "Authorization, Accept, Content-Type, Idempotency-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	api := app.Group("/api")

	// Public
	api.Get("/health", handler.Health)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	// Protected
	private := api.Use(middleware.Protected(gate))
	private.Get("/user/profile", authHandler.Profile)
	private.Post("/transfer", middleware.Idempotency(dbPool), transferHandler.Transfer)
	private.Post("/qr-payment", middleware.Idempotency(dbPool), transferHandler.QRPayment)
	private.Post("/qr-code", qrHandler.Generate)
	private.Get("/balance", accountHandler.Balance)
	private.Get("/transactions", accountHandler.Transactions)

	oauth := app.Group("/oauth")
	oauth.Get("/authorize", middleware.Protected(gate), oauthHandler.Authorize)
	oauth.Post("/token", oauthHandler.Token)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	if cfg.WebhookURL != "" {
		worker.StartWebhookWorker(workerCtx, dbPool, cfg.WebhookSecret)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server stopped", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutting down server")

	stopWorker()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	dbPool.Close()
	if cache != nil {
		cache.Close()
	}
	slog.Info("Server exited")
}

// connectRedis returns nil when Redis is not configured or unreachable;
// callers treat a nil client as cache-disabled.
func connectRedis(addr string) *redis.Client {
	if addr == "" {
		slog.Warn("REDIS_ADDR is not set, profile caching disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Error("Redis connection failed, profile caching disabled", "error", err)
		return nil
	}
	slog.Info("Redis connected")
	return client
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
