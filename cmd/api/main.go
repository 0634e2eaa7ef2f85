package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"

	"github.com/brokendeveloper/banking-app/internal/adapter/handler"
	"github.com/brokendeveloper/banking-app/internal/adapter/middleware"
	"github.com/brokendeveloper/banking-app/internal/adapter/storage"
	"github.com/brokendeveloper/banking-app/internal/core/config"
	"github.com/brokendeveloper/banking-app/internal/core/engine"
	"github.com/brokendeveloper/banking-app/internal/core/notifications"
	"github.com/brokendeveloper/banking-app/internal/core/worker"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	dbPool, err := storage.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	accountRepo := storage.NewAccountRepository(dbPool)
	ledgerRepo := storage.NewLedgerRepository(dbPool)

	// Notification sink: prefer the webhook outbox, then redis pub/sub,
	// fall back to plain logging. All of them are best-effort.
	var notifier engine.Notifier = notifications.LogNotifier{}
	switch {
	case cfg.WebhookURL != "":
		notifier = notifications.NewOutboxNotifier(dbPool, cfg.WebhookURL)
	case cfg.RedisURL != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		notifier = notifications.NewEventPublisher(redis.NewClient(opts))
	}

	core := engine.New(accountRepo, ledgerRepo, ledgerRepo, notifier)

	accountHandler := &handler.AccountHandler{Engine: core}
	transactionHandler := &handler.TransactionHandler{Engine: core}
	paymentHandler := &handler.PaymentHandler{Engine: core}
	apiKeyHandler := &handler.APIKeyHandler{Repo: accountRepo}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/v1")

	// Public
	api.Post("/deposit", transactionHandler.Deposit)
	api.Get("/accounts/:id/balance", accountHandler.GetBalance)
	api.Post("/accounts/:id/keys", apiKeyHandler.GenerateKey)

	// Protected
	private := api.Use(middleware.Protected(dbPool))
	private.Post("/transfer", middleware.Idempotency(dbPool), transactionHandler.Transfer)
	private.Post("/payments/boleto", middleware.Idempotency(dbPool), paymentHandler.PayBoleto)
	private.Get("/accounts/:id/statement", accountHandler.GetStatement)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker.StartWebhookWorker(workerCtx, dbPool, cfg.WebhookSecret)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	stopWorker()

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	dbPool.Close()
	slog.Info("server exited")
}
