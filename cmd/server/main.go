// Package main is the entry point for the wallet ledger service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kobo/internal/config"
	"kobo/internal/handlers"
	applogger "kobo/internal/logger"
	"kobo/internal/metrics"
	"kobo/internal/middleware"
	"kobo/internal/repositories"
	"kobo/internal/repositories/cache"
	"kobo/internal/routes"
	"kobo/internal/services/ledger"
	"kobo/internal/services/payment"
	"kobo/internal/services/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const version = "1.0.0"

func main() {
	config.LoadEnv()

	log, err := applogger.New(config.GetEnv("ENV", "development"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := repositories.InitDB(cfg.DB, log)
	if err != nil {
		log.Fatal("database initialization failed", zap.Error(err))
	}
	store := repositories.NewStore(db, repositories.WithLockTimeout(cfg.Ledger.LockTimeout))

	redisClient := cache.NewRedisClient(cfg.Redis)
	cacheService := cache.NewCacheService(redisClient, cfg.Ledger.BalanceCacheTTL)
	if err := cacheService.HealthCheck(context.Background()); err != nil {
		// Balance reads fall through to the database while redis is down.
		log.Warn("redis unavailable at startup", zap.Error(err))
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	ledgerService := ledger.NewService(store, cacheService, ledger.Config{
		DefaultCurrency:       cfg.Ledger.DefaultCurrency,
		WalletNumberAttempts:  cfg.Ledger.WalletNumberAttempts,
		IdempotencySuccessTTL: cfg.Ledger.IdempotencySuccessTTL,
		IdempotencyFailureTTL: cfg.Ledger.IdempotencyFailureTTL,
		OperationTimeout:      cfg.Ledger.OperationTimeout,
		BalanceCacheTTL:       cfg.Ledger.BalanceCacheTTL,
	}, collector, log)

	provider, paystackWebhook, stripeWebhook := buildProvider(cfg, ledgerService, log)
	paymentService := payment.NewService(ledgerService, provider, payment.Limits{
		MinAmount: cfg.Deposit.MinAmount,
		MaxAmount: cfg.Deposit.MaxAmount,
	}, cfg.Ledger.DefaultCurrency, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go ledger.NewSweeper(ledgerService, cfg.Ledger.SweepInterval, log).Run(ctx)
	go logPoolStats(ctx, db, cacheService, log)

	app := fiber.New(fiber.Config{
		AppName:      "kobo-wallet " + version,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(collector.Middleware())

	moneyLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"code":  "RATE_LIMITED",
				"error": "Too many requests. Please try again later.",
			})
		},
	})
	app.Use("/api/wallet/transfer", moneyLimiter)
	app.Use("/api/wallet/deposit", moneyLimiter)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	h := routes.Handlers{
		Auth:    middleware.NewAuthMiddleware(cfg.JWT.Secret, log),
		Wallet:  handlers.NewWalletHandler(ledgerService, store.Users(), log),
		Deposit: handlers.NewDepositHandler(paymentService, log),
		Health: handlers.NewHealthHandler(version, map[string]handlers.Pinger{
			"database": store,
			"redis":    handlers.PingFunc(cacheService.HealthCheck),
		}),
	}
	if paystackWebhook != nil {
		h.PaystackWebhook = handlers.NewWebhookHandler(paystackWebhook, webhook.PaystackSignatureHeader, log)
	}
	if stripeWebhook != nil {
		h.StripeWebhook = handlers.NewWebhookHandler(stripeWebhook, webhook.StripeSignatureHeader, log)
	}
	routes.SetupRoutes(app, h)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("wallet service started",
		zap.String("port", cfg.Port),
		zap.String("provider", provider.Name()),
		zap.String("env", cfg.Env))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	if err := cacheService.Close(); err != nil {
		log.Warn("failed to close redis connection", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Warn("failed to close database connection", zap.Error(err))
		}
	}
}

// buildProvider picks the configured deposit provider and the webhook
// processor that settles its notifications.
func buildProvider(cfg *config.Config, l ledger.Service, log *zap.Logger) (payment.Provider, *webhook.PaystackHandler, *webhook.StripeHandler) {
	switch cfg.Provider.Name {
	case "stripe":
		provider := payment.NewStripeProvider(cfg.Provider.StripeSecretKey, cfg.Provider.StripeSuccessURL, cfg.Provider.StripeCancelURL)
		return provider, nil, webhook.NewStripeHandler(l, cfg.Provider.StripeWebhookSecret, log)
	default:
		client := payment.NewPaystackClient(cfg.Provider.PaystackSecretKey, cfg.Provider.PaystackBaseURL, cfg.Provider.PaystackCallbackURL)
		var verifier webhook.PaystackVerifier
		if cfg.Provider.PaystackVerifyWebhooks {
			verifier = client
		}
		return client, webhook.NewPaystackHandler(l, cfg.Provider.PaystackSecretKey, verifier, log), nil
	}
}

// logPoolStats reports database and redis pool usage once a minute.
func logPoolStats(ctx context.Context, db *gorm.DB, cacheService *cache.CacheService, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("pool stats unavailable", zap.Error(err))
		return
	}
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			redisStats := cacheService.GetStats(ctx)
			log.Debug("pool stats",
				zap.Int("db_open", stats.OpenConnections),
				zap.Int("db_idle", stats.Idle),
				zap.Int("db_in_use", stats.InUse),
				zap.Int64("db_wait_count", stats.WaitCount),
				zap.Duration("db_wait", stats.WaitDuration),
				zap.Uint32("redis_hits", redisStats.Hits),
				zap.Uint32("redis_misses", redisStats.Misses),
				zap.Uint32("redis_timeouts", redisStats.Timeouts),
				zap.Uint32("redis_total_conns", redisStats.TotalConns))
		}
	}
}
