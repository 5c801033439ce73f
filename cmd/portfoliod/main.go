package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/efolio/portfoliod/internal/config"
	"github.com/efolio/portfoliod/internal/domain"
	"github.com/efolio/portfoliod/internal/handler"
	"github.com/efolio/portfoliod/internal/pricing"
	"github.com/efolio/portfoliod/internal/service"
	"github.com/efolio/portfoliod/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load .env if present, then configuration from the environment.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		repo  store.PortfolioRepository
		txLog store.TransactionLog
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create postgres pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		pgRepo := store.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repo = pgRepo
		txLog = store.NewPostgresTransactionLog(pool)
		logger.Info("using postgres store")
	} else {
		repo = store.NewMemoryRepository()
		txLog = store.NewMemoryTransactionLog()
		logger.Info("using in-memory store")
	}

	// Price source, optionally fronted by a Redis cache.
	var prices pricing.Source
	switch cfg.PriceProvider {
	case "static":
		prices = pricing.NewStaticSource(nil)
	default:
		prices = pricing.NewYahooSource(domain.DefaultCurrency, cfg.PriceTTL)
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		prices = pricing.NewRedisCache(prices, rdb, cfg.PriceTTL)
		logger.Info("price cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	// Services.
	portfolioSvc := service.NewPortfolioService(repo, txLog, prices, cfg.LeaseTimeout)
	txSvc := service.NewTransactionService(repo, txLog)

	// Router.
	router := handler.NewRouter(portfolioSvc, txSvc, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
