package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lodgepos/backoffice/internal/cache"
	"lodgepos/backoffice/internal/config"
	"lodgepos/backoffice/internal/httpapi"
	"lodgepos/backoffice/internal/report"
	"lodgepos/backoffice/internal/service"
	"lodgepos/backoffice/internal/store"
	"lodgepos/backoffice/internal/store/memory"
	pgstore "lodgepos/backoffice/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	logger := zap.Must(newLogger(cfg.LogLevel))
	defer func() { _ = logger.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository ready", zap.String("kind", "postgres"))
	} else {
		repo = memory.NewSeeded()
		logger.Info("repository ready", zap.String("kind", "in-memory"))
	}

	summaryCache := cache.SummaryCache(cache.NoopSummaryCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSummaryCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop summary cache", zap.Error(err))
		} else {
			summaryCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("summary cache ready", zap.String("kind", "redis"))
		}
	} else {
		logger.Info("summary cache ready", zap.String("kind", "noop"))
	}

	reports := report.NewEngine(repo, summaryCache, time.Duration(cfg.SummaryCacheTTLSeconds)*time.Second)
	svc := service.New(repo, reports, logger)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute, repo)
	bootstrapUsers(ctx, auth, cfg, logger)

	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("back office listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

// bootstrapUsers provisions the configured accounts. Accounts that already
// exist keep their stored credentials, so this is safe on every start.
func bootstrapUsers(ctx context.Context, auth *httpapi.AuthManager, cfg config.Config, logger *zap.Logger) {
	if cfg.AdminPassword != "" {
		if err := auth.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword, "admin"); err != nil {
			logger.Warn("bootstrap admin failed", zap.String("username", cfg.AdminUsername), zap.Error(err))
		}
	}
	if cfg.CashierPassword != "" {
		if err := auth.EnsureUser(ctx, cfg.CashierUsername, cfg.CashierPassword, "cashier"); err != nil {
			logger.Warn("bootstrap cashier failed", zap.String("username", cfg.CashierUsername), zap.Error(err))
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
