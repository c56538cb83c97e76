package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/iotsignals/passage-api/internal/config"
	"github.com/iotsignals/passage-api/internal/logger"
	"github.com/iotsignals/passage-api/internal/privacy"
	"github.com/iotsignals/passage-api/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	mode       = flag.String("mode", "batch", "Sweep mode: batch (id batches) or partitions (per-day rewrite with vacuum)")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadPrivacySweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "passage-privacy-sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	if *mode != "batch" && *mode != "partitions" {
		logger.FatalCtx(ctx, "Invalid -mode, expected batch or partitions", zap.String("mode", *mode))
	}

	// Cancel the run on SIGINT/SIGTERM so a batch in flight finishes cleanly
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	// Connect to database
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)
	sweeper := privacy.NewSweeper(dataStore, cfg.BatchSize, cfg.Pause)

	var total int64
	switch *mode {
	case "partitions":
		total, err = sweeper.RunPartitions(ctx)
	default:
		total, err = sweeper.Run(ctx)
	}
	if err != nil {
		logger.FatalCtx(ctx, "Privacy sweep failed", zap.Error(err), zap.Int64("rows_rewritten", total))
	}

	logger.Info("Privacy sweep finished",
		zap.String("mode", *mode),
		zap.Int64("rows_rewritten", total),
	)
}

// connectDatabase opens the database connection, retrying with exponential
// backoff so a scheduled run survives a briefly unavailable database.
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 2 * time.Minute

	var db *gorm.DB
	operation := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		return err
	}

	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Database connection failed, retrying",
			zap.Error(err),
			zap.Duration("next_retry_in", next),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}

	return db, nil
}
