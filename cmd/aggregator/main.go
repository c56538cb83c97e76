package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/iotsignals/passage-api/internal/aggregate"
	"github.com/iotsignals/passage-api/internal/config"
	"github.com/iotsignals/passage-api/internal/logger"
	"github.com/iotsignals/passage-api/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	variant    = flag.String("variant", "general", "Aggregation variant: general, zwaar-verkeer or igor")
	fromDate   = flag.String("from-date", "", "Recompute every day from this date (YYYY-MM-DD) through yesterday; defaults to yesterday only")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAggregatorConfig(*configFile, *envPath)
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
			"service": "passage-aggregator",
			"variant": *variant,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	var start *time.Time
	if *fromDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *fromDate, time.UTC)
		if err != nil {
			logger.FatalCtx(ctx, "Invalid -from-date, expected YYYY-MM-DD", zap.Error(err))
		}
		start = &parsed
	}

	// Connect to database
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)

	aggregator, err := aggregate.NewAggregator(dataStore, aggregate.Variant(*variant))
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create aggregator", zap.Error(err))
	}

	if err := aggregator.Run(ctx, start); err != nil {
		logger.FatalCtx(ctx, "Aggregation run failed", zap.Error(err))
	}

	logger.Info("Aggregation run finished", zap.String("variant", *variant))
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
