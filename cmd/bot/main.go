package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobmarket-bot/internal/api/marketplace"
	"jobmarket-bot/internal/bot"
	"jobmarket-bot/internal/bot/scheduler"
	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/config"
	"jobmarket-bot/internal/logger"
	"jobmarket-bot/internal/storage/postgres"
	"jobmarket-bot/internal/storage/redis"
	"jobmarket-bot/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting job marketplace bot",
		zap.String("log_level", cfg.LogLevel),
		zap.String("check_schedule", cfg.CheckSchedule),
		zap.Bool("reject_stale_fetches", cfg.RejectStaleFetches),
	)

	log.Info("connecting to PostgreSQL...")
	pg, err := postgres.New(cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = pg.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		log.Fatal("failed to migrate PostgreSQL", zap.Error(err))
	}

	log.Info("PostgreSQL ready")

	log.Info("connecting to Redis...")
	cache, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer cache.Close()

	log.Info("Redis connected successfully")

	client := marketplace.New(cfg.MarketplaceAPIURL, cfg.MarketplaceAPITimeout, log.Named("marketplace"))
	log.Info("marketplace API client created", zap.String("base_url", cfg.MarketplaceAPIURL))

	sessions := session.NewRegistry(client, pg, store.Options{
		RejectStaleFetches: cfg.RejectStaleFetches,
		SnapshotCache:      redis.NewSnapshotCache(cache, cfg.AnalyticsCacheTTL),
	}, log.Named("store"))

	log.Info("initializing Telegram bot...")
	tgBot, err := bot.New(cfg, sessions, pg, cache, log)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	log.Info("Telegram bot initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("starting notification checker...")
	checker := scheduler.New(
		tgBot.GetBot(),
		sessions,
		pg,
		cache,
		cfg,
		log.Named("scheduler"),
	)

	if err := checker.Start(ctx); err != nil {
		log.Fatal("failed to start checker", zap.Error(err))
	}

	log.Info("bot is running...")
	log.Info("press Ctrl+C to stop")

	if err := tgBot.Start(ctx); err != nil {
		log.Error("bot stopped with error", zap.Error(err))
	}

	log.Info("shutting down gracefully...")

	checker.Stop()

	log.Info("bot stopped")
}
