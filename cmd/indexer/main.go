package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"knowledge_sync/internal/config"
	"knowledge_sync/internal/embedding"
	"knowledge_sync/internal/indexer"
	"knowledge_sync/internal/publisher"
	"knowledge_sync/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if cfg.Embedding.APIKey == "" {
		logger.Error("embedding api key is required")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	consumer, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
		Prefetch:   cfg.RabbitMQ.Prefetch,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	var embedder indexer.Embedder = embedding.NewOpenAI(cfg.Embedding, logger)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		embedder = embedding.NewCache(embedder, client, cfg.Embedding.Model, cfg.Redis.TTL, logger)
	}

	idx := indexer.New(postgres.NewItemStore(db), embedder, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(cfg.Embedding.BackfillSchedule, func() {
		if _, err := idx.Backfill(ctx, cfg.Embedding.BackfillBatch); err != nil {
			logger.Error("embedding backfill failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid backfill schedule", "error", err)
		os.Exit(1)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	logger.Info("starting embedding indexer",
		"queue", cfg.RabbitMQ.QueueName,
		"model", cfg.Embedding.Model,
		"backfill_schedule", cfg.Embedding.BackfillSchedule,
	)

	if err := consumer.Consume(ctx, idx.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
