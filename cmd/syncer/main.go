package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"

	"knowledge_sync/internal/api"
	"knowledge_sync/internal/config"
	"knowledge_sync/internal/embedding"
	"knowledge_sync/internal/ingestion"
	"knowledge_sync/internal/provider"
	"knowledge_sync/internal/provider/feed"
	"knowledge_sync/internal/provider/gcalendar"
	"knowledge_sync/internal/provider/notion"
	"knowledge_sync/internal/provider/slack"
	"knowledge_sync/internal/publisher"
	"knowledge_sync/internal/retrieval"
	"knowledge_sync/internal/scheduler"
	"knowledge_sync/internal/service"
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

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	version, err := postgres.Migrate(db)
	if err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("database schema ready", "version", version)

	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	integrationStore := postgres.NewIntegrationStore(db)
	syncStateStore := postgres.NewSyncStateStore(db)
	itemStore := postgres.NewItemStore(db)
	artifactStore := postgres.NewArtifactStore(db)
	txManager := postgres.NewTransactionManager(db)

	registry := newRegistry(cfg, logger)

	embedder, closeEmbedder := newEmbedder(cfg, logger)
	defer closeEmbedder()

	pipeline := ingestion.NewPipeline(artifactStore, logger)
	syncService := service.NewSyncService(
		registry,
		integrationStore,
		syncStateStore,
		itemStore,
		pipeline,
		rabbitMQ,
		logger,
		cfg.Sync,
	)
	integrationService := service.NewIntegrationService(registry, integrationStore, syncStateStore, txManager, logger)
	engine := retrieval.NewEngine(itemStore, embedder, cfg.Retrieval, logger)

	sched := scheduler.NewScheduler(syncStateStore, syncService, cfg.Sync, logger)
	handler := api.NewHandler(syncService, integrationService, engine, artifactStore, logger)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, cfg.HTTP.AccessKey, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting knowledge syncer",
		"providers", registry.Providers(),
		"schedule", cfg.Sync.Schedule,
		"addr", cfg.HTTP.Addr,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Start(gctx)
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("syncer stopped with error", "error", err)
		os.Exit(1)
	}
}

func newRegistry(cfg *config.Config, logger *slog.Logger) *provider.Registry {
	gcalOAuth := &oauth2.Config{
		ClientID:     cfg.Providers.GoogleCalendar.ClientID,
		ClientSecret: cfg.Providers.GoogleCalendar.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}
	if cfg.Providers.GoogleCalendar.TokenURL != "" {
		gcalOAuth.Endpoint.TokenURL = cfg.Providers.GoogleCalendar.TokenURL
	}

	return provider.NewRegistry(
		slack.New(slack.Config{
			APIURL:   cfg.Providers.Slack.APIURL,
			PageSize: cfg.Providers.Slack.PageSize,
			Timeout:  cfg.API.Timeout,
		}, logger),
		notion.New(notion.Config{
			BaseURL:  cfg.Providers.Notion.BaseURL,
			PageSize: cfg.Providers.Notion.PageSize,
			Timeout:  cfg.API.Timeout,
			Retry: provider.RetryConfig{
				MaxAttempts:    cfg.API.Retry.MaxAttempts,
				InitialBackoff: cfg.API.Retry.InitialBackoff,
				MaxBackoff:     cfg.API.Retry.MaxBackoff,
			},
		}, logger),
		gcalendar.New(gcalendar.Config{Timeout: cfg.API.Timeout}, gcalOAuth, logger),
		feed.New(feed.Config{
			UserAgent: cfg.Providers.Feed.UserAgent,
			Timeout:   cfg.API.Timeout,
		}, logger),
	)
}

// newEmbedder returns nil when no API key is configured; retrieval then runs
// on keyword search alone.
func newEmbedder(cfg *config.Config, logger *slog.Logger) (retrieval.Embedder, func()) {
	if cfg.Embedding.APIKey == "" {
		logger.Warn("embedding api key not set, semantic retrieval disabled")
		return nil, func() {}
	}

	var embedder retrieval.Embedder = embedding.NewOpenAI(cfg.Embedding, logger)
	if cfg.Redis.Addr == "" {
		return embedder, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unavailable, embedding cache disabled", "error", err)
		_ = client.Close()
		return embedder, func() {}
	}
	return embedding.NewCache(embedder, client, cfg.Embedding.Model, cfg.Redis.TTL, logger), func() { _ = client.Close() }
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
