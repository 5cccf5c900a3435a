package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"content_collector/internal/config"
	"content_collector/internal/connector"
	"content_collector/internal/dedup"
	"content_collector/internal/domain"
	"content_collector/internal/publisher"
	"content_collector/internal/queue"
	"content_collector/internal/scheduler"
	"content_collector/internal/service"
	"content_collector/internal/storage/postgres"
	"content_collector/internal/summarize"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
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

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize RabbitMQ publisher
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

	// Initialize stores
	sourceStore := postgres.NewSourceStore(db)
	ownerStore := postgres.NewOwnerStore(db)
	itemStore := postgres.NewItemStore(db)
	duplicateStore := postgres.NewDuplicateStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Shared fetch client and optional browser renderer
	client := connector.NewClient(cfg.Collector.FetchTimeout)

	var renderer connector.Renderer
	if cfg.Collector.RenderEnabled {
		renderer = connector.NewBrowserRenderer(cfg.Collector.RenderTimeout)
	}

	connectors := func(source *domain.Source) service.Connector {
		return connector.New(source, client, renderer, cfg.Collector.MaxRowsPerFetch, logger)
	}

	dedupEngine := dedup.NewEngine(itemStore, duplicateStore, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := queue.NewPool(cfg.Collector.Workers, cfg.Collector.QueueSize, logger)
	pool.Start(ctx)
	defer pool.Stop()

	collectService := service.NewCollectService(
		sourceStore,
		ownerStore,
		itemStore,
		connectors,
		dedupEngine,
		summarize.Extractive{},
		txManager,
		rabbitMQ,
		pool,
		logger,
		cfg.Collector,
	)

	sched := scheduler.NewScheduler(
		sourceStore,
		ownerStore,
		collectService,
		pool,
		cfg.Collector.TickInterval,
		logger,
	)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting content collector",
		"tick_interval", cfg.Collector.TickInterval,
		"workers", cfg.Collector.Workers,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
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
