package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rankforge/rankforge/internal/artifact"
	"github.com/rankforge/rankforge/internal/config"
	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/logger"
	"github.com/rankforge/rankforge/internal/pipeline"
	"github.com/rankforge/rankforge/internal/queue"
	"github.com/rankforge/rankforge/internal/registry"
	"github.com/rankforge/rankforge/internal/repository"
	"github.com/rankforge/rankforge/internal/training"
	"github.com/rankforge/rankforge/internal/worker"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "rankforge-worker",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	submit := flag.String("submit", "", "Submit a mining prompt and exit")
	workflowID := flag.String("workflow", "", "Workflow id for the submitted prompt")
	priority := flag.Int("priority", 0, "Priority for the submitted prompt")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Reinitialize logger with configured level/format
	appLogger = logger.New(&logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		File:        cfg.Logging.File,
		ServiceName: "rankforge-worker",
	})
	logger.SetDefaultLogger(appLogger)

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	sampleRepo := repository.NewSampleRepository(db)
	modelRepo := repository.NewModelRepository(db)
	jobRepo := repository.NewJobRepository(db)
	eventRepo := repository.NewEventRepository(db)
	blueprintRepo := repository.NewBlueprintRepository(db)

	// Initialize queue
	q, err := queue.NewRedisQueue(cfg.Redis.URL, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := q.Ping(ctx); err != nil {
		appLogger.WithError(err).Fatal("Redis ping failed")
	}

	// Initialize model artifact storage
	store, err := artifact.NewStore(&cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize artifact storage")
	}

	orchestrator := pipeline.New(
		jobRepo,
		eventRepo,
		blueprintRepo,
		q,
		nil,
		cfg.Redis.MiningTopic,
		cfg.Redis.TrainingTopic,
		appLogger,
	)

	// Submit mode: enqueue one prompt and exit without starting consumers.
	if *submit != "" {
		job, err := orchestrator.Submit(ctx, *submit, *workflowID, *priority)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to submit mining job")
		}
		appLogger.WithFields(logger.Fields{
			logger.FieldJobID: job.ID,
			logger.FieldTopic: cfg.Redis.MiningTopic,
		}).Info("Mining job submitted")
		return
	}

	catalog := feature.NewCatalog()
	trainer := training.NewTrainer(sampleRepo, modelRepo, store, catalog, cfg.Training, appLogger, nil)

	// Warm the model cache so a restarted worker serves the same active
	// versions it did before.
	modelRegistry := registry.New(modelRepo, store, appLogger)
	if err := modelRegistry.LoadActiveModels(ctx); err != nil {
		appLogger.WithError(err).Warn("Failed to preload active models")
	}

	w := worker.New(q, orchestrator, trainer, jobRepo, eventRepo, worker.Config{
		MiningWorkers: cfg.Mining.Workers,
		MiningTopic:   cfg.Redis.MiningTopic,
		TrainingTopic: cfg.Redis.TrainingTopic,
	}, appLogger)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	appLogger.WithFields(logger.Fields{
		"mining_workers": cfg.Mining.Workers,
		"mining_topic":   cfg.Redis.MiningTopic,
		"training_topic": cfg.Redis.TrainingTopic,
	}).Info("Worker started")

	w.Run(ctx)
	appLogger.Info("Worker stopped")
}
