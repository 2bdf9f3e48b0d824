// Package worker runs the queue consumers: N mining workers processing
// prompts through the orchestrator, and one training worker executing
// long-running model refreshes. Training is a blocking call inside the
// handler; the worker is occupied for its full duration.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/rankforge/rankforge/internal/domain"
	"github.com/rankforge/rankforge/internal/logger"
	"github.com/rankforge/rankforge/internal/queue"
	"github.com/rankforge/rankforge/internal/training"
)

// MiningProcessor executes one dequeued mining job to a terminal status.
type MiningProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// ModelTrainer retrains both model families.
type ModelTrainer interface {
	TrainAll(ctx context.Context) (map[domain.ModelType]training.FamilyResult, error)
}

// TrainingJobStore is the persistence surface for training job rows.
type TrainingJobStore interface {
	GetTrainingJob(ctx context.Context, id string) (*domain.TrainingJob, error)
	MarkTrainingJobRunning(ctx context.Context, id string) error
	CompleteTrainingJob(ctx context.Context, id string, metrics domain.JSONMap) error
	FailTrainingJob(ctx context.Context, id string, jobErr error) error
}

// EventLog appends audit entries.
type EventLog interface {
	Append(ctx context.Context, jobID, jobType, status, message string, payload domain.JSONMap) error
}

// Config holds worker pool configuration.
type Config struct {
	MiningWorkers int
	MiningTopic   string
	TrainingTopic string
}

// Worker consumes the mining and training topics until its context is
// cancelled.
type Worker struct {
	queue   queue.Queue
	mining  MiningProcessor
	trainer ModelTrainer
	jobs    TrainingJobStore
	events  EventLog
	cfg     Config
	log     *logger.Logger
}

// New creates a Worker.
func New(q queue.Queue, mining MiningProcessor, trainer ModelTrainer, jobs TrainingJobStore, events EventLog, cfg Config, log *logger.Logger) *Worker {
	if cfg.MiningWorkers <= 0 {
		cfg.MiningWorkers = 1
	}
	return &Worker{
		queue:   q,
		mining:  mining,
		trainer: trainer,
		jobs:    jobs,
		events:  events,
		cfg:     cfg,
		log:     log.WithField(logger.FieldComponent, "worker"),
	}
}

// Run starts the consumer goroutines and blocks until the context is
// cancelled. Jobs run concurrently across mining workers, but each
// job's stages execute sequentially within its own worker.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < w.cfg.MiningWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			log := w.log.WithField("mining_worker", id)
			log.Info("Mining worker started")
			_ = w.queue.Consume(ctx, w.cfg.MiningTopic, w.handleMining)
			log.Info("Mining worker stopped")
		}(i)
	}

	// Training runs on a single dedicated worker: one long-running,
	// CPU-bound fit at a time.
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.log.Info("Training worker started")
		_ = w.queue.Consume(ctx, w.cfg.TrainingTopic, w.handleTraining)
		w.log.Info("Training worker stopped")
	}()

	wg.Wait()
}

// handleMining runs one mining job through the orchestrator.
func (w *Worker) handleMining(ctx context.Context, jobID string) error {
	return w.mining.Process(ctx, jobID)
}

// handleTraining executes one training job end to end: both model
// families, metrics recorded on the job row, terminal status always
// completed or failed.
func (w *Worker) handleTraining(ctx context.Context, jobID string) error {
	job, err := w.jobs.GetTrainingJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load training job %s: %w", jobID, err)
	}
	log := w.log.WithField(logger.FieldJobID, job.ID)

	if err := w.jobs.MarkTrainingJobRunning(ctx, job.ID); err != nil {
		return err
	}
	w.appendEvent(ctx, job.ID, string(domain.JobStatusRunning), "training started", domain.JSONMap{"run_id": job.RunID})

	results, err := w.trainer.TrainAll(ctx)
	metrics := familyMetrics(results)
	if err != nil {
		if failErr := w.jobs.FailTrainingJob(ctx, job.ID, err); failErr != nil {
			log.WithError(failErr).Error("Failed to mark training job failed")
		}
		w.appendEvent(ctx, job.ID, string(domain.JobStatusFailed), "training failed", metrics)
		return err
	}

	if err := w.jobs.CompleteTrainingJob(ctx, job.ID, metrics); err != nil {
		return err
	}
	w.appendEvent(ctx, job.ID, string(domain.JobStatusCompleted), "training completed", metrics)
	log.Info("Training job completed")
	return nil
}

// familyMetrics flattens per-family training outcomes into the job's
// metrics payload.
func familyMetrics(results map[domain.ModelType]training.FamilyResult) domain.JSONMap {
	metrics := domain.JSONMap{}
	for modelType, res := range results {
		entry := map[string]interface{}{}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
		}
		if res.Model != nil {
			entry["model_id"] = res.Model.ID
			entry["version"] = res.Model.Version
			entry["performance"] = res.Model.PerformanceMetrics
		}
		metrics[string(modelType)] = entry
	}
	return metrics
}

// appendEvent writes an audit entry; failures are only logged.
func (w *Worker) appendEvent(ctx context.Context, jobID, status, message string, payload domain.JSONMap) {
	if err := w.events.Append(ctx, jobID, "training", status, message, payload); err != nil {
		w.log.WithField(logger.FieldJobID, jobID).WithError(err).Warn("Failed to append job event")
	}
}
