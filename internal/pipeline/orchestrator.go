// Package pipeline drives a submitted prompt through content mining and
// the downstream assembly stages, recording per-stage job rows and an
// append-only event log, and enqueues a training job on success.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rankforge/rankforge/internal/domain"
	"github.com/rankforge/rankforge/internal/logger"
)

const (
	jobTypeMining   = "mining"
	jobTypeTraining = "training"
)

// JobStore is the persistence surface for job, stage, run, and
// training-job rows.
type JobStore interface {
	CreateMiningJob(ctx context.Context, prompt, workflowID string, priority int) (*domain.MiningJob, error)
	GetMiningJob(ctx context.Context, id string) (*domain.MiningJob, error)
	MarkMiningJobRunning(ctx context.Context, id string) error
	MarkMiningJobCompleted(ctx context.Context, id string) error
	MarkMiningJobFailed(ctx context.Context, id string, jobErr error) error
	CreateStageJob(ctx context.Context, jobID, stage string, sequence int) (*domain.MiningStageJob, error)
	CompleteStageJob(ctx context.Context, id string, result domain.JSONMap) error
	FailStageJob(ctx context.Context, id string, stageErr error) error
	CreatePipelineRun(ctx context.Context, jobID, blueprintID string) (*domain.PipelineRun, error)
	CreateTrainingJob(ctx context.Context, runID string) (*domain.TrainingJob, error)
}

// EventLog appends audit entries.
type EventLog interface {
	Append(ctx context.Context, jobID, jobType, status, message string, payload domain.JSONMap) error
}

// BlueprintStore persists mined blueprint trees.
type BlueprintStore interface {
	SaveTree(ctx context.Context, bp *domain.Blueprint, atoms []domain.BlueprintAtom, components []domain.BlueprintComponent, dashboards []domain.BlueprintDashboard) error
}

// Publisher dispatches opaque record ids to queue topics.
type Publisher interface {
	Publish(ctx context.Context, topic, id string) error
}

// Orchestrator runs the mining state machine for one job at a time.
// Stage failures are not retried here; redelivery is queue policy.
type Orchestrator struct {
	jobs       JobStore
	events     EventLog
	blueprints BlueprintStore
	queue      Publisher
	miner      *Miner
	stages     []StageDescriptor

	miningTopic   string
	trainingTopic string
	log           *logger.Logger
}

// New creates an Orchestrator with the given stage table; a nil stages
// slice gets DefaultStages.
func New(
	jobs JobStore,
	events EventLog,
	blueprints BlueprintStore,
	q Publisher,
	stages []StageDescriptor,
	miningTopic, trainingTopic string,
	log *logger.Logger,
) *Orchestrator {
	if stages == nil {
		stages = DefaultStages()
	}
	return &Orchestrator{
		jobs:          jobs,
		events:        events,
		blueprints:    blueprints,
		queue:         q,
		miner:         NewMiner(),
		stages:        stages,
		miningTopic:   miningTopic,
		trainingTopic: trainingTopic,
		log:           log.WithField(logger.FieldComponent, "orchestrator"),
	}
}

// Submit enqueues a prompt: one queued MiningJob row plus the opaque id
// dispatched to the mining topic.
func (o *Orchestrator) Submit(ctx context.Context, prompt, workflowID string, priority int) (*domain.MiningJob, error) {
	job, err := o.jobs.CreateMiningJob(ctx, prompt, workflowID, priority)
	if err != nil {
		return nil, fmt.Errorf("failed to create mining job: %w", err)
	}
	if err := o.queue.Publish(ctx, o.miningTopic, job.ID); err != nil {
		return nil, fmt.Errorf("failed to dispatch mining job: %w", err)
	}
	o.appendEvent(ctx, job.ID, jobTypeMining, string(domain.JobStatusQueued), "mining job submitted", domain.JSONMap{"workflow_id": workflowID})
	return job, nil
}

// Process executes one dequeued mining job to a terminal status. The
// returned error reflects the failure that terminated the job; the job
// row itself is always left completed or failed.
func (o *Orchestrator) Process(ctx context.Context, jobID string) error {
	job, err := o.jobs.GetMiningJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load mining job %s: %w", jobID, err)
	}
	log := o.log.WithField(logger.FieldJobID, job.ID)

	if err := o.jobs.MarkMiningJobRunning(ctx, job.ID); err != nil {
		return err
	}
	o.appendEvent(ctx, job.ID, jobTypeMining, string(domain.JobStatusRunning), "mining job started", nil)

	// The blueprint is computed once, before the first stage; later
	// stages consume this same tree.
	mined := o.miner.Mine(job.ID, job.Prompt)
	if err := o.blueprints.SaveTree(ctx, &mined.Blueprint, mined.Atoms, mined.Components, mined.Dashboards); err != nil {
		return o.failJob(ctx, job.ID, fmt.Errorf("failed to persist blueprint: %w", err))
	}
	log.WithField("blueprint_id", mined.Blueprint.ID).Info("Blueprint persisted")

	for i, stage := range o.stages {
		if err := o.runStage(ctx, job, mined, stage, i); err != nil {
			// Abort remaining stages; the job is already failed.
			return err
		}
	}

	if err := o.jobs.MarkMiningJobCompleted(ctx, job.ID); err != nil {
		return err
	}

	run, err := o.jobs.CreatePipelineRun(ctx, job.ID, mined.Blueprint.ID)
	if err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}
	trainingJob, err := o.jobs.CreateTrainingJob(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to create training job: %w", err)
	}
	if err := o.queue.Publish(ctx, o.trainingTopic, trainingJob.ID); err != nil {
		return fmt.Errorf("failed to dispatch training job: %w", err)
	}

	o.appendEvent(ctx, job.ID, jobTypeMining, string(domain.JobStatusCompleted), "mining job completed", domain.JSONMap{
		"run_id":          run.ID,
		"training_job_id": trainingJob.ID,
	})
	log.WithField("training_job_id", trainingJob.ID).Info("Mining job completed, training enqueued")
	return nil
}

// runStage executes one stage with its own stage record. On failure the
// stage and the parent job are both marked failed.
func (o *Orchestrator) runStage(ctx context.Context, job *domain.MiningJob, mined *MinedBlueprint, stage StageDescriptor, sequence int) error {
	record, err := o.jobs.CreateStageJob(ctx, job.ID, stage.Name, sequence)
	if err != nil {
		return o.failJob(ctx, job.ID, fmt.Errorf("failed to open stage %s: %w", stage.Name, err))
	}

	result, stageErr := stage.Run(ctx, job, mined)
	if stageErr != nil {
		if err := o.jobs.FailStageJob(ctx, record.ID, stageErr); err != nil {
			o.log.WithField(logger.FieldStage, stage.Name).WithError(err).Error("Failed to mark stage failed")
		}
		o.appendEvent(ctx, job.ID, jobTypeMining, string(domain.JobStatusFailed),
			fmt.Sprintf("stage %s failed", stage.Name), domain.JSONMap{logger.FieldStage: stage.Name, "error": stageErr.Error()})
		return o.failJob(ctx, job.ID, fmt.Errorf("stage %s: %w", stage.Name, stageErr))
	}

	if err := o.jobs.CompleteStageJob(ctx, record.ID, result); err != nil {
		return o.failJob(ctx, job.ID, fmt.Errorf("failed to close stage %s: %w", stage.Name, err))
	}
	o.appendEvent(ctx, job.ID, jobTypeMining, string(domain.JobStatusCompleted),
		fmt.Sprintf("stage %s completed", stage.Name), result)
	return nil
}

// failJob marks the parent job failed and returns the original error.
func (o *Orchestrator) failJob(ctx context.Context, jobID string, jobErr error) error {
	if err := o.jobs.MarkMiningJobFailed(ctx, jobID, jobErr); err != nil {
		o.log.WithField(logger.FieldJobID, jobID).WithError(err).Error("Failed to mark job failed")
	}
	o.appendEvent(ctx, jobID, jobTypeMining, string(domain.JobStatusFailed), "mining job failed", domain.JSONMap{"error": jobErr.Error()})
	return jobErr
}

// appendEvent writes an audit entry; the log itself must never block
// the pipeline, so append failures are only logged.
func (o *Orchestrator) appendEvent(ctx context.Context, jobID, jobType, status, message string, payload domain.JSONMap) {
	if err := o.events.Append(ctx, jobID, jobType, status, message, payload); err != nil {
		o.log.WithField(logger.FieldJobID, jobID).WithError(err).Warn("Failed to append job event")
	}
}
