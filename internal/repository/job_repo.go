package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rankforge/rankforge/internal/domain"
	"gorm.io/gorm"
)

// JobRepository owns the mining job queue rows, their per-stage records,
// training jobs, and pipeline runs. All writes are scoped to a single
// job's rows, so concurrent workers never contend beyond store locking.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateMiningJob enqueues a new mining job row in status queued.
func (r *JobRepository) CreateMiningJob(ctx context.Context, prompt, workflowID string, priority int) (*domain.MiningJob, error) {
	job := &domain.MiningJob{
		ID:         uuid.NewString(),
		Prompt:     prompt,
		WorkflowID: workflowID,
		Priority:   priority,
		Status:     domain.JobStatusQueued,
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// GetMiningJob retrieves a mining job by id.
func (r *JobRepository) GetMiningJob(ctx context.Context, id string) (*domain.MiningJob, error) {
	var job domain.MiningJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

// MarkMiningJobRunning transitions a job to running and stamps StartedAt.
func (r *JobRepository) MarkMiningJobRunning(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.MiningJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusRunning, "started_at": now}).Error
}

// MarkMiningJobCompleted terminates a job as completed.
func (r *JobRepository) MarkMiningJobCompleted(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.MiningJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusCompleted, "completed_at": now}).Error
}

// MarkMiningJobFailed terminates a job as failed with the error message.
func (r *JobRepository) MarkMiningJobFailed(ctx context.Context, id string, jobErr error) error {
	now := time.Now()
	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}
	return r.db.WithContext(ctx).Model(&domain.MiningJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusFailed, "error": msg, "completed_at": now}).Error
}

// CreateStageJob opens a stage record in status running.
func (r *JobRepository) CreateStageJob(ctx context.Context, jobID, stage string, sequence int) (*domain.MiningStageJob, error) {
	sj := &domain.MiningStageJob{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Stage:     stage,
		Sequence:  sequence,
		Status:    domain.JobStatusRunning,
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(sj).Error; err != nil {
		return nil, err
	}
	return sj, nil
}

// CompleteStageJob closes a stage record with its result payload.
func (r *JobRepository) CompleteStageJob(ctx context.Context, id string, result domain.JSONMap) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.MiningStageJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusCompleted, "result": result, "completed_at": now}).Error
}

// FailStageJob closes a stage record as failed. The result payload stays
// empty; the error string is recorded instead.
func (r *JobRepository) FailStageJob(ctx context.Context, id string, stageErr error) error {
	now := time.Now()
	msg := ""
	if stageErr != nil {
		msg = stageErr.Error()
	}
	return r.db.WithContext(ctx).Model(&domain.MiningStageJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusFailed, "error": msg, "completed_at": now}).Error
}

// StageJobs returns a job's stage records in declared order.
func (r *JobRepository) StageJobs(ctx context.Context, jobID string) ([]domain.MiningStageJob, error) {
	stages := make([]domain.MiningStageJob, 0)
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("sequence ASC").
		Find(&stages).Error
	if err != nil {
		return nil, err
	}
	return stages, nil
}

// CreatePipelineRun records the blueprint a completed mining job produced.
func (r *JobRepository) CreatePipelineRun(ctx context.Context, jobID, blueprintID string) (*domain.PipelineRun, error) {
	run := &domain.PipelineRun{
		ID:          uuid.NewString(),
		JobID:       jobID,
		BlueprintID: blueprintID,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// CreateTrainingJob enqueues a training job referencing a pipeline run.
func (r *JobRepository) CreateTrainingJob(ctx context.Context, runID string) (*domain.TrainingJob, error) {
	tj := &domain.TrainingJob{
		ID:     uuid.NewString(),
		RunID:  runID,
		Status: domain.JobStatusQueued,
	}
	if err := r.db.WithContext(ctx).Create(tj).Error; err != nil {
		return nil, err
	}
	return tj, nil
}

// GetTrainingJob retrieves a training job by id.
func (r *JobRepository) GetTrainingJob(ctx context.Context, id string) (*domain.TrainingJob, error) {
	var tj domain.TrainingJob
	if err := r.db.WithContext(ctx).First(&tj, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &tj, nil
}

// MarkTrainingJobRunning transitions a training job to running.
func (r *JobRepository) MarkTrainingJobRunning(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.TrainingJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusRunning, "started_at": now}).Error
}

// CompleteTrainingJob terminates a training job with its metrics payload.
func (r *JobRepository) CompleteTrainingJob(ctx context.Context, id string, metrics domain.JSONMap) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.TrainingJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusCompleted, "metrics": metrics, "completed_at": now}).Error
}

// FailTrainingJob terminates a training job as failed.
func (r *JobRepository) FailTrainingJob(ctx context.Context, id string, jobErr error) error {
	now := time.Now()
	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}
	return r.db.WithContext(ctx).Model(&domain.TrainingJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusFailed, "error": msg, "completed_at": now}).Error
}
