package domain

import "time"

// JobStatus represents the status of a queued pipeline job.
// Values include JobStatusQueued, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// MiningJob is one submitted prompt making its way through the content
// mining pipeline. The status only ever moves forward:
// queued -> running -> completed|failed.
type MiningJob struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	Prompt      string     `gorm:"type:text;not null" json:"prompt"`
	WorkflowID  string     `gorm:"type:text;index" json:"workflow_id"`
	Priority    int        `gorm:"default:0" json:"priority"`
	Status      JobStatus  `gorm:"type:text;default:queued;index" json:"status"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for MiningJob.
func (MiningJob) TableName() string {
	return "mining_jobs"
}

// MiningStageJob is one sequentially-executed stage of a mining job.
// Each stage owns its own status and result payload.
type MiningStageJob struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	JobID       string     `gorm:"type:text;not null;index" json:"job_id"`
	Stage       string     `gorm:"type:text;not null" json:"stage"`
	Sequence    int        `json:"sequence"`
	Status      JobStatus  `gorm:"type:text;default:running" json:"status"`
	Result      JSONMap    `gorm:"type:text" json:"result"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName returns the database table name for MiningStageJob.
func (MiningStageJob) TableName() string {
	return "mining_stage_jobs"
}

// TrainingJob is one queued model training run, created when a mining
// job completes and consumed by the training worker. A run retrains
// both model families; per-family results land in the Metrics payload.
type TrainingJob struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	RunID       string     `gorm:"type:text;not null;index" json:"run_id"`
	Status      JobStatus  `gorm:"type:text;default:queued;index" json:"status"`
	Metrics     JSONMap    `gorm:"type:text" json:"metrics"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for TrainingJob.
func (TrainingJob) TableName() string {
	return "training_jobs"
}

// PipelineRun links a completed mining job to the blueprint it produced.
// Training jobs reference the run, not the mining job directly.
type PipelineRun struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	JobID       string    `gorm:"type:text;not null;index" json:"job_id"`
	BlueprintID string    `gorm:"type:text;not null" json:"blueprint_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for PipelineRun.
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// JobEvent is one append-only audit log entry. Rows are never updated
// or deleted.
type JobEvent struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	JobID     string    `gorm:"type:text;not null;index" json:"job_id"`
	JobType   string    `gorm:"type:text;not null" json:"job_type"`
	Status    string    `gorm:"type:text" json:"status"`
	Message   string    `gorm:"type:text" json:"message"`
	Payload   JSONMap   `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for JobEvent.
func (JobEvent) TableName() string {
	return "job_event_log"
}
