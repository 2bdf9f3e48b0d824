package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rankforge/rankforge/internal/domain"
	"gorm.io/gorm"
)

// EventRepository appends to the job event log. The log is write-only:
// there are deliberately no update or delete methods.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append writes one audit entry.
func (r *EventRepository) Append(ctx context.Context, jobID, jobType, status, message string, payload domain.JSONMap) error {
	ev := &domain.JobEvent{
		ID:      uuid.NewString(),
		JobID:   jobID,
		JobType: jobType,
		Status:  status,
		Message: message,
		Payload: payload,
	}
	return r.db.WithContext(ctx).Create(ev).Error
}

// ForJob returns a job's events oldest first, for audit reads.
func (r *EventRepository) ForJob(ctx context.Context, jobID string) ([]domain.JobEvent, error) {
	events := make([]domain.JobEvent, 0)
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
