package repository

import (
	"context"

	"github.com/rankforge/rankforge/internal/domain"
	"gorm.io/gorm"
)

// DefaultSampleLimit caps a single training collection query.
const DefaultSampleLimit = 10000

// SampleRepository reads verified, labeled training samples. The
// pipeline never writes to this table; the upstream analytics crawl
// owns it.
type SampleRepository struct {
	db *gorm.DB
}

// NewSampleRepository creates a new SampleRepository.
func NewSampleRepository(db *gorm.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Collect returns verified samples with effectiveness at or above the
// threshold, newest first, capped at limit (DefaultSampleLimit when
// limit <= 0). An empty result is not an error; callers own their own
// minimum-sample precondition checks.
func (r *SampleRepository) Collect(ctx context.Context, minEffectiveness float64, limit int) ([]domain.TrainingSample, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	samples := make([]domain.TrainingSample, 0)
	err := r.db.WithContext(ctx).
		Where("verified = ? AND effectiveness_score >= ?", true, minEffectiveness).
		Order("created_at DESC").
		Limit(limit).
		Find(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// Create inserts a sample row. Only used by tests and backfill tooling;
// production rows arrive from the analytics pipeline.
func (r *SampleRepository) Create(ctx context.Context, sample *domain.TrainingSample) error {
	return r.db.WithContext(ctx).Create(sample).Error
}

// Count returns the number of verified samples at or above the threshold.
func (r *SampleRepository) Count(ctx context.Context, minEffectiveness float64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TrainingSample{}).
		Where("verified = ? AND effectiveness_score >= ?", true, minEffectiveness).
		Count(&count).Error
	return count, err
}
