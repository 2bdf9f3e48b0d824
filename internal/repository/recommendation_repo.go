package repository

import (
	"context"

	"github.com/rankforge/rankforge/internal/domain"
	"gorm.io/gorm"
)

// RecommendationRepository writes immutable inference audit records.
type RecommendationRepository struct {
	db *gorm.DB
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Create inserts one recommendation record.
func (r *RecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ForURL returns recent recommendations for a URL, newest first.
func (r *RecommendationRepository) ForURL(ctx context.Context, url string, limit int) ([]domain.Recommendation, error) {
	recs := make([]domain.Recommendation, 0)
	q := r.db.WithContext(ctx).Where("url = ?", url).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
