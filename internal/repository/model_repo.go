package repository

import (
	"context"
	"time"

	"github.com/rankforge/rankforge/internal/domain"
	"gorm.io/gorm"
)

// ModelRepository persists model versions and drives their lifecycle.
// Rows are created as testing, transitioned to active or archived, and
// never deleted.
type ModelRepository struct {
	db *gorm.DB
}

// NewModelRepository creates a new ModelRepository.
func NewModelRepository(db *gorm.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// Create inserts a new model version. The trainer always registers
// models as testing; activation is a separate explicit step.
func (r *ModelRepository) Create(ctx context.Context, model *domain.Model) error {
	if model.Status == "" {
		model.Status = domain.ModelStatusTesting
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// GetByID retrieves a model by its ID.
func (r *ModelRepository) GetByID(ctx context.Context, id string) (*domain.Model, error) {
	var model domain.Model
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &model, nil
}

// ActiveByType returns the single active model of the given type.
func (r *ModelRepository) ActiveByType(ctx context.Context, t domain.ModelType) (*domain.Model, error) {
	var model domain.Model
	err := r.db.WithContext(ctx).
		First(&model, "type = ? AND status = ?", t, domain.ModelStatusActive).Error
	if err != nil {
		return nil, translate(err)
	}
	return &model, nil
}

// ListActive returns every active model across all types.
func (r *ModelRepository) ListActive(ctx context.Context) ([]domain.Model, error) {
	models := make([]domain.Model, 0)
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.ModelStatusActive).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}

// List returns model rows of the given type, newest first.
func (r *ModelRepository) List(ctx context.Context, t domain.ModelType, limit int) ([]domain.Model, error) {
	models := make([]domain.Model, 0)
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if t != "" {
		q = q.Where("type = ?", t)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

// Activate archives the currently active model of the target's type and
// marks the target active, in one transaction. The at-most-one-active
// invariant holds for any interleaving of activations because both
// updates commit or neither does.
func (r *ModelRepository) Activate(ctx context.Context, id string) (*domain.Model, error) {
	var model domain.Model
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		if err := tx.Model(&domain.Model{}).
			Where("type = ? AND status = ? AND id <> ?", model.Type, domain.ModelStatusActive, model.ID).
			Update("status", domain.ModelStatusArchived).Error; err != nil {
			return err
		}

		now := time.Now()
		model.Status = domain.ModelStatusActive
		model.DeployedAt = &now
		return tx.Model(&model).
			Updates(map[string]interface{}{"status": domain.ModelStatusActive, "deployed_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return &model, nil
}
