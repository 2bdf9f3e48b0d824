package repository

import (
	"context"

	"github.com/rankforge/rankforge/internal/domain"
	"gorm.io/gorm"
)

// BlueprintRepository persists mined blueprints. The pipeline stores
// and fetches blueprint trees but never interprets their content.
type BlueprintRepository struct {
	db *gorm.DB
}

// NewBlueprintRepository creates a new BlueprintRepository.
func NewBlueprintRepository(db *gorm.DB) *BlueprintRepository {
	return &BlueprintRepository{db: db}
}

// SaveTree inserts a blueprint with all of its atoms, components, and
// dashboards in one transaction. Any failure rolls back the whole tree.
func (r *BlueprintRepository) SaveTree(
	ctx context.Context,
	bp *domain.Blueprint,
	atoms []domain.BlueprintAtom,
	components []domain.BlueprintComponent,
	dashboards []domain.BlueprintDashboard,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bp).Error; err != nil {
			return err
		}
		if len(atoms) > 0 {
			if err := tx.Create(&atoms).Error; err != nil {
				return err
			}
		}
		if len(components) > 0 {
			if err := tx.Create(&components).Error; err != nil {
				return err
			}
		}
		if len(dashboards) > 0 {
			if err := tx.Create(&dashboards).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a blueprint header row by id.
func (r *BlueprintRepository) GetByID(ctx context.Context, id string) (*domain.Blueprint, error) {
	var bp domain.Blueprint
	if err := r.db.WithContext(ctx).First(&bp, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &bp, nil
}

// Atoms returns a blueprint's atoms in mined order.
func (r *BlueprintRepository) Atoms(ctx context.Context, blueprintID string) ([]domain.BlueprintAtom, error) {
	atoms := make([]domain.BlueprintAtom, 0)
	err := r.db.WithContext(ctx).
		Where("blueprint_id = ?", blueprintID).
		Order("position ASC").
		Find(&atoms).Error
	if err != nil {
		return nil, err
	}
	return atoms, nil
}
