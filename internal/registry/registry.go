// Package registry owns the model lifecycle after training: activation
// with the at-most-one-active invariant, and the in-process cache of
// live model instances that inference reads from.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/rankforge/rankforge/internal/artifact"
	"github.com/rankforge/rankforge/internal/domain"
	"github.com/rankforge/rankforge/internal/logger"
	"github.com/rankforge/rankforge/internal/nn"
)

// ModelSource is the persistence surface the registry drives.
type ModelSource interface {
	Activate(ctx context.Context, id string) (*domain.Model, error)
	ListActive(ctx context.Context) ([]domain.Model, error)
	GetByID(ctx context.Context, id string) (*domain.Model, error)
}

// ActiveModel is one live, cached model instance together with the
// preprocessing state inference needs. Callers must re-fetch from the
// registry on every call rather than holding a reference across an
// activation boundary.
type ActiveModel struct {
	Record       domain.Model
	Net          *nn.Network
	FeatureNames []string
	Means        []float64
	Stds         []float64
	Vocabulary   []string
	Threshold    float64
}

// Registry caches exactly one live model instance per model type and
// swaps them race-free under concurrent inference reads.
type Registry struct {
	models ModelSource
	store  artifact.Store
	log    *logger.Logger

	mu    sync.RWMutex
	cache map[domain.ModelType]*ActiveModel
}

// New creates a Registry with an empty cache.
func New(models ModelSource, store artifact.Store, log *logger.Logger) *Registry {
	return &Registry{
		models: models,
		store:  store,
		log:    log.WithField(logger.FieldComponent, "registry"),
		cache:  make(map[domain.ModelType]*ActiveModel),
	}
}

// Activate transitions the target model to active (archiving the prior
// active of the same type in one transaction) and swaps its weights
// into the cache, releasing the replaced instance.
func (r *Registry) Activate(ctx context.Context, id string) (*domain.Model, error) {
	model, err := r.models.Activate(ctx, id)
	if err != nil {
		return nil, err
	}

	active, err := r.load(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("model %s activated but failed to load: %w", id, err)
	}
	r.swap(model.Type, active)

	r.log.WithFields(logger.Fields{
		logger.FieldModelID:   model.ID,
		logger.FieldModelType: model.Type,
		"version":             model.Version,
	}).Info("Activated model")

	return model, nil
}

// LoadActiveModels loads every active model's weights into the cache.
// Models that cannot be loaded are skipped with a warning so the
// registry stays usable for the types that did load.
func (r *Registry) LoadActiveModels(ctx context.Context) error {
	models, err := r.models.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active models: %w", err)
	}

	for i := range models {
		model := models[i]
		active, err := r.load(ctx, &model)
		if err != nil {
			r.log.WithFields(logger.Fields{
				logger.FieldModelID:   model.ID,
				logger.FieldModelType: model.Type,
			}).WithError(err).Warn("Skipping active model that failed to load")
			continue
		}
		r.swap(model.Type, active)
		r.log.WithFields(logger.Fields{
			logger.FieldModelID:   model.ID,
			logger.FieldModelType: model.Type,
		}).Info("Loaded active model")
	}
	return nil
}

// Active returns the live cached model for a type, if any.
func (r *Registry) Active(t domain.ModelType) (*ActiveModel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.cache[t]
	return m, ok
}

// swap replaces the cached instance for a type, releasing the old one.
func (r *Registry) swap(t domain.ModelType, next *ActiveModel) {
	r.mu.Lock()
	prev := r.cache[t]
	r.cache[t] = next
	r.mu.Unlock()

	if prev != nil && prev.Net != nil {
		prev.Net.Release()
	}
}

// load fetches a model's bundle and rebuilds its network and
// preprocessing state from the persisted hyperparameters.
func (r *Registry) load(ctx context.Context, model *domain.Model) (*ActiveModel, error) {
	if model.Path == "" {
		return nil, fmt.Errorf("model %s has no artifact path", model.ID)
	}
	bundle, err := artifact.LoadBundle(ctx, r.store, model.Path)
	if err != nil {
		return nil, err
	}
	net, err := nn.Restore(bundle.Snapshot)
	if err != nil {
		return nil, err
	}

	active := &ActiveModel{
		Record:       *model,
		Net:          net,
		FeatureNames: toStringSlice(model.Hyperparameters[domain.HyperFeatureNames]),
		Means:        toFloatSlice(model.Hyperparameters[domain.HyperFeatureMeans]),
		Stds:         toFloatSlice(model.Hyperparameters[domain.HyperFeatureStds]),
		Vocabulary:   toStringSlice(model.Hyperparameters[domain.HyperVocabulary]),
		Threshold:    toFloat(model.Hyperparameters[domain.HyperThreshold]),
	}
	return active, nil
}

// Hyperparameter values arrive either freshly typed (same process) or
// as generic JSON shapes after a database round trip.

func toStringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toFloatSlice(v interface{}) []float64 {
	switch vals := v.(type) {
	case []float64:
		return vals
	case []interface{}:
		out := make([]float64, 0, len(vals))
		for _, item := range vals {
			if f, ok := item.(float64); ok {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}

func toFloat(v interface{}) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
