// Package inference serves predictions from the registry's active
// models. The two calls carry deliberately different contracts:
// ranking-improvement prediction is advisory and degrades to a neutral
// 0.0, while schema suggestion is a primary feature and fails loudly.
package inference

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rankforge/rankforge/internal/domain"
	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/logger"
	"github.com/rankforge/rankforge/internal/nn"
	"github.com/rankforge/rankforge/internal/registry"
	"github.com/rankforge/rankforge/internal/training"
)

// ErrNoActiveModel is returned by SuggestSchemaTypes when no classifier
// is cached.
var ErrNoActiveModel = errors.New("no active model cached")

// ErrNoFeatures is returned when the target has no feature data at all.
var ErrNoFeatures = errors.New("no feature data for target")

// MaxSuggestions caps the schema suggestion list.
const MaxSuggestions = 8

// RecommendationSink persists the immutable audit record each inference
// call produces.
type RecommendationSink interface {
	Create(ctx context.Context, rec *domain.Recommendation) error
}

// SchemaSuggestion pairs a vocabulary label with its sigmoid score.
type SchemaSuggestion struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Engine runs single-vector inference against the cached active models.
type Engine struct {
	registry *registry.Registry
	recs     RecommendationSink
	catalog  *feature.Catalog
	log      *logger.Logger
}

// NewEngine creates an inference Engine.
func NewEngine(reg *registry.Registry, recs RecommendationSink, catalog *feature.Catalog, log *logger.Logger) *Engine {
	return &Engine{
		registry: reg,
		recs:     recs,
		catalog:  catalog,
		log:      log.WithField(logger.FieldComponent, "inference"),
	}
}

// PredictRankingImprovement predicts the expected ranking gain for a
// page described by named metrics. The prediction is advisory: with no
// cached regressor the call returns a neutral 0.0 and no error.
func (e *Engine) PredictRankingImprovement(ctx context.Context, clientID, url string, metrics map[string]float64) (float64, error) {
	active, ok := e.registry.Active(domain.ModelTypeRankingRegressor)
	if !ok {
		return 0, nil
	}

	names := active.FeatureNames
	if len(names) == 0 {
		names = e.catalog.Names()
	}
	vec := feature.AlignVector(metrics, names)
	vec = feature.ApplyZScore(vec, active.Means, active.Stds)

	out, err := active.Net.Predict(vec)
	if err != nil {
		if errors.Is(err, nn.ErrReleased) {
			// Lost a swap race; the caller re-fetches on the next call.
			return 0, nil
		}
		return 0, fmt.Errorf("regressor forward pass failed: %w", err)
	}
	prediction := out[0]

	e.record(ctx, clientID, url, &active.Record, domain.RecommendationRankingImprovement, domain.JSONMap{
		"metrics":    metrics,
		"prediction": prediction,
	})
	return prediction, nil
}

// SuggestSchemaTypes ranks candidate schema.org types for a page. This
// is a primary feature: a missing classifier or missing input features
// is an explicit error, never a silent empty result.
func (e *Engine) SuggestSchemaTypes(ctx context.Context, clientID, url string, metrics map[string]float64) ([]SchemaSuggestion, error) {
	if len(metrics) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFeatures, url)
	}
	active, ok := e.registry.Active(domain.ModelTypeSchemaClassifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveModel, domain.ModelTypeSchemaClassifier)
	}

	names := active.FeatureNames
	if len(names) == 0 {
		names = e.catalog.Names()
	}
	vec := feature.AlignVector(metrics, names)

	scores, err := active.Net.Predict(vec)
	if err != nil {
		return nil, fmt.Errorf("classifier forward pass failed: %w", err)
	}

	threshold := active.Threshold
	if threshold <= 0 {
		threshold = training.DefaultThreshold
	}

	suggestions := make([]SchemaSuggestion, 0, MaxSuggestions)
	for i, score := range scores {
		if i >= len(active.Vocabulary) {
			break
		}
		if score >= threshold {
			suggestions = append(suggestions, SchemaSuggestion{Label: active.Vocabulary[i], Score: score})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}

	payload := domain.JSONMap{"metrics": metrics, "suggestions": suggestions, "threshold": threshold}
	if err := e.recs.Create(ctx, &domain.Recommendation{
		ID:           uuid.NewString(),
		ClientID:     clientID,
		URL:          url,
		ModelID:      active.Record.ID,
		ModelVersion: active.Record.Version,
		Kind:         domain.RecommendationSchemaTypes,
		Payload:      payload,
	}); err != nil {
		return nil, fmt.Errorf("failed to record recommendation: %w", err)
	}

	return suggestions, nil
}

// record writes the audit row for an advisory prediction. Failures are
// logged, not surfaced, matching the advisory contract.
func (e *Engine) record(ctx context.Context, clientID, url string, model *domain.Model, kind domain.RecommendationKind, payload domain.JSONMap) {
	err := e.recs.Create(ctx, &domain.Recommendation{
		ID:           uuid.NewString(),
		ClientID:     clientID,
		URL:          url,
		ModelID:      model.ID,
		ModelVersion: model.Version,
		Kind:         kind,
		Payload:      payload,
	})
	if err != nil {
		e.log.WithField("url", url).WithError(err).Warn("Failed to record recommendation")
	}
}
