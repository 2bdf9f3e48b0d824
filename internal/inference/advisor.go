package inference

import (
	"context"
	"fmt"
)

// MetricsSource supplies per-URL named metrics, normally the analytics
// crawl collaborator.
type MetricsSource interface {
	PageMetrics(ctx context.Context, url string) (map[string]float64, error)
}

// Advice bundles both model outputs for one URL.
type Advice struct {
	URL                string             `json:"url"`
	RankingImprovement float64            `json:"ranking_improvement"`
	SchemaTypes        []SchemaSuggestion `json:"schema_types"`
}

// Advisor ties the crawl collaborator to the inference engine: fetch a
// page's metrics once, run both predictions.
type Advisor struct {
	engine  *Engine
	metrics MetricsSource
}

// NewAdvisor creates an Advisor.
func NewAdvisor(engine *Engine, metrics MetricsSource) *Advisor {
	return &Advisor{engine: engine, metrics: metrics}
}

// Advise fetches metrics for the URL and runs both inference calls.
// Schema suggestion errors propagate; the ranking prediction keeps its
// advisory zero-default behavior.
func (a *Advisor) Advise(ctx context.Context, clientID, url string) (*Advice, error) {
	metrics, err := a.metrics.PageMetrics(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page metrics: %w", err)
	}

	improvement, err := a.engine.PredictRankingImprovement(ctx, clientID, url, metrics)
	if err != nil {
		return nil, err
	}
	suggestions, err := a.engine.SuggestSchemaTypes(ctx, clientID, url, metrics)
	if err != nil {
		return nil, err
	}

	return &Advice{
		URL:                url,
		RankingImprovement: improvement,
		SchemaTypes:        suggestions,
	}, nil
}
