// Package feature owns the canonical feature layout and the numeric
// preprocessing shared by training and inference. Every model and every
// sample agrees on vector ordering through the Catalog.
package feature

import (
	"sort"

	"github.com/rankforge/rankforge/internal/domain"
)

// CatalogVersion tags the current feature layout. Bump when names are
// added, removed, or reordered.
const CatalogVersion = "2.3.0"

// catalogNames is the canonical ordered feature list. Order is part of
// the contract: vectors are laid out in exactly this sequence.
var catalogNames = []string{
	"content_word_count",
	"content_paragraph_count",
	"content_sentence_count",
	"avg_sentence_length",
	"content_readability_score",
	"content_quality_score",
	"title_char_count",
	"title_word_count",
	"meta_char_count",
	"meta_word_count",
	"heading_count",
	"h1_count",
	"image_count",
	"image_alt_ratio",
	"internal_link_count",
	"external_link_count",
	"dofollow_ratio",
	"url_length",
	"url_param_count",
	"page_load_ms",
	"lcp_ms",
	"cls_score",
	"authority_score",
	"citation_count",
	"question_density",
	"technical_health_score",
}

// Catalog is the single source of truth for feature ordering and version.
type Catalog struct {
	names   []string
	version string
}

// NewCatalog returns the current catalog.
func NewCatalog() *Catalog {
	return &Catalog{names: catalogNames, version: CatalogVersion}
}

// Names returns the ordered feature name list. Callers must not mutate it.
func (c *Catalog) Names() []string {
	return c.names
}

// Version returns the catalog version tag.
func (c *Catalog) Version() string {
	return c.version
}

// Dim returns the vector width.
func (c *Catalog) Dim() int {
	return len(c.names)
}

// AlignVector converts named metrics into a dense vector following the
// given name order. Missing names contribute 0.0; extra keys are
// ignored. The output length always equals len(names).
func AlignVector(metrics map[string]float64, names []string) []float64 {
	vec := make([]float64, len(names))
	for i, name := range names {
		if v, ok := metrics[name]; ok {
			vec[i] = v
		}
	}
	return vec
}

// DerivePayload extracts the usable (vector, names, version) triple from
// a stored sample. Historical rows may predate the current catalog, so
// the fallback chain tolerates drift instead of rejecting old data:
//
//  1. stored vector whose length matches the current catalog;
//  2. stored named metrics re-aligned to the current catalog order;
//  3. whatever names the row carries, in stable sorted order.
func (c *Catalog) DerivePayload(s *domain.TrainingSample) ([]float64, []string, string) {
	if len(s.FeatureVector) == c.Dim() {
		return []float64(s.FeatureVector), c.names, c.version
	}

	if len(s.FeatureNames) > 0 && len(s.FeatureVector) == len(s.FeatureNames) {
		metrics := make(map[string]float64, len(s.FeatureNames))
		for i, name := range s.FeatureNames {
			metrics[name] = s.FeatureVector[i]
		}
		return AlignVector(metrics, c.names), c.names, c.version
	}

	// Last resort: keep whatever the row has, under its own version tag.
	if len(s.FeatureNames) > 0 {
		names := append([]string(nil), s.FeatureNames...)
		sort.Strings(names)
		metrics := make(map[string]float64, len(names))
		for i, name := range s.FeatureNames {
			if i < len(s.FeatureVector) {
				metrics[name] = s.FeatureVector[i]
			}
		}
		version := s.FeatureVersion
		if version == "" {
			version = "unknown"
		}
		return AlignVector(metrics, names), names, version
	}

	return make([]float64, c.Dim()), c.names, c.version
}
