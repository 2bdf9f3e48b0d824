package pipeline

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rankforge/rankforge/internal/domain"
)

// MinedBlueprint is the in-memory blueprint tree produced by mining,
// before persistence. Downstream stages read it; nothing interprets the
// content beyond structural checks.
type MinedBlueprint struct {
	Blueprint  domain.Blueprint
	Atoms      []domain.BlueprintAtom
	Components []domain.BlueprintComponent
	Dashboards []domain.BlueprintDashboard
}

// Miner derives a content blueprint from a prompt. Mining is one
// synchronous step executed before the first stage, not a stage itself.
type Miner struct{}

// NewMiner creates a Miner.
func NewMiner() *Miner {
	return &Miner{}
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "for": true,
	"of": true, "to": true, "in": true, "on": true, "with": true,
	"is": true, "are": true, "that": true, "this": true,
}

// Mine extracts a deterministic blueprint tree from the prompt text:
// keyword atoms weighted by frequency, grouped into title/meta/body
// components, mapped onto a single landing dashboard.
func (m *Miner) Mine(jobID, prompt string) *MinedBlueprint {
	bp := domain.Blueprint{
		ID:    uuid.NewString(),
		JobID: jobID,
		Title: deriveTitle(prompt),
		Topic: deriveTopic(prompt),
	}

	words := tokenize(prompt)
	freq := make(map[string]int)
	order := make([]string, 0, len(words))
	for _, w := range words {
		if stopwords[w] || len(w) < 3 {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	maxFreq := 1
	for _, c := range freq {
		if c > maxFreq {
			maxFreq = c
		}
	}

	atoms := make([]domain.BlueprintAtom, 0, len(order)+1)
	for i, w := range order {
		atoms = append(atoms, domain.BlueprintAtom{
			ID:          uuid.NewString(),
			BlueprintID: bp.ID,
			Kind:        "keyword",
			Content:     w,
			Weight:      float64(freq[w]) / float64(maxFreq),
			Position:    i,
		})
	}
	heading := domain.BlueprintAtom{
		ID:          uuid.NewString(),
		BlueprintID: bp.ID,
		Kind:        "heading",
		Content:     bp.Title,
		Weight:      1,
		Position:    len(atoms),
	}
	atoms = append(atoms, heading)

	components := assembleComponents(bp.ID, atoms)

	componentIDs := make(domain.StringArray, 0, len(components))
	for _, c := range components {
		componentIDs = append(componentIDs, c.ID)
	}
	dashboards := []domain.BlueprintDashboard{{
		ID:           uuid.NewString(),
		BlueprintID:  bp.ID,
		Layout:       "landing",
		ComponentIDs: componentIDs,
	}}

	return &MinedBlueprint{
		Blueprint:  bp,
		Atoms:      atoms,
		Components: components,
		Dashboards: dashboards,
	}
}

// assembleComponents groups atoms into title, meta, and body components.
func assembleComponents(blueprintID string, atoms []domain.BlueprintAtom) []domain.BlueprintComponent {
	var headingIDs, keywordIDs domain.StringArray
	for _, a := range atoms {
		if a.Kind == "heading" {
			headingIDs = append(headingIDs, a.ID)
		} else {
			keywordIDs = append(keywordIDs, a.ID)
		}
	}

	components := []domain.BlueprintComponent{
		{
			ID:          uuid.NewString(),
			BlueprintID: blueprintID,
			Kind:        "title",
			AtomIDs:     headingIDs,
			Position:    0,
		},
		{
			ID:          uuid.NewString(),
			BlueprintID: blueprintID,
			Kind:        "meta",
			AtomIDs:     capIDs(keywordIDs, 5),
			Position:    1,
		},
		{
			ID:          uuid.NewString(),
			BlueprintID: blueprintID,
			Kind:        "body",
			AtomIDs:     keywordIDs,
			Position:    2,
		},
	}
	return components
}

func capIDs(ids domain.StringArray, max int) domain.StringArray {
	if len(ids) <= max {
		return ids
	}
	return ids[:max]
}

func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
}

// deriveTitle keeps the prompt's first clause as a working title.
func deriveTitle(prompt string) string {
	trimmed := strings.TrimSpace(prompt)
	for _, sep := range []string{".", "\n", ";"} {
		if i := strings.Index(trimmed, sep); i > 0 {
			trimmed = trimmed[:i]
			break
		}
	}
	if len(trimmed) > 120 {
		trimmed = trimmed[:120]
	}
	return trimmed
}

// deriveTopic picks the first non-stopword token.
func deriveTopic(prompt string) string {
	for _, w := range tokenize(prompt) {
		if !stopwords[w] && len(w) >= 3 {
			return w
		}
	}
	return "general"
}
