package feature

import (
	"math"
	"math/rand"
	"testing"
)

func TestZScore(t *testing.T) {
	batch := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
		{4, 40, 5},
	}

	normalized, means, stds := ZScore(batch)

	if len(normalized) != len(batch) {
		t.Fatalf("expected %d rows, got %d", len(batch), len(normalized))
	}

	// Each non-constant column must come out with mean ~0 and std ~1.
	for j := 0; j < 2; j++ {
		sum := 0.0
		for i := range normalized {
			sum += normalized[i][j]
		}
		mean := sum / float64(len(normalized))
		if math.Abs(mean) > 1e-9 {
			t.Errorf("column %d: expected mean ~0, got %v", j, mean)
		}

		variance := 0.0
		for i := range normalized {
			variance += normalized[i][j] * normalized[i][j]
		}
		variance /= float64(len(normalized))
		if math.Abs(math.Sqrt(variance)-1) > 1e-9 {
			t.Errorf("column %d: expected std ~1, got %v", j, math.Sqrt(variance))
		}
	}

	// Constant column: std clamps to 1 and values normalize to zero.
	if stds[2] != 1 {
		t.Errorf("constant column: expected std 1, got %v", stds[2])
	}
	for i := range normalized {
		if normalized[i][2] != 0 {
			t.Errorf("constant column row %d: expected 0, got %v", i, normalized[i][2])
		}
	}

	if means[0] != 2.5 || means[1] != 25 || means[2] != 5 {
		t.Errorf("unexpected means: %v", means)
	}
}

func TestZScore_Empty(t *testing.T) {
	normalized, means, stds := ZScore(nil)
	if normalized != nil || means != nil || stds != nil {
		t.Error("expected all-nil result for empty batch")
	}
}

func TestApplyZScore_RoundTrip(t *testing.T) {
	batch := [][]float64{
		{1, 100},
		{3, 300},
		{5, 500},
	}
	normalized, means, stds := ZScore(batch)

	for i, row := range batch {
		got := ApplyZScore(row, means, stds)
		for j := range got {
			if math.Abs(got[j]-normalized[i][j]) > 1e-12 {
				t.Errorf("row %d col %d: batch gave %v, single-vector gave %v", i, j, normalized[i][j], got[j])
			}
		}
	}
}

func TestApplyZScore_MissingStats(t *testing.T) {
	// Stats shorter than the vector leave the tail untouched.
	got := ApplyZScore([]float64{10, 20, 30}, []float64{5}, []float64{5})
	if got[0] != 1 {
		t.Errorf("expected normalized 1, got %v", got[0])
	}
	if got[1] != 20 || got[2] != 30 {
		t.Errorf("expected passthrough for unmatched positions, got %v", got)
	}
}

func TestBuildVocabulary(t *testing.T) {
	labelSets := [][]string{
		{"Article", "Organization"},
		{"Article", "Product"},
		{"Product", "Article"},
		{"FAQPage"},
	}

	tests := []struct {
		name     string
		max      int
		expected []string
	}{
		{
			name:     "frequency order with first-seen tiebreak",
			max:      0,
			expected: []string{"Article", "Product", "Organization", "FAQPage"},
		},
		{
			name:     "truncated to max",
			max:      2,
			expected: []string{"Article", "Product"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildVocabulary(labelSets, tt.max)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("expected %v, got %v", tt.expected, got)
				}
			}
		})
	}
}

func TestLabelsToVector(t *testing.T) {
	vocab := []string{"Article", "Product", "FAQPage"}

	got := LabelsToVector([]string{"Product", "Unknown", "Article"}, vocab)
	if len(got) != len(vocab) {
		t.Fatalf("expected length %d, got %d", len(vocab), len(got))
	}
	expected := []float64{1, 1, 0}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], got[i])
		}
	}
}

func TestSplitIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	train, val := SplitIndices(10, 0.2, rng)

	if len(val) != 2 {
		t.Errorf("expected 2 validation indices, got %d", len(val))
	}
	if len(train) != 8 {
		t.Errorf("expected 8 training indices, got %d", len(train))
	}

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), val...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	for i := 0; i < 10; i++ {
		if !seen[i] {
			t.Errorf("index %d missing from split", i)
		}
	}
}

func TestSplitIndices_SmallN(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// Even a tiny set keeps at least one validation row.
	train, val := SplitIndices(3, 0.1, rng)
	if len(val) != 1 {
		t.Errorf("expected minimum 1 validation index, got %d", len(val))
	}
	if len(train) != 2 {
		t.Errorf("expected 2 training indices, got %d", len(train))
	}

	// A single row stays in training.
	train, val = SplitIndices(1, 0.2, rand.New(rand.NewSource(1)))
	if len(val) != 0 || len(train) != 1 {
		t.Errorf("expected single row to stay in training, got train=%d val=%d", len(train), len(val))
	}
}

func TestSplitIndices_Deterministic(t *testing.T) {
	a1, b1 := SplitIndices(20, 0.25, rand.New(rand.NewSource(7)))
	a2, b2 := SplitIndices(20, 0.25, rand.New(rand.NewSource(7)))

	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("same seed produced different training split")
		}
	}
	for i := range b1 {
		if b1[i] != b2[i] {
			t.Fatal("same seed produced different validation split")
		}
	}
}
