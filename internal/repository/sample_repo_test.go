package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rankforge/rankforge/internal/domain"
)

func TestSampleRepository_Collect(t *testing.T) {
	repo := NewSampleRepository(testDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	rows := []domain.TrainingSample{
		{ID: "s1", URL: "https://a", Verified: true, EffectivenessScore: 0.9, CreatedAt: base},
		{ID: "s2", URL: "https://b", Verified: true, EffectivenessScore: 0.5, CreatedAt: base.Add(time.Minute)},
		{ID: "s3", URL: "https://c", Verified: true, EffectivenessScore: 0.4, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "s4", URL: "https://d", Verified: false, EffectivenessScore: 0.9, CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range rows {
		if err := repo.Create(ctx, &rows[i]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Unverified rows and rows below the threshold are excluded; the
	// threshold itself is inclusive.
	samples, err := repo.Collect(ctx, 0.5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].ID != "s2" || samples[1].ID != "s1" {
		t.Errorf("expected newest first [s2 s1], got [%s %s]", samples[0].ID, samples[1].ID)
	}
}

func TestSampleRepository_Collect_Empty(t *testing.T) {
	repo := NewSampleRepository(testDB(t))

	samples, err := repo.Collect(context.Background(), 0.5, 0)
	if err != nil {
		t.Fatalf("empty result must not be an error, got %v", err)
	}
	if samples == nil || len(samples) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", samples)
	}
}

func TestSampleRepository_Collect_Limit(t *testing.T) {
	repo := NewSampleRepository(testDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s := domain.TrainingSample{
			ID:                 fmt.Sprintf("s%d", i),
			URL:                "https://example.com",
			Verified:           true,
			EffectivenessScore: 0.8,
			CreatedAt:          time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	samples, err := repo.Collect(ctx, 0.5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Errorf("expected limit of 3, got %d", len(samples))
	}

	count, err := repo.Count(ctx, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Errorf("expected count 5, got %d", count)
	}
}
