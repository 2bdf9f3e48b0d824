package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rankforge/rankforge/internal/domain"
)

func TestBlueprintRepository_SaveTree(t *testing.T) {
	repo := NewBlueprintRepository(testDB(t))
	ctx := context.Background()

	bp := domain.Blueprint{
		ID:    uuid.NewString(),
		JobID: "job-1",
		Title: "Running shoes",
		Topic: "running",
	}
	atoms := []domain.BlueprintAtom{
		{ID: uuid.NewString(), BlueprintID: bp.ID, Kind: "keyword", Content: "shoes", Weight: 1, Position: 1},
		{ID: uuid.NewString(), BlueprintID: bp.ID, Kind: "keyword", Content: "running", Weight: 0.5, Position: 0},
	}
	components := []domain.BlueprintComponent{
		{ID: uuid.NewString(), BlueprintID: bp.ID, Kind: "body", AtomIDs: domain.StringArray{atoms[0].ID, atoms[1].ID}},
	}
	dashboards := []domain.BlueprintDashboard{
		{ID: uuid.NewString(), BlueprintID: bp.ID, Layout: "landing", ComponentIDs: domain.StringArray{components[0].ID}},
	}

	if err := repo.SaveTree(ctx, &bp, atoms, components, dashboards); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, bp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Running shoes" {
		t.Errorf("expected title preserved, got %q", got.Title)
	}

	stored, err := repo.Atoms(ctx, bp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 atoms, got %d", len(stored))
	}
	if stored[0].Content != "running" || stored[1].Content != "shoes" {
		t.Errorf("expected atoms ordered by position, got [%s %s]", stored[0].Content, stored[1].Content)
	}
}

func TestBlueprintRepository_SaveTree_RollsBack(t *testing.T) {
	repo := NewBlueprintRepository(testDB(t))
	ctx := context.Background()

	bp := domain.Blueprint{ID: uuid.NewString(), JobID: "job-1", Title: "t", Topic: "t"}
	// Duplicate atom ids violate the primary key and abort the transaction.
	dup := uuid.NewString()
	atoms := []domain.BlueprintAtom{
		{ID: dup, BlueprintID: bp.ID, Kind: "keyword", Content: "a"},
		{ID: dup, BlueprintID: bp.ID, Kind: "keyword", Content: "b"},
	}

	if err := repo.SaveTree(ctx, &bp, atoms, nil, nil); err == nil {
		t.Fatal("expected primary key violation")
	}

	// The header row must not survive the failed tree insert.
	if _, err := repo.GetByID(ctx, bp.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after rollback, got %v", err)
	}
}

func TestEventRepository_AppendAndRead(t *testing.T) {
	repo := NewEventRepository(testDB(t))
	ctx := context.Background()

	for _, status := range []string{"queued", "running", "completed"} {
		if err := repo.Append(ctx, "job-1", "mining", status, "msg", domain.JSONMap{"status": status}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := repo.Append(ctx, "job-2", "training", "queued", "other", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := repo.ForJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events for job-1, got %d", len(events))
	}
	if events[0].Status != "queued" || events[2].Status != "completed" {
		t.Errorf("expected oldest-first order, got [%s .. %s]", events[0].Status, events[2].Status)
	}
}

func TestRecommendationRepository_ForURL(t *testing.T) {
	repo := NewRecommendationRepository(testDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := domain.Recommendation{
			ID:           uuid.NewString(),
			ClientID:     "client-1",
			URL:          "https://example.com",
			ModelID:      "m-1",
			ModelVersion: "v1",
			Kind:         domain.RecommendationSchemaTypes,
			Payload:      domain.JSONMap{"i": i},
		}
		if err := repo.Create(ctx, &rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	recs, err := repo.ForURL(ctx, "https://example.com", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected limit 2, got %d", len(recs))
	}

	recs, err = repo.ForURL(ctx, "https://other.com", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no recommendations for other url, got %d", len(recs))
	}
}
