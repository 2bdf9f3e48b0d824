package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/rankforge/rankforge/internal/domain"
)

func TestJobRepository_MiningJobLifecycle(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	job, err := repo.CreateMiningJob(ctx, "build a landing page for solar panels", "wf-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != domain.JobStatusQueued {
		t.Errorf("expected queued, got %s", job.Status)
	}

	if err := repo.MarkMiningJobRunning(ctx, job.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := repo.GetMiningJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.JobStatusRunning {
		t.Errorf("expected running, got %s", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("expected started_at to be stamped")
	}

	if err := repo.MarkMiningJobFailed(ctx, job.ID, errors.New("stage blew up")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = repo.GetMiningJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.JobStatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.Error != "stage blew up" {
		t.Errorf("expected error message recorded, got %q", got.Error)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at on terminal status")
	}
}

func TestJobRepository_StageJobsOrdered(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	job, err := repo.CreateMiningJob(ctx, "prompt", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Insert out of sequence order on purpose.
	for _, s := range []struct {
		stage string
		seq   int
	}{
		{"dashboard_mapping", 3},
		{"atom_extraction", 1},
		{"component_assembly", 2},
	} {
		sj, err := repo.CreateStageJob(ctx, job.ID, s.stage, s.seq)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := repo.CompleteStageJob(ctx, sj.ID, domain.JSONMap{"ok": true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stages, err := repo.StageJobs(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(stages))
	}
	expected := []string{"atom_extraction", "component_assembly", "dashboard_mapping"}
	for i, stage := range stages {
		if stage.Stage != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], stage.Stage)
		}
		if stage.Status != domain.JobStatusCompleted {
			t.Errorf("stage %s: expected completed, got %s", stage.Stage, stage.Status)
		}
	}
}

func TestJobRepository_TrainingJobLifecycle(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	run, err := repo.CreatePipelineRun(ctx, "job-1", "blueprint-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tj, err := repo.CreateTrainingJob(ctx, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tj.Status != domain.JobStatusQueued {
		t.Errorf("expected queued, got %s", tj.Status)
	}

	if err := repo.MarkTrainingJobRunning(ctx, tj.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	metrics := domain.JSONMap{"ranking_regressor": map[string]interface{}{"mse": 0.1}}
	if err := repo.CompleteTrainingJob(ctx, tj.ID, metrics); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetTrainingJob(ctx, tj.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.JobStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.RunID != run.ID {
		t.Errorf("expected run id %s, got %s", run.ID, got.RunID)
	}
	if got.Metrics == nil {
		t.Error("expected metrics payload persisted")
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at on terminal status")
	}
}

func TestJobRepository_GetTrainingJob_NotFound(t *testing.T) {
	repo := NewJobRepository(testDB(t))

	if _, err := repo.GetTrainingJob(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
