package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rankforge/rankforge/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newModel(modelType domain.ModelType, version string) *domain.Model {
	return &domain.Model{
		ID:      uuid.NewString(),
		Name:    "test-model",
		Version: version,
		Type:    modelType,
		Path:    "models/" + string(modelType) + "/" + version,
	}
}

func TestModelRepository_CreateDefaultsToTesting(t *testing.T) {
	repo := NewModelRepository(testDB(t))
	ctx := context.Background()

	m := newModel(domain.ModelTypeRankingRegressor, "v1")
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.ModelStatusTesting {
		t.Errorf("expected status testing, got %s", got.Status)
	}
	if got.DeployedAt != nil {
		t.Error("expected no deployment timestamp on a fresh model")
	}
}

func TestModelRepository_GetByID_NotFound(t *testing.T) {
	repo := NewModelRepository(testDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestModelRepository_Activate(t *testing.T) {
	repo := NewModelRepository(testDB(t))
	ctx := context.Background()

	first := newModel(domain.ModelTypeRankingRegressor, "v1")
	second := newModel(domain.ModelTypeRankingRegressor, "v2")
	other := newModel(domain.ModelTypeSchemaClassifier, "v1")
	for _, m := range []*domain.Model{first, second, other} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if _, err := repo.Activate(ctx, first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.Activate(ctx, other.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Promoting v2 must archive v1 and leave the classifier untouched.
	activated, err := repo.Activate(ctx, second.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if activated.Status != domain.ModelStatusActive {
		t.Errorf("expected active status, got %s", activated.Status)
	}
	if activated.DeployedAt == nil {
		t.Error("expected deployment timestamp to be set")
	}

	prev, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev.Status != domain.ModelStatusArchived {
		t.Errorf("expected previous version archived, got %s", prev.Status)
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected one active model per type, got %d", len(active))
	}
	byType := make(map[domain.ModelType]string)
	for _, m := range active {
		if prev, dup := byType[m.Type]; dup {
			t.Fatalf("two active models for type %s: %s and %s", m.Type, prev, m.ID)
		}
		byType[m.Type] = m.ID
	}
	if byType[domain.ModelTypeRankingRegressor] != second.ID {
		t.Errorf("expected %s active for regressor, got %s", second.ID, byType[domain.ModelTypeRankingRegressor])
	}
}

func TestModelRepository_Activate_NotFound(t *testing.T) {
	repo := NewModelRepository(testDB(t))

	if _, err := repo.Activate(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestModelRepository_ActiveByType(t *testing.T) {
	repo := NewModelRepository(testDB(t))
	ctx := context.Background()

	m := newModel(domain.ModelTypeSchemaClassifier, "v1")
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.ActiveByType(ctx, domain.ModelTypeSchemaClassifier); err != ErrNotFound {
		t.Errorf("expected ErrNotFound before activation, got %v", err)
	}

	if _, err := repo.Activate(ctx, m.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.ActiveByType(ctx, domain.ModelTypeSchemaClassifier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != m.ID {
		t.Errorf("expected %s, got %s", m.ID, got.ID)
	}
}
