package artifact

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/rankforge/rankforge/internal/domain"
	"github.com/rankforge/rankforge/internal/nn"
)

func TestLocalStore_ObjectLifecycle(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	payload := []byte(`{"hello":"world"}`)

	exists, err := store.Exists(ctx, "models/test/obj.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected object to not exist yet")
	}

	if err := store.Upload(ctx, "models/test/obj.json", bytes.NewReader(payload), int64(len(payload)), "application/json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exists, err = store.Exists(ctx, "models/test/obj.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected object to exist after upload")
	}

	rc, err := store.Download(ctx, "models/test/obj.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Errorf("expected %s, got %s", payload, buf.Bytes())
	}

	if err := store.Delete(ctx, "models/test/obj.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Deleting a missing object is not an error.
	if err := store.Delete(ctx, "models/test/obj.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Upload(context.Background(), "../outside.json", bytes.NewReader(nil), 0, ""); err == nil {
		t.Error("expected traversal key to be rejected")
	}
}

func TestBundle_RoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	net, err := nn.New(nn.Config{
		InputDim:     4,
		HiddenLayers: []int{6},
		OutputDim:    2,
		Output:       nn.OutputSigmoid,
	}, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer net.Release()
	snapshot, err := net.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prefix := BundlePath(domain.ModelTypeSchemaClassifier, "20260830120000")
	bundle := &Bundle{
		Manifest: Manifest{
			ModelID: "m-1",
			Name:    "schema-type-classifier",
			Version: "20260830120000",
			Type:    domain.ModelTypeSchemaClassifier,
		},
		Snapshot: snapshot,
	}
	if err := SaveBundle(ctx, store, prefix, bundle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadBundle(ctx, store, prefix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Manifest.ModelID != "m-1" {
		t.Errorf("expected model id m-1, got %s", loaded.Manifest.ModelID)
	}
	if loaded.Manifest.InputDim != 4 || loaded.Manifest.OutputDim != 2 {
		t.Errorf("expected manifest dims filled from snapshot, got %d/%d", loaded.Manifest.InputDim, loaded.Manifest.OutputDim)
	}

	restored, err := nn.Restore(loaded.Snapshot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer restored.Release()

	vec := []float64{0.1, 0.2, 0.3, 0.4}
	want, err := net.Predict(vec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := restored.Predict(vec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("output %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSaveBundle_RequiresSnapshot(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SaveBundle(context.Background(), store, "models/x/v1", &Bundle{}); err == nil {
		t.Error("expected error for bundle without snapshot")
	}
}

func TestLoadBundle_Missing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := LoadBundle(context.Background(), store, "models/x/unknown"); err == nil {
		t.Error("expected error for missing bundle")
	}
}
