package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/rankforge/rankforge/internal/domain"
	"github.com/rankforge/rankforge/internal/nn"
)

const (
	networkObject  = "network.json"
	manifestObject = "manifest.json"
)

// Manifest describes the bundle contents for auditing and validation.
type Manifest struct {
	ModelID   string           `json:"model_id"`
	Name      string           `json:"name"`
	Version   string           `json:"version"`
	Type      domain.ModelType `json:"type"`
	SavedAt   time.Time        `json:"saved_at"`
	InputDim  int              `json:"input_dim"`
	OutputDim int              `json:"output_dim"`
}

// Bundle is one persisted model: the serialized network plus its manifest.
type Bundle struct {
	Manifest Manifest
	Snapshot *nn.Snapshot
}

// BundlePath returns the version-named storage prefix for a model.
func BundlePath(modelType domain.ModelType, version string) string {
	return path.Join("models", string(modelType), version)
}

// SaveBundle writes a bundle under the given prefix.
func SaveBundle(ctx context.Context, store Store, prefix string, b *Bundle) error {
	if b.Snapshot == nil {
		return fmt.Errorf("bundle has no network snapshot")
	}
	b.Manifest.SavedAt = time.Now()
	b.Manifest.InputDim = b.Snapshot.InputDim
	b.Manifest.OutputDim = b.Snapshot.OutputDim

	if err := putJSON(ctx, store, path.Join(prefix, networkObject), b.Snapshot); err != nil {
		return fmt.Errorf("failed to store network: %w", err)
	}
	if err := putJSON(ctx, store, path.Join(prefix, manifestObject), &b.Manifest); err != nil {
		return fmt.Errorf("failed to store manifest: %w", err)
	}
	return nil
}

// LoadBundle reads a bundle back from the given prefix.
func LoadBundle(ctx context.Context, store Store, prefix string) (*Bundle, error) {
	b := &Bundle{}
	if err := getJSON(ctx, store, path.Join(prefix, manifestObject), &b.Manifest); err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	snapshot := &nn.Snapshot{}
	if err := getJSON(ctx, store, path.Join(prefix, networkObject), snapshot); err != nil {
		return nil, fmt.Errorf("failed to load network: %w", err)
	}
	b.Snapshot = snapshot
	return b, nil
}

func putJSON(ctx context.Context, store Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json")
}

func getJSON(ctx context.Context, store Store, key string, v interface{}) error {
	rc, err := store.Download(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
