package catalog

import (
	"context"
	"embed"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"mediscan/internal/model"
)

//go:embed data/inventory.json
var inventoryFS embed.FS

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Source provides the medicines a catalog is built from
type Source interface {
	Name() string
	Medicines(ctx context.Context) ([]model.Medicine, error)
}

// EmbeddedSource reads the inventory bundled with the binary
type EmbeddedSource struct{}

// Name identifies the source in logs
func (EmbeddedSource) Name() string {
	return "embedded"
}

// Medicines decodes the bundled inventory file
func (EmbeddedSource) Medicines(_ context.Context) ([]model.Medicine, error) {
	raw, err := inventoryFS.ReadFile("data/inventory.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded inventory: %w", err)
	}
	return DecodeMedicines(raw)
}

// DecodeMedicines parses a JSON array of medicines
func DecodeMedicines(raw []byte) ([]model.Medicine, error) {
	var items []model.Medicine
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}
	return items, nil
}

// Load builds the catalog from src, failing on any invalid item
func Load(ctx context.Context, src Source, log *zap.Logger) (*Catalog, error) {
	items, err := src.Medicines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s source: %w", src.Name(), err)
	}

	c, err := New(items)
	if err != nil {
		return nil, err
	}

	log.Info("Catalog loaded",
		zap.String("source", src.Name()),
		zap.Int("count", c.Len()))
	return c, nil
}
