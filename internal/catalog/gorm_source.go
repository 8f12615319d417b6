package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mediscan/internal/model"
)

// GormSource reads the catalog once from the medicines table.
// It never writes; the table is maintained outside this service.
type GormSource struct {
	DB *gorm.DB
}

// NewGormSource wraps an open database handle
func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{DB: db}
}

// Name identifies the source in logs
func (s *GormSource) Name() string {
	return "postgres"
}

// Medicines returns every row in display order
func (s *GormSource) Medicines(ctx context.Context) ([]model.Medicine, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database is not initialized")
	}

	var items []model.Medicine
	result := s.DB.WithContext(ctx).Order("position ASC").Order("id ASC").Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query medicines: %w", result.Error)
	}
	return items, nil
}
