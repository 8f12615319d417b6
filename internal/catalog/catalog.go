package catalog

import (
	"errors"
	"fmt"
	"strings"

	"mediscan/internal/model"
)

var (
	// ErrNotFound is returned when no medicine carries the requested id
	ErrNotFound = errors.New("medicine not found")
	// ErrDuplicateID is returned when two medicines share an id
	ErrDuplicateID = errors.New("duplicate medicine id")
	// ErrInvalidMedicine is returned for items that cannot be part of the catalog
	ErrInvalidMedicine = errors.New("invalid medicine")
)

// Catalog is the immutable list of medicines loaded once at startup.
// Items keep the order they were loaded in; every listing derived from the
// catalog preserves that order.
type Catalog struct {
	items []model.Medicine
	index map[string]int
}

// Summary is the compact view of a medicine handed to the remote matcher
type Summary struct {
	ID            string
	Name          string
	BrandName     string
	CategoryLabel string
	Description   string
}

// New validates items and builds a catalog from a private copy of them
func New(items []model.Medicine) (*Catalog, error) {
	c := &Catalog{
		items: make([]model.Medicine, 0, len(items)),
		index: make(map[string]int, len(items)),
	}

	for i, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return nil, fmt.Errorf("%w: item %d has an empty id", ErrInvalidMedicine, i)
		}
		if !item.Category.Valid() {
			return nil, fmt.Errorf("%w: item %q: %w", ErrInvalidMedicine, item.ID, model.ErrUnknownCategory)
		}
		if _, exists := c.index[item.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, item.ID)
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}

	return c, nil
}

// Len returns the number of medicines
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of all medicines in catalog order
func (c *Catalog) Items() []model.Medicine {
	out := make([]model.Medicine, len(c.items))
	copy(out, c.items)
	return out
}

// Get looks up a medicine by id
func (c *Catalog) Get(id string) (model.Medicine, error) {
	pos, ok := c.index[id]
	if !ok {
		return model.Medicine{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.items[pos], nil
}

// Contains reports whether id belongs to the catalog
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Summaries returns the matcher-facing summary of every medicine
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.items))
	for _, m := range c.items {
		out = append(out, Summary{
			ID:            m.ID,
			Name:          m.Name,
			BrandName:     m.BrandName,
			CategoryLabel: m.Category.Label(),
			Description:   m.Description,
		})
	}
	return out
}

// CountByCategory returns how many medicines each category holds
func (c *Catalog) CountByCategory() map[model.Category]int {
	counts := make(map[model.Category]int, len(model.Categories()))
	for _, m := range c.items {
		counts[m.Category]++
	}
	return counts
}
