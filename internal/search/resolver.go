package search

import (
	"strings"

	"mediscan/internal/model"
)

// Resolve computes the visible medicines for a category filter, a query and
// the active AI signal. A nil or empty aiIDs means there is no usable AI
// opinion and the query is matched locally. The result keeps the order of
// items and never shares its backing array.
func Resolve(items []model.Medicine, filter model.CategoryFilter, query string, aiIDs []string) []model.Medicine {
	out := make([]model.Medicine, 0, len(items))
	for _, m := range items {
		if filter.Matches(m.Category) {
			out = append(out, m)
		}
	}

	if strings.TrimSpace(query) == "" {
		return out
	}

	if len(aiIDs) > 0 {
		wanted := make(map[string]struct{}, len(aiIDs))
		for _, id := range aiIDs {
			wanted[id] = struct{}{}
		}
		return keep(out, func(m model.Medicine) bool {
			_, ok := wanted[m.ID]
			return ok
		})
	}

	needle := strings.ToLower(query)
	return keep(out, func(m model.Medicine) bool {
		return MatchesText(m, needle)
	})
}

// MatchesText reports whether the lower-cased needle occurs in the name,
// brand or description of m
func MatchesText(m model.Medicine, needle string) bool {
	return strings.Contains(strings.ToLower(m.Name), needle) ||
		strings.Contains(strings.ToLower(m.BrandName), needle) ||
		strings.Contains(strings.ToLower(m.Description), needle)
}

func keep(items []model.Medicine, pred func(model.Medicine) bool) []model.Medicine {
	out := items[:0]
	for _, m := range items {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}
