package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediscan/internal/catalog"
)

var (
	// ErrMatcherDisabled is returned when no remote matcher is configured
	ErrMatcherDisabled = errors.New("remote matcher disabled")
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrMalformedResponse is returned when the model text is not the requested JSON object
	ErrMalformedResponse = errors.New("malformed response from model")
)

// Disabled always fails so that searches fall back to local matching
type Disabled struct{}

// Match implements search.Matcher
func (Disabled) Match(context.Context, string, []catalog.Summary) ([]string, error) {
	return nil, ErrMatcherDisabled
}

// BuildPrompt renders the instruction, the visitor's query and one line per medicine
func BuildPrompt(query string, entries []catalog.Summary) string {
	var b strings.Builder
	b.WriteString("You are the pharmacist assistant of a hospital pharmacy.\n\n")
	fmt.Fprintf(&b, "User query: %q\n\n", query)
	b.WriteString("Current medicine inventory:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "ID: %s, name: %s (brand: %s), category: %s, description: %s\n",
			e.ID, e.Name, e.BrandName, e.CategoryLabel, e.Description)
	}
	b.WriteString(`
Tasks:
1. Analyse the query. It may be a medicine name, a manufacturer or brand, or a symptom such as "头痛" or "stomach ache".
2. Identify which medicines in the inventory are most relevant.
3. Return only a JSON object whose "matchedIds" field lists the matching medicine IDs.
4. If the query suggests a serious condition that basic medicines cannot treat, still match the most relevant medicines but favour symptom relief and safety.
5. If nothing matches, return an empty list.
`)
	return b.String()
}

// matchedIDs is the JSON object the model is asked to produce
type matchedIDs struct {
	MatchedIDs []string `json:"matchedIds"`
}

// ParseMatchedIDs decodes the model output. Ids that are not in known are
// dropped, duplicates are removed and the model's order is kept. A missing
// matchedIds field yields an empty list.
func ParseMatchedIDs(text string, known []catalog.Summary) ([]string, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var parsed matchedIDs
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	valid := make(map[string]struct{}, len(known))
	for _, e := range known {
		valid[e.ID] = struct{}{}
	}

	out := make([]string, 0, len(parsed.MatchedIDs))
	seen := make(map[string]struct{}, len(parsed.MatchedIDs))
	for _, id := range parsed.MatchedIDs {
		id = strings.TrimSpace(id)
		if _, ok := valid[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block some models emit
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
