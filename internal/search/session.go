package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mediscan/internal/catalog"
	"mediscan/internal/model"
)

// Matcher is the remote capability that maps a free-text query to medicine ids.
// It is slow, fallible and untrusted; callers only use set membership of the result.
type Matcher interface {
	Match(ctx context.Context, query string, entries []catalog.Summary) ([]string, error)
}

// Search outcomes reported to the Observer
const (
	OutcomeAI      = "ai"
	OutcomeLocal   = "local"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
	OutcomeCleared = "cleared"
)

// Observer receives search telemetry
type Observer interface {
	SearchCompleted(outcome string)
	RemoteMatchObserved(d time.Duration, err error)
	StaleResponse()
}

type nopObserver struct{}

func (nopObserver) SearchCompleted(string)                   {}
func (nopObserver) RemoteMatchObserved(time.Duration, error) {}
func (nopObserver) StaleResponse()                           {}

// View is what a visitor currently sees
type View struct {
	SessionID string               `json:"session_id,omitempty"`
	Query     string               `json:"query"`
	Category  model.CategoryFilter `json:"category"`
	Items     []model.Medicine     `json:"items"`
	Total     int                  `json:"total"`
	UsedAI    bool                 `json:"used_ai"`
	Busy      bool                 `json:"busy"`
}

// Session holds the search state of one visitor
type Session struct {
	ID        string
	CreatedAt time.Time

	catalog  *catalog.Catalog
	matcher  Matcher
	log      *zap.Logger
	observer Observer

	mu       sync.Mutex
	state    State
	input    string
	debounce *Debouncer
}

// SessionOption customizes a Session
type SessionOption func(*Session)

// WithObserver reports telemetry to o
func WithObserver(o Observer) SessionOption {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithDebounce sets the quiet period of the empty-input auto clear
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		s.debounce = NewDebouncer(d, s.onInputSettled)
	}
}

// DefaultDebounce is the quiet period before an emptied search box clears the query
const DefaultDebounce = 300 * time.Millisecond

// NewSession creates a session over cat that consults m for queries longer than one character
func NewSession(id string, cat *catalog.Catalog, m Matcher, log *zap.Logger, opts ...SessionOption) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		catalog:   cat,
		matcher:   m,
		log:       log.With(zap.String("session_id", id)),
		observer:  nopObserver{},
		state:     State{Category: model.AllCategories},
	}
	s.debounce = NewDebouncer(DefaultDebounce, s.onInputSettled)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TriggerSearch stores query as the current search and, for queries longer
// than one character, asks the remote matcher for ids. Matcher failures are
// logged and leave the session on local substring matching. A response that
// arrives after a newer search started is discarded.
func (s *Session) TriggerSearch(ctx context.Context, query string) View {
	s.mu.Lock()
	s.input = query
	s.state = Reduce(s.state, QueryChanged{Query: query})
	seq := s.state.Seq

	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) <= 1 {
		s.mu.Unlock()
		if trimmed == "" {
			s.observer.SearchCompleted(OutcomeCleared)
		} else {
			s.observer.SearchCompleted(OutcomeSkipped)
		}
		s.log.Debug("Remote match skipped for short query", zap.String("query", query))
		return s.Snapshot()
	}

	s.state = Reduce(s.state, SearchStarted{Seq: seq})
	s.mu.Unlock()

	s.log.Info("Remote match started", zap.String("query", query), zap.Uint64("seq", seq))

	start := time.Now()
	matched, err := s.matcher.Match(ctx, query, s.catalog.Summaries())
	elapsed := time.Since(start)
	s.observer.RemoteMatchObserved(elapsed, err)

	s.mu.Lock()
	if s.state.IsStale(seq) {
		s.mu.Unlock()
		s.observer.StaleResponse()
		s.log.Info("Discarding stale remote match",
			zap.Uint64("seq", seq),
			zap.Duration("latency", elapsed),
			zap.Bool("failed", err != nil))
		return s.Snapshot()
	}

	outcome := OutcomeLocal
	if err != nil {
		s.state = Reduce(s.state, RemoteMatchFailed{Seq: seq, Err: err})
		outcome = OutcomeFailed
		s.log.Warn("Remote match failed, falling back to local filter",
			zap.Uint64("seq", seq),
			zap.Duration("latency", elapsed),
			zap.Error(err))
	} else {
		s.state = Reduce(s.state, RemoteMatchSucceeded{Seq: seq, IDs: matched})
		if s.state.UsedAI() {
			outcome = OutcomeAI
		}
		s.log.Info("Remote match completed",
			zap.Uint64("seq", seq),
			zap.Int("matched", len(matched)),
			zap.Duration("latency", elapsed))
	}
	s.mu.Unlock()

	s.observer.SearchCompleted(outcome)
	return s.Snapshot()
}

// InputChanged records the raw text of the search box. Once the input has
// been quiet for the debounce period and is blank, the query is cleared.
// Non-blank input never reaches the remote matcher from here.
func (s *Session) InputChanged(value string) {
	s.mu.Lock()
	s.input = value
	s.mu.Unlock()

	s.debounce.Trigger()
}

func (s *Session) onInputSettled() {
	s.mu.Lock()
	input := s.input
	s.mu.Unlock()

	if strings.TrimSpace(input) == "" {
		s.TriggerSearch(context.Background(), "")
	}
}

// SetCategory selects the category filter
func (s *Session) SetCategory(filter model.CategoryFilter) View {
	s.mu.Lock()
	s.state = Reduce(s.state, CategoryChanged{Filter: filter})
	s.mu.Unlock()

	return s.Snapshot()
}

// ClearFilters resets query, category and AI signal
func (s *Session) ClearFilters() View {
	s.mu.Lock()
	s.input = ""
	s.state = Reduce(s.state, FiltersCleared{})
	s.mu.Unlock()

	return s.Snapshot()
}

// State returns a copy of the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.AIIDs != nil {
		st.AIIDs = append([]string(nil), st.AIIDs...)
	}
	return st
}

// Snapshot resolves the visible medicines for the current state
func (s *Session) Snapshot() View {
	st := s.State()
	items := Resolve(s.catalog.Items(), st.Category, st.Query, st.AIIDs)
	return View{
		SessionID: s.ID,
		Query:     st.Query,
		Category:  st.Category,
		Items:     items,
		Total:     len(items),
		UsedAI:    st.UsedAI(),
		Busy:      st.Busy,
	}
}

// Close stops the pending debounce timer
func (s *Session) Close() {
	s.debounce.Stop()
}
