package search

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"mediscan/internal/catalog"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// StoreConfig bounds the number and lifetime of sessions
type StoreConfig struct {
	Size     int
	TTL      time.Duration
	Debounce time.Duration
}

// Store keeps recent sessions in an expiring LRU cache
type Store struct {
	sessions *expirable.LRU[string, *Session]
	catalog  *catalog.Catalog
	matcher  Matcher
	observer Observer
	log      *zap.Logger
	debounce time.Duration
	onChange func(active int)
	// live mirrors the cache length; the eviction callback runs under the
	// cache lock and cannot call Len.
	live atomic.Int64
}

// NewStore creates a session store. onChange, when set, receives the number of
// live sessions after every insert or eviction.
func NewStore(cfg StoreConfig, cat *catalog.Catalog, m Matcher, observer Observer, log *zap.Logger, onChange func(active int)) *Store {
	if cfg.Size <= 0 {
		cfg.Size = 1024
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if observer == nil {
		observer = nopObserver{}
	}

	st := &Store{
		catalog:  cat,
		matcher:  m,
		observer: observer,
		log:      log,
		debounce: cfg.Debounce,
		onChange: onChange,
	}
	st.sessions = expirable.NewLRU[string, *Session](cfg.Size, st.evicted, cfg.TTL)
	return st
}

func (st *Store) evicted(id string, s *Session) {
	s.Close()
	st.log.Debug("Session evicted", zap.String("session_id", id))
	st.notify(st.live.Add(-1))
}

func (st *Store) notify(active int64) {
	if st.onChange != nil {
		st.onChange(int(active))
	}
}

// Create starts a new session with a random id
func (st *Store) Create() *Session {
	id := uuid.New().String()
	s := NewSession(id, st.catalog, st.matcher, st.log,
		WithObserver(st.observer),
		WithDebounce(st.debounce))
	st.live.Add(1)
	st.sessions.Add(id, s)
	st.notify(st.live.Load())

	st.log.Info("Session created", zap.String("session_id", id))
	return s
}

// Get returns a live session. Reads do not extend its lifetime; a session
// expires TTL after Create, matching its token.
func (st *Store) Get(id string) (*Session, error) {
	s, ok := st.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove closes and forgets a session
func (st *Store) Remove(id string) bool {
	return st.sessions.Remove(id)
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	return st.sessions.Len()
}
