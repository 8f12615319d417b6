package search

import (
	"mediscan/internal/model"
)

// State is the search state of one visitor. It only changes through Reduce.
type State struct {
	Query    string
	Category model.CategoryFilter
	// AIIDs is nil while no AI opinion is active for the current query
	AIIDs []string
	Busy  bool
	// Seq is the sequence number of the latest remote search
	Seq uint64
}

// UsedAI reports whether the visible results come from the remote matcher
func (s State) UsedAI() bool {
	return len(s.AIIDs) > 0
}

// Event is a discrete state transition
type Event interface {
	isEvent()
}

// QueryChanged stores new query text and drops any AI opinion about the old one.
// It supersedes any remote search still in flight.
type QueryChanged struct {
	Query string
}

// CategoryChanged selects a category filter
type CategoryChanged struct {
	Filter model.CategoryFilter
}

// SearchStarted marks a remote match for the current query in flight
type SearchStarted struct {
	Seq uint64
}

// RemoteMatchSucceeded carries the ids returned for search Seq
type RemoteMatchSucceeded struct {
	Seq uint64
	IDs []string
}

// RemoteMatchFailed reports that search Seq produced no AI signal
type RemoteMatchFailed struct {
	Seq uint64
	Err error
}

// FiltersCleared resets query, category and AI signal, superseding any remote search in flight
type FiltersCleared struct{}

func (QueryChanged) isEvent()         {}
func (CategoryChanged) isEvent()      {}
func (SearchStarted) isEvent()        {}
func (RemoteMatchSucceeded) isEvent() {}
func (RemoteMatchFailed) isEvent()    {}
func (FiltersCleared) isEvent()       {}

// Reduce applies ev to s and returns the next state. Completions whose
// sequence number is not the latest one are stale and leave s unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case QueryChanged:
		s.Query = e.Query
		s.AIIDs = nil
		s.Seq++
		s.Busy = false
	case CategoryChanged:
		s.Category = e.Filter
	case SearchStarted:
		if e.Seq != s.Seq {
			return s
		}
		s.Busy = true
	case RemoteMatchSucceeded:
		if e.Seq != s.Seq {
			return s
		}
		s.Busy = false
		if len(e.IDs) > 0 {
			s.AIIDs = append([]string(nil), e.IDs...)
		}
	case RemoteMatchFailed:
		if e.Seq != s.Seq {
			return s
		}
		s.Busy = false
	case FiltersCleared:
		s.Query = ""
		s.Category = model.AllCategories
		s.AIIDs = nil
		s.Seq++
		s.Busy = false
	}
	return s
}

// IsStale reports whether a completion for seq would be ignored by s
func (s State) IsStale(seq uint64) bool {
	return seq != s.Seq
}
