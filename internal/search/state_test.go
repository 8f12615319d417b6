package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"mediscan/internal/model"
)

func TestReduce_QueryChangedClearsAISignal(t *testing.T) {
	s := State{Query: "old", AIIDs: []string{"a1"}, Seq: 3, Busy: true}

	next := Reduce(s, QueryChanged{Query: "new"})

	assert.Equal(t, "new", next.Query)
	assert.Nil(t, next.AIIDs)
	assert.Equal(t, uint64(4), next.Seq)
	assert.False(t, next.Busy)
	assert.Equal(t, []string{"a1"}, s.AIIDs, "input state must not change")
}

func TestReduce_RemoteMatchLifecycle(t *testing.T) {
	s := Reduce(State{}, QueryChanged{Query: "headache"})
	s = Reduce(s, SearchStarted{Seq: s.Seq})
	assert.True(t, s.Busy)

	ids := []string{"pj-1"}
	s = Reduce(s, RemoteMatchSucceeded{Seq: s.Seq, IDs: ids})
	assert.False(t, s.Busy)
	assert.True(t, s.UsedAI())
	assert.Equal(t, []string{"pj-1"}, s.AIIDs)

	ids[0] = "mutated"
	assert.Equal(t, []string{"pj-1"}, s.AIIDs)
}

func TestReduce_EmptyResultKeepsNullSignal(t *testing.T) {
	s := Reduce(State{}, QueryChanged{Query: "headache"})
	s = Reduce(s, SearchStarted{Seq: s.Seq})
	s = Reduce(s, RemoteMatchSucceeded{Seq: s.Seq, IDs: []string{}})

	assert.False(t, s.Busy)
	assert.Nil(t, s.AIIDs)
	assert.False(t, s.UsedAI())
}

func TestReduce_FailureClearsBusy(t *testing.T) {
	s := Reduce(State{}, QueryChanged{Query: "headache"})
	s = Reduce(s, SearchStarted{Seq: s.Seq})
	s = Reduce(s, RemoteMatchFailed{Seq: s.Seq, Err: errors.New("timeout")})

	assert.False(t, s.Busy)
	assert.Nil(t, s.AIIDs)
}

func TestReduce_StaleCompletionsAreIgnored(t *testing.T) {
	s := Reduce(State{}, QueryChanged{Query: "first"})
	firstSeq := s.Seq
	s = Reduce(s, SearchStarted{Seq: firstSeq})

	s = Reduce(s, QueryChanged{Query: "second"})
	secondSeq := s.Seq
	s = Reduce(s, SearchStarted{Seq: secondSeq})

	assert.True(t, s.IsStale(firstSeq))
	after := Reduce(s, RemoteMatchSucceeded{Seq: firstSeq, IDs: []string{"old"}})
	assert.Equal(t, s, after)

	after = Reduce(s, RemoteMatchFailed{Seq: firstSeq, Err: errors.New("late")})
	assert.Equal(t, s, after)

	after = Reduce(s, SearchStarted{Seq: firstSeq})
	assert.Equal(t, s, after)
}

func TestReduce_CategoryAndClear(t *testing.T) {
	s := Reduce(State{}, CategoryChanged{Filter: model.OnlyCategory(model.CategoryLiver)})
	s = Reduce(s, QueryChanged{Query: "fat"})
	s = Reduce(s, SearchStarted{Seq: s.Seq})
	s = Reduce(s, RemoteMatchSucceeded{Seq: s.Seq, IDs: []string{"lv-1"}})

	c, ok := s.Category.Category()
	assert.True(t, ok)
	assert.Equal(t, model.CategoryLiver, c)
	assert.Equal(t, "fat", s.Query)
	assert.True(t, s.UsedAI())

	seq := s.Seq
	s = Reduce(s, FiltersCleared{})
	assert.Equal(t, "", s.Query)
	assert.True(t, s.Category.IsAll())
	assert.Nil(t, s.AIIDs)
	assert.True(t, s.IsStale(seq))
}
