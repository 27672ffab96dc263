package conversation

import (
	"sync"
	"time"
)

// Limits configures the records the Store creates.
type Limits struct {
	DefaultPreset string
	HistorySize   int
	PendingSize   int
}

// Store owns every group State. Lookups and lazy creation are race-safe per
// key and never serialize unrelated groups.
type Store struct {
	states sync.Map // int64 -> *State
	limits Limits
}

// NewStore creates an empty Store.
func NewStore(limits Limits) *Store {
	return &Store{limits: limits}
}

// Limits returns the configured limits.
func (s *Store) Limits() Limits { return s.limits }

// Get returns the State for groupID, creating it with the default preset on
// first access. Concurrent first accesses observe the same record.
func (s *Store) Get(groupID int64) *State {
	if v, ok := s.states.Load(groupID); ok {
		return v.(*State)
	}
	v, _ := s.states.LoadOrStore(groupID, newState(s.limits.DefaultPreset, s.limits.HistorySize, s.limits.PendingSize))
	return v.(*State)
}

// Lookup returns the State for groupID without creating it.
func (s *Store) Lookup(groupID int64) (*State, bool) {
	v, ok := s.states.Load(groupID)
	if !ok {
		return nil, false
	}
	return v.(*State), true
}

// Range calls fn for every group until fn returns false.
func (s *Store) Range(fn func(groupID int64, st *State) bool) {
	s.states.Range(func(k, v any) bool {
		return fn(k.(int64), v.(*State))
	})
}

// Snapshot is the durable subset of a State. The queue and the processing
// flag are transient and never part of it.
type Snapshot struct {
	Preset        string
	History       []Turn
	LastActive    time.Time
	GroupPrompt   *string
	EmitReasoning bool
}

// Snapshot captures the durable fields of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prompt *string
	if s.groupPrompt != nil {
		p := *s.groupPrompt
		prompt = &p
	}
	return Snapshot{
		Preset:        s.preset,
		History:       s.history.Items(),
		LastActive:    s.lastActive,
		GroupPrompt:   prompt,
		EmitReasoning: s.emitReasoning,
	}
}

// Restore replaces the record for groupID with one rebuilt from snap. The
// history bound in effect now is applied, so an oversized snapshot keeps
// only its newest turns.
func (s *Store) Restore(groupID int64, snap Snapshot) {
	st := newState(snap.Preset, s.limits.HistorySize, s.limits.PendingSize)
	for _, t := range snap.History {
		st.history.Push(t)
	}
	if !snap.LastActive.IsZero() {
		st.lastActive = snap.LastActive
	}
	st.groupPrompt = snap.GroupPrompt
	st.emitReasoning = snap.EmitReasoning
	s.states.Store(groupID, st)
}
