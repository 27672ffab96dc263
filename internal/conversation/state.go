// Package conversation holds the per-group conversation state: rolling
// history, events not yet seen by the model, the work queue and the
// single-flight flag that guarantees one worker per group.
package conversation

import (
	"sync"
	"time"
)

// PresetOff is the preset name that disables processing for a group.
const PresetOff = "off"

// Role identifies the author of a Turn.
type Role string

// Turn roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message of the rolling history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RawEvent is the textual projection of an inbound chat message.
type RawEvent struct {
	SenderNickname string
	SenderUserID   int64
	Message        string
	SendTime       time.Time
}

type pendingEvent struct {
	seq uint64
	ev  RawEvent
}

// State is the mutable record of one group. All methods are safe for
// concurrent use.
type State struct {
	mu sync.Mutex

	preset        string
	history       *Ring[Turn]
	pending       *Ring[pendingEvent]
	queue         []RawEvent
	processing    bool
	lastActive    time.Time
	groupPrompt   *string
	emitReasoning bool

	nextSeq uint64
	evicted int
	// epoch changes on Reset so in-flight batches can detect it.
	epoch uint64
}

func newState(preset string, historySize, pendingSize int) *State {
	return &State{
		preset:     preset,
		history:    NewRing[Turn](historySize),
		pending:    NewRing[pendingEvent](pendingSize),
		lastActive: time.Now(),
	}
}

// Batch is what a worker takes out of a State for one model call.
type Batch struct {
	Events        []RawEvent
	History       []Turn
	Preset        string
	GroupPrompt   *string
	EmitReasoning bool

	lastSeq uint64
	epoch   uint64
}

// Stats is a point-in-time view used by the admin surface.
type Stats struct {
	Preset        string
	HistoryLen    int
	PendingLen    int
	QueueLen      int
	Processing    bool
	Evicted       int
	EmitReasoning bool
	LastActive    time.Time
}

// Accept records ev as unseen content. When dispatch is true the event is
// also queued, and start reports whether the caller must launch a worker:
// it is true exactly when no worker owned the group, in which case the
// group is now marked as processing. evicted reports whether the oldest
// pending event was dropped to make room.
func (s *State) Accept(ev RawEvent, dispatch bool) (start, evicted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	if s.pending.Push(pendingEvent{seq: s.nextSeq, ev: ev}) {
		s.evicted++
		evicted = true
	}
	s.lastActive = time.Now()

	if !dispatch {
		return false, evicted
	}
	s.queue = append(s.queue, ev)
	if s.processing {
		return false, evicted
	}
	s.processing = true
	return true, evicted
}

// Next pops the next queued event and returns the batch to process. It
// returns false when the worker must exit; in that case processing has
// already been cleared under the same lock that observed the empty queue,
// so a concurrent Accept either sees a live worker or starts a new one.
//
// If nothing is pending, every queued event has already been covered by an
// earlier batch (or a reset), so the queue is dropped and the worker exits.
func (s *State) Next(window int) (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		s.processing = false
		return Batch{}, false
	}
	s.queue[0] = RawEvent{}
	s.queue = s.queue[1:]

	if s.pending.Len() == 0 {
		s.queue = nil
		s.processing = false
		return Batch{}, false
	}

	items := s.pending.Items()
	events := make([]RawEvent, len(items))
	for i, it := range items {
		events[i] = it.ev
	}
	return Batch{
		Events:        events,
		History:       s.history.Tail(window),
		Preset:        s.preset,
		GroupPrompt:   s.groupPrompt,
		EmitReasoning: s.emitReasoning,
		lastSeq:       items[len(items)-1].seq,
		epoch:         s.epoch,
	}, true
}

// Commit applies a successful exchange: the user and assistant turns are
// appended together and the events that made up the batch leave the
// pending buffer. Events that arrived during the model call stay pending.
// It returns false, leaving the state untouched, if the group was reset
// after the batch was taken.
func (s *State) Commit(b Batch, userContent, assistantContent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.epoch != s.epoch {
		return false
	}
	s.history.Push(Turn{Role: RoleUser, Content: userContent})
	s.history.Push(Turn{Role: RoleAssistant, Content: assistantContent})

	consumed := 0
	for _, it := range s.pending.Items() {
		if it.seq > b.lastSeq {
			break
		}
		consumed++
	}
	s.pending.DropFront(consumed)
	s.lastActive = time.Now()
	return true
}

// Abandon drops the queue and releases the worker flag without touching
// history or pending. Used when the worker is shut down mid-queue.
func (s *State) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	s.processing = false
}

// Preset returns the current preset name.
func (s *State) Preset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// SetPreset switches the preset.
func (s *State) SetPreset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preset = name
}

// SetGroupPrompt sets the per-group personality override.
func (s *State) SetGroupPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupPrompt = &prompt
}

// ToggleReasoning flips reasoning output and returns the new value.
func (s *State) ToggleReasoning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitReasoning = !s.emitReasoning
	return s.emitReasoning
}

// Reset clears history and pending events. The queue, preset and flags are
// kept.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
	s.pending.Clear()
	s.evicted = 0
	s.epoch++
}

// History returns a copy of the full history, oldest first.
func (s *State) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Items()
}

// Pending returns a copy of the unseen events, oldest first.
func (s *State) Pending() []RawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.pending.Items()
	out := make([]RawEvent, len(items))
	for i, it := range items {
		out[i] = it.ev
	}
	return out
}

// Stats returns counters for the admin surface.
func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Preset:        s.preset,
		HistoryLen:    s.history.Len(),
		PendingLen:    s.pending.Len(),
		QueueLen:      len(s.queue),
		Processing:    s.processing,
		Evicted:       s.evicted,
		EmitReasoning: s.emitReasoning,
		LastActive:    s.lastActive,
	}
}
