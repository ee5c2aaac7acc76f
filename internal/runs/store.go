package runs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("run not found")
	ErrInvalidTransition = errors.New("invalid run transition")
)

// Outcome carries the results of a successful run.
type Outcome struct {
	Transcript string
	Summary    string
	Quiz       string
	NotesPaths []string
	AudioPath  string
}

// Store keeps runs in memory and publishes every change to its EventBus.
// Once more than maxRuns are held, the oldest finished runs are evicted.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]*Run
	order   []string
	maxRuns int
	events  *EventBus
	now     func() time.Time
}

func NewStore(maxRuns, maxEvents int) *Store {
	if maxRuns <= 0 {
		maxRuns = 1000
	}
	return &Store{
		runs:    make(map[string]*Run),
		maxRuns: maxRuns,
		events:  NewEventBus(maxEvents),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a queued run and returns its snapshot.
func (s *Store) Create(source Source, name, audioPath string) Run {
	s.mu.Lock()
	now := s.now()
	run := &Run{
		ID:        uuid.NewString(),
		Source:    source,
		Name:      name,
		AudioPath: audioPath,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	s.evictLocked()
	snapshot := *run
	s.mu.Unlock()

	s.events.Publish(Event{RunID: run.ID, Type: EventTypeStatus, Status: StatusQueued, Message: name})
	return snapshot
}

// Transition moves an active run to the next stage.
func (s *Store) Transition(id string, to Status) (Run, error) {
	return s.update(id, to, func(*Run) {}, Event{Type: EventTypeStatus})
}

// Complete moves a run to done and stores its outputs.
func (s *Store) Complete(id string, out Outcome) (Run, error) {
	return s.update(id, StatusDone, func(r *Run) {
		r.Transcript = out.Transcript
		r.Summary = out.Summary
		r.Quiz = out.Quiz
		r.NotesPaths = out.NotesPaths
		if out.AudioPath != "" {
			r.AudioPath = out.AudioPath
		}
	}, Event{Type: EventTypeResult})
}

// Fail moves an active run to failed and records the cause.
func (s *Store) Fail(id string, cause error) (Run, error) {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return s.update(id, StatusFailed, func(r *Run) {
		r.Error = msg
	}, Event{Type: EventTypeError, Message: msg})
}

func (s *Store) update(id string, to Status, apply func(*Run), event Event) (Run, error) {
	s.mu.Lock()
	run, ok := s.runs[id]
	if !ok {
		s.mu.Unlock()
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !isValidTransition(run.Status, to) {
		from := run.Status
		s.mu.Unlock()
		return Run{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	run.Status = to
	run.UpdatedAt = s.now()
	apply(run)
	snapshot := *run
	s.mu.Unlock()

	event.RunID = id
	event.Status = to
	s.events.Publish(event)
	return snapshot, nil
}

// Get returns a snapshot of one run.
func (s *Store) Get(id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *run, nil
}

// List returns snapshots of all runs, newest first.
func (s *Store) List() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.runs[s.order[i]])
	}
	return out
}

// Events returns events with sequence strictly greater than since.
func (s *Store) Events(since int64) []Event {
	return s.events.Since(since)
}

// evictLocked drops the oldest finished runs beyond maxRuns. Active runs
// are never evicted.
func (s *Store) evictLocked() {
	excess := len(s.order) - s.maxRuns
	if excess <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if excess > 0 && s.runs[id].Status.Terminal() {
			delete(s.runs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
