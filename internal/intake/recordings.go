package intake

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrTooManyRecordings = errors.New("too many open recordings")

// RecordingOptions bounds the recording sessions. Zero values use defaults.
type RecordingOptions struct {
	MaxFrames  int
	MaxBytes   int64
	SampleRate int
	// MaxSessions caps concurrently open sessions.
	MaxSessions int
	// IdleTimeout discards sessions that received no frame for this long.
	IdleTimeout time.Duration
}

// Recordings tracks live recording sessions by id.
type Recordings struct {
	mu    sync.Mutex
	items map[string]*Recorder
	opts  RecordingOptions
	now   func() time.Time
}

func NewRecordings(opts RecordingOptions) *Recordings {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 16
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 10 * time.Minute
	}
	return &Recordings{
		items: make(map[string]*Recorder),
		opts:  opts,
		now:   time.Now,
	}
}

// Create starts a new session and returns its id. Idle sessions are reaped
// first; ErrTooManyRecordings is returned when the cap is still reached.
func (r *Recordings) Create() (string, error) {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reapLocked()
	if len(r.items) >= r.opts.MaxSessions {
		return "", ErrTooManyRecordings
	}
	r.items[id] = newRecorder(r.opts.MaxFrames, r.opts.MaxBytes, r.opts.SampleRate, r.now)
	return id, nil
}

func (r *Recordings) Get(id string) (*Recorder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[id]
	return rec, ok
}

// Remove forgets a session. It reports whether the id existed.
func (r *Recordings) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	return true
}

// Reap discards idle sessions and returns how many were dropped.
func (r *Recordings) Reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reapLocked()
}

func (r *Recordings) reapLocked() int {
	cutoff := r.now().Add(-r.opts.IdleTimeout)
	n := 0
	for id, rec := range r.items {
		if rec.LastActivity().Before(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n
}

func (r *Recordings) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
