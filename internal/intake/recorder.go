package intake

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Recorder accumulates live PCM16 frames from a capture producer until Save
// seals it. The queue is bounded by frame count and by total bytes: a frame
// that would exceed either bound is rejected with ErrBufferFull and counted
// as dropped.
//
// Push and the seal step in Save share one mutex, so once Save starts no
// further frame can enter the queue and the drain sees a stable set.
type Recorder struct {
	mu         sync.Mutex
	frames     chan []byte
	sealed     bool
	dropped    int
	bytes      int64
	maxBytes   int64
	sampleRate int
	createdAt  time.Time
	lastPush   time.Time
	now        func() time.Time
}

// DefaultMaxRecordingBytes caps one recording when no byte budget is given.
const DefaultMaxRecordingBytes = 256 << 20

// NewRecorder creates a recorder holding at most maxFrames frames and
// maxBytes bytes of audio.
func NewRecorder(maxFrames int, maxBytes int64, sampleRate int) *Recorder {
	return newRecorder(maxFrames, maxBytes, sampleRate, time.Now)
}

func newRecorder(maxFrames int, maxBytes int64, sampleRate int, now func() time.Time) *Recorder {
	if maxFrames <= 0 {
		maxFrames = 4096
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRecordingBytes
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	start := now()
	return &Recorder{
		frames:     make(chan []byte, maxFrames),
		maxBytes:   maxBytes,
		sampleRate: sampleRate,
		createdAt:  start,
		lastPush:   start,
		now:        now,
	}
}

// Push enqueues one frame of little-endian 16-bit mono samples. The frame is
// copied, so callers may reuse their buffer.
func (r *Recorder) Push(frame []byte) error {
	if len(frame)%2 != 0 {
		return ErrInvalidFrame
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRecorderClosed
	}

	if r.bytes+int64(len(frame)) > r.maxBytes {
		r.dropped++
		return ErrBufferFull
	}

	cp := make([]byte, len(frame))
	copy(cp, frame)

	select {
	case r.frames <- cp:
		r.bytes += int64(len(cp))
		r.lastPush = r.now()
		return nil
	default:
		r.dropped++
		return ErrBufferFull
	}
}

// Bytes returns the size of the queued audio.
func (r *Recorder) Bytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bytes
}

// LastActivity returns when a frame was last accepted, or the creation time.
func (r *Recorder) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPush
}

// Len returns the number of queued frames.
func (r *Recorder) Len() int {
	return len(r.frames)
}

// Dropped returns how many frames were rejected because the queue was full.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// SampleRate returns the capture sample rate.
func (r *Recorder) SampleRate() int {
	return r.sampleRate
}

// CreatedAt returns when the recording session started.
func (r *Recorder) CreatedAt() time.Time {
	return r.createdAt
}

// Save seals the recorder, drains all accepted frames in arrival order and
// writes them to w as a WAV stream. A recorder can be saved once.
func (r *Recorder) Save(w io.Writer) (int64, error) {
	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return 0, ErrRecorderClosed
	}
	r.sealed = true
	close(r.frames)
	r.mu.Unlock()

	frames := make([][]byte, 0, len(r.frames))
	for f := range r.frames {
		frames = append(frames, f)
	}

	return writeWAV(w, r.sampleRate, frames)
}

// SaveFile saves the recording into a new WAV file under dir.
func (r *Recorder) SaveFile(dir, name string) (Audio, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Audio{}, fmt.Errorf("create temp dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "recording-*.wav")
	if err != nil {
		return Audio{}, fmt.Errorf("create recording file: %w", err)
	}

	n, err := r.Save(f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return Audio{}, fmt.Errorf("save recording: %w", err)
	}

	if name == "" {
		name = "recording.wav"
	}
	return Audio{
		Path:   f.Name(),
		Name:   name,
		Format: "wav",
		Size:   n,
	}, nil
}
