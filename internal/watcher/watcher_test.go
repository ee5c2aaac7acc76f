package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

type handled struct {
	mu    sync.Mutex
	paths []string
}

func (h *handled) handle(ctx context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths = append(h.paths, path)
	return nil
}

func (h *handled) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]string(nil), h.paths...)
	sort.Strings(out)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func startWatcher(t *testing.T, dir string, h EventHandler, opts Options) (context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := New(dir, h, logger.Nop(), opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	return cancel, done
}

func TestWatcherHandlesNewAudioOnly(t *testing.T) {
	dir := t.TempDir()
	h := &handled{}
	cancel, done := startWatcher(t, dir, h.handle, Options{})
	defer cancel()

	// Give the watcher a moment to enter its loop.
	time.Sleep(50 * time.Millisecond)

	for _, name := range []string{"notes.txt", ".hidden.mp3", "lecture.mp3", "talk.WAV"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{filepath.Join(dir, "lecture.mp3"), filepath.Join(dir, "talk.WAV")}
	waitFor(t, func() bool { return len(h.snapshot()) == 2 })
	got := h.snapshot()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("handled[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
}

func TestWatcherScansExistingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.ogg", "a.flac", "readme.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	h := &handled{}
	cancel, _ := startWatcher(t, dir, h.handle, Options{ScanExisting: true})
	defer cancel()

	waitFor(t, func() bool { return len(h.snapshot()) == 2 })
	got := h.snapshot()
	if got[0] != filepath.Join(dir, "a.flac") || got[1] != filepath.Join(dir, "b.ogg") {
		t.Errorf("handled = %v", got)
	}
}

func TestWatcherBoundsConcurrencyAndDrains(t *testing.T) {
	dir := t.TempDir()
	release := make(chan struct{})
	var (
		mu       sync.Mutex
		running  int
		peak     int
		finished int
	)
	handler := func(ctx context.Context, path string) error {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		<-release

		mu.Lock()
		running--
		finished++
		mu.Unlock()
		return nil
	}

	for _, name := range []string{"1.mp3", "2.mp3", "3.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cancel, done := startWatcher(t, dir, handler, Options{MaxConcurrent: 2, ScanExisting: true})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return running == 2
	})
	close(release)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return finished == 3
	})
	cancel()
	<-done

	if peak != 2 {
		t.Errorf("peak = %d, want 2", peak)
	}
}

func TestNewMissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), nil, logger.Nop(), Options{}); err == nil {
		t.Fatal("expected error for missing inbox")
	}
}
