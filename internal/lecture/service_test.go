package lecture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/processor"
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
)

// fakeProcessor walks every stage and returns a canned result or error.
type fakeProcessor struct {
	err     error
	failAt  processor.Stage
	block   chan struct{}
	running atomic.Int32
	peak    atomic.Int32
	kept    atomic.Bool
}

func (f *fakeProcessor) Process(ctx context.Context, req processor.Request) (*processor.Result, error) {
	f.kept.Store(req.KeepSource)
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	for _, st := range []processor.Stage{processor.StageTranscribing, processor.StageSummarizing, processor.StageQuizzing} {
		req.OnStage(st)
		if f.err != nil && st == f.failAt {
			return nil, &processor.StageError{Stage: st, Err: f.err}
		}
	}
	return &processor.Result{
		RunID:      req.RunID,
		Transcript: "transcript of " + req.Audio.Name,
		Summary:    "summary",
		Quiz:       "quiz",
		NotesPaths: []string{"notes.md"},
	}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	runs []runs.Run
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, run runs.Run) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.runs = append(n.runs, run)
	return n.err
}

func tempAudio(t *testing.T, name string) intake.Audio {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return intake.Audio{Path: path, Name: name, Format: "wav", Size: 1}
}

func TestRunCompletes(t *testing.T) {
	store := runs.NewStore(0, 0)
	notifier := &recordingNotifier{}
	svc := New(&fakeProcessor{}, store, 1, logger.Nop(), notifier)
	defer svc.Close()

	run, err := svc.Run(context.Background(), runs.SourceCLI, tempAudio(t, "a.wav"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if run.Status != runs.StatusDone || run.Transcript != "transcript of a.wav" {
		t.Errorf("run = %+v", run)
	}

	var statuses []runs.Status
	for _, e := range store.Events(0) {
		statuses = append(statuses, e.Status)
	}
	want := []runs.Status{runs.StatusQueued, runs.StatusTranscribing, runs.StatusSummarizing, runs.StatusQuizzing, runs.StatusDone}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("status %d = %s, want %s", i, statuses[i], want[i])
		}
	}

	if len(notifier.runs) != 1 || notifier.runs[0].ID != run.ID {
		t.Errorf("notified = %+v", notifier.runs)
	}
}

func TestRunFailureRemovesStagedAudio(t *testing.T) {
	tests := []struct {
		source     runs.Source
		wantExists bool
	}{
		{source: runs.SourceUpload, wantExists: false},
		{source: runs.SourceRecording, wantExists: false},
		{source: runs.SourceInbox, wantExists: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			boom := errors.New("model crashed")
			store := runs.NewStore(0, 0)
			notifier := &recordingNotifier{err: errors.New("broker down")}
			svc := New(&fakeProcessor{err: boom, failAt: processor.StageSummarizing}, store, 1, logger.Nop(), notifier)
			defer svc.Close()

			audio := tempAudio(t, "a.wav")
			run, err := svc.Run(context.Background(), tt.source, audio)
			if !errors.Is(err, boom) {
				t.Fatalf("Run() error = %v, want %v", err, boom)
			}
			if run.Status != runs.StatusFailed || run.Error != "summarizing: model crashed" {
				t.Errorf("run = %+v", run)
			}
			if run.Transcript != "" {
				t.Error("failed run carries a transcript")
			}
			_, statErr := os.Stat(audio.Path)
			if exists := statErr == nil; exists != tt.wantExists {
				t.Errorf("audio exists = %v, want %v", exists, tt.wantExists)
			}
			if len(notifier.runs) != 1 {
				t.Errorf("notifications = %d, want 1", len(notifier.runs))
			}
		})
	}
}

func TestRunKeepsCallerOwnedAudio(t *testing.T) {
	tests := []struct {
		source   runs.Source
		wantKeep bool
	}{
		{source: runs.SourceCLI, wantKeep: true},
		{source: runs.SourceQueue, wantKeep: true},
		{source: runs.SourceInbox, wantKeep: false},
		{source: runs.SourceUpload, wantKeep: false},
		{source: runs.SourceRecording, wantKeep: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			proc := &fakeProcessor{}
			svc := New(proc, runs.NewStore(0, 0), 1, logger.Nop())
			defer svc.Close()

			if _, err := svc.Run(context.Background(), tt.source, tempAudio(t, "a.wav")); err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if got := proc.kept.Load(); got != tt.wantKeep {
				t.Errorf("KeepSource = %v, want %v", got, tt.wantKeep)
			}
		})
	}
}

func TestRunLeavesCLIFileInPlace(t *testing.T) {
	out := t.TempDir()
	cfg := &config.Config{Paths: config.PathsConfig{Output: out}}
	proc := processor.New(cfg, stubTranscriber{}, stubSummarizer{}, stubQuiz{}, logger.Nop())
	svc := New(proc, runs.NewStore(0, 0), 1, logger.Nop())
	defer svc.Close()

	audio := tempAudio(t, "lecture.mp3")
	run, err := svc.Run(context.Background(), runs.SourceCLI, audio)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if _, err := os.Stat(audio.Path); err != nil {
		t.Errorf("input file gone after run: %v", err)
	}
	if run.AudioPath == audio.Path || run.AudioPath == "" {
		t.Errorf("AudioPath = %q, want a copy in the run folder", run.AudioPath)
	}
	if _, err := os.Stat(run.AudioPath); err != nil {
		t.Errorf("archived copy missing: %v", err)
	}
}

type stubTranscriber struct{}

func (stubTranscriber) Name() string { return "stub" }
func (stubTranscriber) Transcribe(ctx context.Context, audio intake.Audio) (string, error) {
	return "cells divide", nil
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	return "- cells divide", nil
}

type stubQuiz struct{}

func (stubQuiz) Generate(ctx context.Context, transcript string) (string, error) {
	return "1. What do cells do?", nil
}

func TestSubmitProcessesInBackground(t *testing.T) {
	store := runs.NewStore(0, 0)
	proc := &fakeProcessor{block: make(chan struct{})}
	svc := New(proc, store, 2, logger.Nop())
	defer svc.Close()

	var ids []string
	for i := 0; i < 5; i++ {
		run, err := svc.Submit(context.Background(), runs.SourceUpload, tempAudio(t, "a.wav"))
		if err != nil {
			t.Fatalf("Submit() error: %v", err)
		}
		if run.Status != runs.StatusQueued {
			t.Errorf("Submit() status = %s, want queued", run.Status)
		}
		ids = append(ids, run.ID)
	}

	waitFor(t, func() bool { return proc.running.Load() == 2 })
	if active, _ := svc.Active(); active != 2 {
		t.Errorf("Active() = %d, want 2", active)
	}
	close(proc.block)
	svc.Wait()

	if peak := proc.peak.Load(); peak != 2 {
		t.Errorf("peak concurrency = %d, want 2", peak)
	}
	for _, id := range ids {
		run, err := store.Get(id)
		if err != nil || run.Status != runs.StatusDone {
			t.Errorf("run %s = %+v, %v", id, run, err)
		}
	}
	if active, capacity := svc.Active(); active != 0 || capacity != 2 {
		t.Errorf("Active() = %d/%d, want 0/2", active, capacity)
	}
}

func TestSubmitIgnoresRequestCancellation(t *testing.T) {
	store := runs.NewStore(0, 0)
	svc := New(&fakeProcessor{}, store, 1, logger.Nop())
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	run, err := svc.Submit(ctx, runs.SourceUpload, tempAudio(t, "a.wav"))
	cancel()
	if err != nil {
		t.Fatal(err)
	}
	svc.Wait()

	got, _ := store.Get(run.ID)
	if got.Status != runs.StatusDone {
		t.Errorf("status = %s, want done", got.Status)
	}
}

func TestCloseCancelsInFlightRuns(t *testing.T) {
	store := runs.NewStore(0, 0)
	svc := New(&fakeProcessor{block: make(chan struct{})}, store, 1, logger.Nop())

	run, err := svc.Submit(context.Background(), runs.SourceUpload, tempAudio(t, "a.wav"))
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { active, _ := svc.Active(); return active == 1 })
	svc.Close()

	got, _ := store.Get(run.ID)
	if got.Status != runs.StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if _, err := svc.Submit(context.Background(), runs.SourceUpload, tempAudio(t, "b.wav")); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() after Close = %v, want ErrClosed", err)
	}
	if _, err := svc.Run(context.Background(), runs.SourceCLI, tempAudio(t, "c.wav")); !errors.Is(err, ErrClosed) {
		t.Errorf("Run() after Close = %v, want ErrClosed", err)
	}
}

func TestCloseRacesWithSubmit(t *testing.T) {
	store := runs.NewStore(0, 0)
	svc := New(&fakeProcessor{}, store, 2, logger.Nop())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []string
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := svc.Submit(context.Background(), runs.SourceInbox, tempAudio(t, "a.wav"))
			if err != nil {
				if !errors.Is(err, ErrClosed) {
					t.Errorf("Submit() error = %v", err)
				}
				return
			}
			mu.Lock()
			accepted = append(accepted, run.ID)
			mu.Unlock()
		}()
	}
	svc.Close()
	wg.Wait()
	svc.Wait()

	for _, id := range accepted {
		run, err := store.Get(id)
		if err != nil || !run.Status.Terminal() {
			t.Errorf("run %s = %+v, %v; want terminal", id, run, err)
		}
	}
}

func TestSemaphore(t *testing.T) {
	s := newSemaphore(1)
	if err := s.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("acquire() on full semaphore = %v", err)
	}
	s.release()
	if s.inUse() != 0 || s.capacity() != 1 {
		t.Errorf("inUse/capacity = %d/%d", s.inUse(), s.capacity())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
