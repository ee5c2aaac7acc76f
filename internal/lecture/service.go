package lecture

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/processor"
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
)

var ErrClosed = errors.New("lecture service closed")

func (s *implService) Submit(ctx context.Context, source runs.Source, audio intake.Audio) (runs.Run, error) {
	run, err := s.register(source, audio)
	if err != nil {
		return runs.Run{}, err
	}
	s.logger.Info(ctx, "Run %s queued: %s (%s)", run.ID, audio.Name, source)

	go func() {
		defer s.wg.Done()

		// Runs outlive the request that submitted them.
		runCtx := logger.WithRunID(s.ctx, run.ID)
		if err := s.semaphore.acquire(runCtx); err != nil {
			s.finish(runCtx, run.ID, audio, nil, err)
			return
		}
		defer s.semaphore.release()

		_, _ = s.execute(runCtx, run.ID, source, audio)
	}()

	return run, nil
}

func (s *implService) Run(ctx context.Context, source runs.Source, audio intake.Audio) (runs.Run, error) {
	run, err := s.register(source, audio)
	if err != nil {
		return runs.Run{}, err
	}
	defer s.wg.Done()

	ctx, stop := mergeCancel(ctx, s.ctx)
	defer stop()
	ctx = logger.WithRunID(ctx, run.ID)

	if err := s.semaphore.acquire(ctx); err != nil {
		return s.finish(ctx, run.ID, audio, nil, err)
	}
	defer s.semaphore.release()

	return s.execute(ctx, run.ID, source, audio)
}

func (s *implService) Active() (int, int) {
	return s.semaphore.inUse(), s.semaphore.capacity()
}

func (s *implService) Wait() {
	s.wg.Wait()
}

func (s *implService) Close() {
	s.mu.Lock()
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

// register creates the run and counts it in the WaitGroup, unless the
// service is closed. The caller must call wg.Done.
func (s *implService) register(source runs.Source, audio intake.Audio) (runs.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return runs.Run{}, ErrClosed
	}
	s.wg.Add(1)
	return s.store.Create(source, audio.Name, audio.Path), nil
}

func (s *implService) execute(ctx context.Context, runID string, source runs.Source, audio intake.Audio) (runs.Run, error) {
	res, err := s.processor.Process(ctx, processor.Request{
		RunID:      runID,
		Audio:      audio,
		KeepSource: callerOwned(source),
		OnStage: func(stage processor.Stage) {
			if _, err := s.store.Transition(runID, runs.Status(stage)); err != nil {
				s.logger.Warn(ctx, "Failed to record stage %s: %v", stage, err)
			}
		},
	})
	return s.finish(ctx, runID, audio, res, err)
}

// finish records the terminal state, drops staged audio of failed runs and
// notifies listeners.
func (s *implService) finish(ctx context.Context, runID string, audio intake.Audio, res *processor.Result, procErr error) (runs.Run, error) {
	var (
		final runs.Run
		err   error
	)
	if procErr != nil {
		s.logger.Error(ctx, "Run %s failed: %v", runID, procErr)
		final, err = s.store.Fail(runID, procErr)
		if source := final.Source; source == runs.SourceUpload || source == runs.SourceRecording {
			if rmErr := audio.Remove(); rmErr != nil {
				s.logger.Warn(ctx, "Failed to remove staged audio: %v", rmErr)
			}
		}
	} else {
		final, err = s.store.Complete(runID, runs.Outcome{
			Transcript: res.Transcript,
			Summary:    res.Summary,
			Quiz:       res.Quiz,
			NotesPaths: res.NotesPaths,
			AudioPath:  res.AudioPath,
		})
		s.logger.Info(ctx, "Run %s done in %s", runID, res.Duration)
	}
	if err != nil {
		return final, fmt.Errorf("record run result: %w", err)
	}

	for _, n := range s.notifiers {
		if nErr := n.Notify(ctx, final); nErr != nil {
			s.logger.Warn(ctx, "Failed to notify run %s: %v", runID, nErr)
		}
	}
	return final, procErr
}

// callerOwned reports whether the audio of source belongs to the caller
// rather than to the service.
func callerOwned(source runs.Source) bool {
	return source == runs.SourceCLI || source == runs.SourceQueue
}

// mergeCancel returns a context derived from ctx that is also cancelled when
// other is done.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
