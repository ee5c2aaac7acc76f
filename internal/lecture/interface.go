package lecture

import (
	"context"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
)

// Service accepts lecture audio and tracks each one as a run.
type Service interface {
	// Submit registers a run and processes it in the background.
	Submit(ctx context.Context, source runs.Source, audio intake.Audio) (runs.Run, error)
	// Run registers a run and processes it before returning. The returned
	// run is in a terminal state; err is the stage failure, if any.
	Run(ctx context.Context, source runs.Source, audio intake.Audio) (runs.Run, error)
	// Active reports how many runs hold a processing slot, out of capacity.
	Active() (active, capacity int)
	// Wait blocks until every submitted run has finished.
	Wait()
	// Close cancels in-flight runs and waits for them.
	Close()
}

// Notifier is told about every run that reaches a terminal state.
type Notifier interface {
	Notify(ctx context.Context, run runs.Run) error
}
