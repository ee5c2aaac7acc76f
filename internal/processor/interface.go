package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
)

// Processor runs one lecture through transcription, summarization and quiz
// generation, in that order.
type Processor interface {
	Process(ctx context.Context, req Request) (*Result, error)
}

// Stage names a pipeline step.
type Stage string

const (
	StageTranscribing Stage = "transcribing"
	StageSummarizing  Stage = "summarizing"
	StageQuizzing     Stage = "quizzing"
)

type Request struct {
	RunID string
	Audio intake.Audio
	// OnStage is called before each stage starts. Optional.
	OnStage func(Stage)
	// KeepSource copies the audio into the run folder instead of moving
	// it. Set for files the caller still owns.
	KeepSource bool
}

type Result struct {
	RunID      string
	Transcript string
	Summary    string
	Quiz       string
	NotesPaths []string
	// AudioPath is where the audio lives after the run; empty when it was
	// not archived.
	AudioPath string
	Duration  time.Duration
}

// StageError reports the stage that aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
