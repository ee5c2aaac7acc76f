package runs

import "time"

// Status is the lifecycle state of one lecture run.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusTranscribing Status = "transcribing"
	StatusSummarizing  Status = "summarizing"
	StatusQuizzing     Status = "quizzing"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// Source tells where the audio of a run came from.
type Source string

const (
	SourceUpload    Source = "upload"
	SourceRecording Source = "recording"
	SourceInbox     Source = "inbox"
	SourceQueue     Source = "queue"
	SourceCLI       Source = "cli"
)

// Run is a snapshot of one lecture moving through the pipeline.
type Run struct {
	ID         string    `json:"id"`
	Source     Source    `json:"source"`
	Name       string    `json:"name"`
	AudioPath  string    `json:"-"`
	Status     Status    `json:"status"`
	Transcript string    `json:"transcript,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Quiz       string    `json:"quiz,omitempty"`
	NotesPaths []string  `json:"notesPaths,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Terminal reports whether the run has finished.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// isValidTransition enforces the run state machine edges. Stages only move
// forward and every active state may fail.
func isValidTransition(from, to Status) bool {
	switch from {
	case StatusQueued:
		return to == StatusTranscribing || to == StatusFailed
	case StatusTranscribing:
		return to == StatusSummarizing || to == StatusFailed
	case StatusSummarizing:
		return to == StatusQuizzing || to == StatusFailed
	case StatusQuizzing:
		return to == StatusDone || to == StatusFailed
	default:
		return false
	}
}
