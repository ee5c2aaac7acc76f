package transcriber

import (
	"fmt"
	"strings"
)

// JobStatus is the remote lifecycle state of a hosted transcription job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// ParseStatus maps a wire status to a JobStatus. AssemblyAI reports
// failures as "error".
func ParseStatus(s string) (JobStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued":
		return StatusQueued, nil
	case "processing":
		return StatusProcessing, nil
	case "completed":
		return StatusCompleted, nil
	case "failed", "error":
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks one remote transcription job as observed through polling.
// It is forgotten once a terminal state has been read.
type Job struct {
	ID     string
	Status JobStatus
	Polls  int
}

// Advance applies an observed status, enforcing the job state machine.
// Repeating the current non-terminal status is allowed.
func (j *Job) Advance(to JobStatus) error {
	if !isValidTransition(j.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}
	j.Status = to
	return nil
}

func isValidTransition(from, to JobStatus) bool {
	switch from {
	case StatusQueued:
		return to == StatusQueued || to == StatusProcessing || to == StatusCompleted || to == StatusFailed
	case StatusProcessing:
		return to == StatusProcessing || to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}
