package queue

import (
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
)

// Result statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// Command asks the service to process an audio file already on disk.
type Command struct {
	AudioPath string `json:"audioPath"`
	Name      string `json:"name,omitempty"`
}

// Result is published once per finished run.
type Result struct {
	RunID        string   `json:"runId"`
	Source       string   `json:"source,omitempty"`
	Name         string   `json:"name,omitempty"`
	Status       string   `json:"status"`
	Transcript   string   `json:"transcript,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Quiz         string   `json:"quiz,omitempty"`
	NotesPaths   []string `json:"notesPaths,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

func resultFromRun(run runs.Run) Result {
	res := Result{
		RunID:  run.ID,
		Source: string(run.Source),
		Name:   run.Name,
	}
	if run.Status == runs.StatusDone {
		res.Status = StatusSuccess
		res.Transcript = run.Transcript
		res.Summary = run.Summary
		res.Quiz = run.Quiz
		res.NotesPaths = run.NotesPaths
	} else {
		res.Status = StatusError
		res.ErrorMessage = run.Error
	}
	return res
}
