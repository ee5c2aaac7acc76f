package transcriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
)

// Transcriber converts lecture audio into a plain text transcript.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio intake.Audio) (string, error)
}

// Operations reported in Error.Op.
const (
	OpUpload = "upload"
	OpSubmit = "submit"
	OpPoll   = "poll"
	OpRemote = "remote"
	OpDecode = "decode"
	OpRun    = "run"
)

var (
	ErrMissingField      = errors.New("response missing expected field")
	ErrJobFailed         = errors.New("transcription job failed")
	ErrPollTimeout       = errors.New("transcription job did not finish in time")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrUnknownStatus     = errors.New("unknown job status")
)

// Error is returned by every backend. All errors are terminal for the
// current request.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(backend, op string, err error) *Error {
	return &Error{Backend: backend, Op: op, Err: err}
}
