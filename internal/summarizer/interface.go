package summarizer

import "context"

// Summarizer reduces a lecture transcript to short study notes.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}
