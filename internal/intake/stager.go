package intake

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stager buffers an incoming audio stream to a temporary file.
type Stager interface {
	Stage(ctx context.Context, name string, r io.Reader) (Audio, error)
}

type implStager struct {
	tempDir string
}

// NewStager creates a Stager writing into tempDir.
func NewStager(tempDir string) Stager {
	return &implStager{tempDir: tempDir}
}

// Stage copies r into a new temp file named after the original extension.
// An empty stream is accepted and produces an empty file.
func (s *implStager) Stage(ctx context.Context, name string, r io.Reader) (Audio, error) {
	format, err := FormatOf(name)
	if err != nil {
		return Audio{}, err
	}

	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return Audio{}, fmt.Errorf("create temp dir: %w", err)
	}

	f, err := os.CreateTemp(s.tempDir, "lecture-*."+format)
	if err != nil {
		return Audio{}, fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return Audio{}, fmt.Errorf("write temp audio: %w", err)
	}

	return Audio{
		Path:   f.Name(),
		Name:   filepath.Base(name),
		Format: format,
		Size:   n,
	}, nil
}

// ctxReader stops a copy once the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
