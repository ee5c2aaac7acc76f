package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
)

// archiveAudio moves the processed audio into dir so it stays playable and
// is not picked up again from the inbox. With keepSource the audio is
// copied and the original is left in place.
func (p *implProcessor) archiveAudio(ctx context.Context, audio intake.Audio, dir string, keepSource bool) (string, error) {
	if audio.Path == "" {
		return "", nil
	}
	name := audio.Name
	if name == "" {
		name = filepath.Base(audio.Path)
	}
	destPath := filepath.Join(dir, "audio"+filepath.Ext(name))

	p.logger.Info(ctx, "Archiving audio: %s -> %s", audio.Path, destPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	if keepSource {
		if err := copyFile(audio.Path, destPath); err != nil {
			return "", fmt.Errorf("archive audio: %w", err)
		}
		return destPath, nil
	}
	if err := os.Rename(audio.Path, destPath); err != nil {
		// Rename fails across devices; copy instead
		if err := copyFile(audio.Path, destPath); err != nil {
			return "", fmt.Errorf("archive audio: %w", err)
		}
		p.cleanupTempFile(ctx, audio.Path)
	}
	return destPath, nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("write destination: %w", err)
	}
	return out.Close()
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (p *implProcessor) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	}
}
