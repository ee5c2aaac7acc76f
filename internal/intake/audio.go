package intake

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrRecorderClosed    = errors.New("recorder already saved")
	ErrBufferFull        = errors.New("recording buffer full")
	ErrInvalidFrame      = errors.New("frame is not 16-bit PCM")
)

// supportedFormats are the extensions accepted for lecture audio.
var supportedFormats = []string{"mp3", "wav", "m4a", "ogg", "flac", "webm"}

// Audio is a lecture clip persisted to a temporary file.
type Audio struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// Remove deletes the backing file. Missing files are not an error.
func (a Audio) Remove() error {
	if a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove audio %s: %w", a.Path, err)
	}
	return nil
}

// FormatOf returns the normalized format for a file name.
func FormatOf(name string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, f := range supportedFormats {
		if ext == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// IsAudioFile reports whether the path has a supported audio extension.
func IsAudioFile(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

// FromFile describes an existing file on disk without copying it.
func FromFile(path string) (Audio, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Audio{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Audio{}, fmt.Errorf("stat audio: %w", err)
	}
	if info.IsDir() {
		return Audio{}, fmt.Errorf("audio path %s is a directory", path)
	}
	return Audio{
		Path:   path,
		Name:   filepath.Base(path),
		Format: format,
		Size:   info.Size(),
	}, nil
}
