package transcriber

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nguyentantai21042004/lecture-notes/pkg/executor"
)

// convertToWAV normalizes any supported input to 16 kHz mono PCM WAV, the
// format whisper.cpp expects.
func convertToWAV(ctx context.Context, exec executor.Executor, ffmpeg, in, out string) error {
	args := []string{
		"-y",
		"-i", in,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		out,
	}
	if _, err := exec.Execute(ctx, ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg convert: %w", err)
	}
	return nil
}

// decodePCM returns raw little-endian 16-bit mono samples at sampleRate.
func decodePCM(ctx context.Context, exec executor.Executor, ffmpeg, in string, sampleRate int) ([]byte, error) {
	args := []string{
		"-nostdin",
		"-loglevel", "error",
		"-i", in,
		"-vn",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-",
	}
	out, err := exec.Execute(ctx, ffmpeg, args...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	return out, nil
}
