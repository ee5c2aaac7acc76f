package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/pkg/executor"
)

// WhisperCppName is the backend name used in config and errors.
const WhisperCppName = "whispercpp"

type WhisperCppConfig struct {
	BinaryPath string
	ModelPath  string
	Language   string
	Threads    int
	FFmpegPath string
	TempDir    string
}

// whisperCpp runs local inference with the whisper.cpp CLI.
type whisperCpp struct {
	cfg      WhisperCppConfig
	executor executor.Executor
	logger   logger.Logger
}

func NewWhisperCpp(cfg WhisperCppConfig, exec executor.Executor, log logger.Logger) Transcriber {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 4
	}
	return &whisperCpp{cfg: cfg, executor: exec, logger: log}
}

func (w *whisperCpp) Name() string { return WhisperCppName }

// Transcribe converts the clip to WAV, runs whisper.cpp with text output and
// reads the transcript back.
func (w *whisperCpp) Transcribe(ctx context.Context, audio intake.Audio) (string, error) {
	if w.cfg.TempDir != "" {
		if err := os.MkdirAll(w.cfg.TempDir, 0755); err != nil {
			return "", newError(WhisperCppName, OpRun, fmt.Errorf("create temp dir: %w", err))
		}
	}
	workDir, err := os.MkdirTemp(w.cfg.TempDir, "whisper-*")
	if err != nil {
		return "", newError(WhisperCppName, OpRun, fmt.Errorf("create work dir: %w", err))
	}
	defer os.RemoveAll(workDir)

	wavPath := filepath.Join(workDir, "audio.wav")
	if err := convertToWAV(ctx, w.executor, w.cfg.FFmpegPath, audio.Path, wavPath); err != nil {
		return "", newError(WhisperCppName, OpRun, err)
	}

	outputPrefix := filepath.Join(workDir, "transcript")

	// -otxt: plain text output, -of: output file prefix (".txt" is appended)
	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", wavPath,
		"-otxt",
		"-of", outputPrefix,
		"-t", strconv.Itoa(w.cfg.Threads),
		"-np",
	}
	if lang := strings.TrimSpace(w.cfg.Language); lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}

	w.logger.Info(ctx, "Running whisper.cpp with %d threads: %s", w.cfg.Threads, audio.Name)
	if _, err := w.executor.Execute(ctx, w.cfg.BinaryPath, args...); err != nil {
		return "", newError(WhisperCppName, OpRun, fmt.Errorf("whisper transcribe: %w", err))
	}

	data, err := os.ReadFile(outputPrefix + ".txt")
	if err != nil {
		return "", newError(WhisperCppName, OpDecode, fmt.Errorf("read transcript: %w", err))
	}
	return strings.Join(strings.Fields(string(data)), " "), nil
}
