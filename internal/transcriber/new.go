package transcriber

import (
	"fmt"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/pkg/executor"
)

// New builds the backend selected by transcription.backend.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) (Transcriber, error) {
	tc := cfg.Transcription
	var pollTimeout time.Duration
	if tc.AssemblyAI.PollTimeout != nil {
		pollTimeout = *tc.AssemblyAI.PollTimeout
	}

	switch tc.Backend {
	case AssemblyAIName:
		return NewAssemblyAI(AssemblyAIConfig{
			BaseURL:      tc.AssemblyAI.BaseURL,
			APIKey:       tc.AssemblyAI.APIKey,
			PollInterval: tc.AssemblyAI.PollInterval,
			PollTimeout:  pollTimeout,
		}, log), nil
	case OpenAIName:
		return NewOpenAI(OpenAIConfig{
			BaseURL: tc.OpenAI.BaseURL,
			APIKey:  tc.OpenAI.APIKey,
			Model:   tc.OpenAI.Model,
		}), nil
	case WhisperCppName:
		return NewWhisperCpp(WhisperCppConfig{
			BinaryPath: tc.Whisper.BinaryPath,
			ModelPath:  tc.Whisper.ModelPath,
			Language:   tc.Whisper.Language,
			Threads:    tc.Whisper.Threads,
			FFmpegPath: cfg.FFmpeg.BinaryPath,
			TempDir:    cfg.Paths.Temp,
		}, exec, log), nil
	case VoskName:
		return NewVosk(VoskConfig{
			URL:        tc.Vosk.URL,
			SampleRate: tc.Vosk.SampleRate,
			FrameBytes: tc.Vosk.FrameBytes,
			FFmpegPath: cfg.FFmpeg.BinaryPath,
		}, exec, log), nil
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", tc.Backend)
	}
}
