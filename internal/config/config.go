package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	EnvFile       string              `yaml:"env_file"`
	Server        ServerConfig        `yaml:"server"`
	Paths         PathsConfig         `yaml:"paths"`
	Logging       LoggingConfig       `yaml:"logging"`
	Performance   PerformanceConfig   `yaml:"performance"`
	FFmpeg        FFmpegConfig        `yaml:"ffmpeg"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	LLM           LLMConfig           `yaml:"llm"`
	Summary       SummaryConfig       `yaml:"summary"`
	Quiz          QuizConfig          `yaml:"quiz"`
	Recording     RecordingConfig     `yaml:"recording"`
	Watcher       WatcherConfig       `yaml:"watcher"`
	Queue         QueueConfig         `yaml:"queue"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gte=0,lte=65535"`
}

type PathsConfig struct {
	Inbox  string `yaml:"inbox"`
	Temp   string `yaml:"temp"`
	Output string `yaml:"output"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" validate:"gte=0"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
}

// TranscriptionConfig selects one speech-to-text backend and carries the
// settings for every backend. API keys come from the environment only.
type TranscriptionConfig struct {
	Backend    string           `yaml:"backend" validate:"required,oneof=assemblyai openai whispercpp vosk"`
	AssemblyAI AssemblyAIConfig `yaml:"assemblyai"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Whisper    WhisperConfig    `yaml:"whisper"`
	Vosk       VoskConfig       `yaml:"vosk"`
}

type AssemblyAIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"-"`
	PollInterval time.Duration `yaml:"poll_interval"`
	// PollTimeout bounds a whole poll loop. Unset means 30m; 0 disables it.
	PollTimeout *time.Duration `yaml:"poll_timeout"`
}

type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Threads    int    `yaml:"threads"`
}

type VoskConfig struct {
	URL        string `yaml:"url"`
	SampleRate int    `yaml:"sample_rate"`
	FrameBytes int    `yaml:"frame_bytes"`
}

type LLMConfig struct {
	Backend string       `yaml:"backend" validate:"required,oneof=gemini ollama"`
	Gemini  GeminiConfig `yaml:"gemini"`
	Ollama  OllamaConfig `yaml:"ollama"`
}

type GeminiConfig struct {
	Model   string   `yaml:"model"`
	APIKeys []string `yaml:"-"`
}

type OllamaConfig struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// SummaryConfig bounds the summary length in words.
type SummaryConfig struct {
	MinLength int `yaml:"min_length" validate:"gte=0"`
	MaxLength int `yaml:"max_length" validate:"gte=0"`
}

type QuizConfig struct {
	MaxLength int `yaml:"max_length" validate:"gte=0"`
	// Temperature defaults to 0.7 when unset; an explicit 0 is kept.
	Temperature *float64 `yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
}

type RecordingConfig struct {
	MaxFrames   int           `yaml:"max_frames" validate:"gte=0"`
	MaxBytes    int64         `yaml:"max_bytes" validate:"gte=0"`
	SampleRate  int           `yaml:"sample_rate" validate:"gte=0"`
	MaxSessions int           `yaml:"max_sessions" validate:"gte=0"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type WatcherConfig struct {
	Enabled bool `yaml:"enabled"`
}

type QueueConfig struct {
	URL          string `yaml:"url"`
	CommandQueue string `yaml:"command_queue"`
	ResultQueue  string `yaml:"result_queue"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}

	switch c.Transcription.Backend {
	case "assemblyai":
		if c.Transcription.AssemblyAI.APIKey == "" {
			return fmt.Errorf("ASSEMBLYAI_API_KEY is required for the assemblyai backend")
		}
	case "openai":
		if c.Transcription.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
	case "whispercpp":
		if c.Transcription.Whisper.ModelPath == "" {
			return fmt.Errorf("transcription.whisper.model_path is required")
		}
	}
	if c.LLM.Backend == "gemini" && len(c.LLM.Gemini.APIKeys) == 0 {
		return fmt.Errorf("GEMINI_API_KEYS is required for the gemini backend")
	}
	if c.Summary.MaxLength > 0 && c.Summary.MinLength > c.Summary.MaxLength {
		return fmt.Errorf("summary.min_length (%d) exceeds summary.max_length (%d)", c.Summary.MinLength, c.Summary.MaxLength)
	}

	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Paths.Inbox == "" {
		c.Paths.Inbox = "data/inbox"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}

	aai := &c.Transcription.AssemblyAI
	if aai.BaseURL == "" {
		aai.BaseURL = "https://api.assemblyai.com"
	}
	if aai.PollInterval == 0 {
		aai.PollInterval = 3 * time.Second
	}
	if aai.PollTimeout == nil {
		aai.PollTimeout = ptr(30 * time.Minute)
	}
	if c.Transcription.OpenAI.BaseURL == "" {
		c.Transcription.OpenAI.BaseURL = "https://api.openai.com"
	}
	if c.Transcription.OpenAI.Model == "" {
		c.Transcription.OpenAI.Model = "whisper-1"
	}
	if c.Transcription.Whisper.BinaryPath == "" {
		c.Transcription.Whisper.BinaryPath = "whisper-cli"
	}
	if c.Transcription.Whisper.Threads == 0 {
		c.Transcription.Whisper.Threads = 4
	}
	if c.Transcription.Vosk.URL == "" {
		c.Transcription.Vosk.URL = "ws://localhost:2700"
	}
	if c.Transcription.Vosk.SampleRate == 0 {
		c.Transcription.Vosk.SampleRate = 16000
	}
	if c.Transcription.Vosk.FrameBytes == 0 {
		c.Transcription.Vosk.FrameBytes = 8000
	}

	if c.LLM.Gemini.Model == "" {
		c.LLM.Gemini.Model = "gemini-2.5-flash"
	}
	if c.LLM.Ollama.BaseURL == "" {
		c.LLM.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.LLM.Ollama.Model == "" {
		c.LLM.Ollama.Model = "llama3"
	}
	if c.LLM.Ollama.Timeout == 0 {
		c.LLM.Ollama.Timeout = 5 * time.Minute
	}

	if c.Summary.MinLength == 0 {
		c.Summary.MinLength = 80
	}
	if c.Summary.MaxLength == 0 {
		c.Summary.MaxLength = 200
	}
	if c.Summary.MinLength > c.Summary.MaxLength {
		c.Summary.MinLength = c.Summary.MaxLength
	}
	if c.Quiz.MaxLength == 0 {
		c.Quiz.MaxLength = 250
	}
	if c.Quiz.Temperature == nil {
		c.Quiz.Temperature = ptr(0.7)
	}
	if c.Recording.MaxFrames == 0 {
		c.Recording.MaxFrames = 4096
	}
	if c.Recording.SampleRate == 0 {
		c.Recording.SampleRate = 16000
	}
	if c.Recording.MaxBytes == 0 {
		c.Recording.MaxBytes = 256 << 20
	}
	if c.Recording.MaxSessions == 0 {
		c.Recording.MaxSessions = 16
	}
	if c.Recording.IdleTimeout == 0 {
		c.Recording.IdleTimeout = 10 * time.Minute
	}
	if c.Queue.CommandQueue == "" {
		c.Queue.CommandQueue = "lecture.notes.cmd"
	}
	if c.Queue.ResultQueue == "" {
		c.Queue.ResultQueue = "lecture.notes.result"
	}
}

func ptr[T any](v T) *T {
	return &v
}

// describe turns validator output into "<yaml.path> <problem>" messages.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %s=%s check", field, fe.Tag(), fe.Param())
	}
}
