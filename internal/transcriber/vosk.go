package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/pkg/executor"
)

// VoskName is the backend name used in config and errors.
const VoskName = "vosk"

type VoskConfig struct {
	URL        string
	SampleRate int
	// FrameBytes is the size of each PCM chunk fed to the recognizer.
	FrameBytes int
	FFmpegPath string
	Dialer     *websocket.Dialer
}

// vosk decodes audio offline by streaming PCM frames to a Vosk server.
type vosk struct {
	cfg      VoskConfig
	dialer   *websocket.Dialer
	executor executor.Executor
	logger   logger.Logger
}

func NewVosk(cfg VoskConfig, exec executor.Executor, log logger.Logger) Transcriber {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.FrameBytes <= 0 {
		cfg.FrameBytes = 8000
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &vosk{cfg: cfg, dialer: dialer, executor: exec, logger: log}
}

func (v *vosk) Name() string { return VoskName }

type voskConfigMessage struct {
	Config struct {
		SampleRate int `json:"sample_rate"`
	} `json:"config"`
}

type voskResult struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

func (v *vosk) Transcribe(ctx context.Context, audio intake.Audio) (string, error) {
	pcm, err := decodePCM(ctx, v.executor, v.cfg.FFmpegPath, audio.Path, v.cfg.SampleRate)
	if err != nil {
		return "", newError(VoskName, OpRun, err)
	}

	conn, _, err := v.dialer.DialContext(ctx, v.cfg.URL, nil)
	if err != nil {
		return "", newError(VoskName, OpRemote, fmt.Errorf("dial %s: %w", v.cfg.URL, err))
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var msg voskConfigMessage
	msg.Config.SampleRate = v.cfg.SampleRate
	if err := conn.WriteJSON(msg); err != nil {
		return "", v.connError(ctx, fmt.Errorf("send config: %w", err))
	}

	var parts []string
	frames := 0
	for off := 0; off < len(pcm); off += v.cfg.FrameBytes {
		end := min(off+v.cfg.FrameBytes, len(pcm))
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return "", v.connError(ctx, fmt.Errorf("send frame: %w", err))
		}
		res, err := readResult(conn)
		if err != nil {
			return "", v.connError(ctx, err)
		}
		if t := strings.TrimSpace(res.Text); t != "" {
			parts = append(parts, t)
		}
		frames++
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
		return "", v.connError(ctx, fmt.Errorf("send eof: %w", err))
	}
	final, err := readResult(conn)
	if err != nil {
		return "", v.connError(ctx, err)
	}
	if t := strings.TrimSpace(final.Text); t != "" {
		parts = append(parts, t)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	v.logger.Debug(ctx, "Vosk decoded %d frames of %s", frames, audio.Name)
	return strings.Join(parts, " "), nil
}

// connError prefers the context error when the connection was closed by
// cancellation.
func (v *vosk) connError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return newError(VoskName, OpRemote, ctx.Err())
	}
	return newError(VoskName, OpRemote, err)
}

func readResult(conn *websocket.Conn) (voskResult, error) {
	var res voskResult
	_, data, err := conn.ReadMessage()
	if err != nil {
		return res, fmt.Errorf("read result: %w", err)
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("%w: %v", ErrMissingField, err)
	}
	return res, nil
}
