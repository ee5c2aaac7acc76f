package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

const (
	// AssemblyAIName is the backend name used in config and errors.
	AssemblyAIName = "assemblyai"

	defaultPollInterval = 3 * time.Second
)

// AssemblyAIConfig configures the hosted asynchronous backend.
type AssemblyAIConfig struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	// PollTimeout bounds the whole poll loop. Zero leaves it to ctx.
	PollTimeout time.Duration
	HTTPClient  *http.Client
	Clock       Clock
}

// assemblyAI uploads audio, submits a transcription job and polls it until
// a terminal status is reported.
type assemblyAI struct {
	cfg    AssemblyAIConfig
	client *http.Client
	clock  Clock
	logger logger.Logger
}

func NewAssemblyAI(cfg AssemblyAIConfig, log logger.Logger) Transcriber {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &assemblyAI{cfg: cfg, client: client, clock: clock, logger: log}
}

func (a *assemblyAI) Name() string { return AssemblyAIName }

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type submitRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Text   *string `json:"text"`
	Error  string  `json:"error"`
}

func (a *assemblyAI) Transcribe(ctx context.Context, audio intake.Audio) (string, error) {
	f, err := os.Open(audio.Path)
	if err != nil {
		return "", newError(AssemblyAIName, OpUpload, fmt.Errorf("open audio: %w", err))
	}
	defer f.Close()

	uploadURL, err := a.upload(ctx, f)
	if err != nil {
		return "", newError(AssemblyAIName, OpUpload, err)
	}
	a.logger.Debug(ctx, "Audio uploaded: %s", uploadURL)

	jobID, err := a.submit(ctx, uploadURL)
	if err != nil {
		return "", newError(AssemblyAIName, OpSubmit, err)
	}
	a.logger.Info(ctx, "Transcription job submitted: %s", jobID)

	return a.poll(ctx, jobID)
}

// upload streams the raw audio bytes and returns the upload handle.
func (a *assemblyAI) upload(ctx context.Context, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v2/upload", body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var resp uploadResponse
	if err := a.do(req, &resp); err != nil {
		return "", err
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("%w: upload_url", ErrMissingField)
	}
	return resp.UploadURL, nil
}

// submit creates the transcription job and returns its id.
func (a *assemblyAI) submit(ctx context.Context, uploadURL string) (string, error) {
	payload, err := json.Marshal(submitRequest{AudioURL: uploadURL})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v2/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp transcriptResponse
	if err := a.do(req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: id", ErrMissingField)
	}
	return resp.ID, nil
}

// poll checks the job status immediately, then once per poll interval,
// until the job completes or fails.
func (a *assemblyAI) poll(ctx context.Context, jobID string) (string, error) {
	job := &Job{ID: jobID, Status: StatusQueued}
	start := a.clock.Now()

	for {
		resp, err := a.status(ctx, jobID)
		if err != nil {
			return "", newError(AssemblyAIName, OpPoll, err)
		}
		job.Polls++

		status, err := ParseStatus(resp.Status)
		if err != nil {
			return "", newError(AssemblyAIName, OpPoll, err)
		}
		if err := job.Advance(status); err != nil {
			return "", newError(AssemblyAIName, OpPoll, err)
		}

		switch job.Status {
		case StatusCompleted:
			if resp.Text == nil {
				return "", newError(AssemblyAIName, OpPoll, fmt.Errorf("%w: text", ErrMissingField))
			}
			a.logger.Info(ctx, "Transcription job %s completed after %d polls", jobID, job.Polls)
			return *resp.Text, nil
		case StatusFailed:
			msg := resp.Error
			if msg == "" {
				msg = "no error message"
			}
			return "", newError(AssemblyAIName, OpRemote, fmt.Errorf("%w: %s", ErrJobFailed, msg))
		}

		a.logger.Debug(ctx, "Transcription job %s is %s, waiting %s", jobID, job.Status, a.cfg.PollInterval)
		if err := a.clock.Sleep(ctx, a.cfg.PollInterval); err != nil {
			return "", newError(AssemblyAIName, OpPoll, err)
		}
		if a.cfg.PollTimeout > 0 && a.clock.Now().Sub(start) >= a.cfg.PollTimeout {
			return "", newError(AssemblyAIName, OpPoll, fmt.Errorf("%w: job %s still %s after %s", ErrPollTimeout, jobID, job.Status, a.cfg.PollTimeout))
		}
	}
}

func (a *assemblyAI) status(ctx context.Context, jobID string) (*transcriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/v2/transcript/"+jobID, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var resp transcriptResponse
	if err := a.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends an authorized request and decodes a JSON response into out.
func (a *assemblyAI) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
