package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
)

// OpenAIName is the backend name used in config and errors.
const OpenAIName = "openai"

type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// openAI posts the whole clip to the audio transcriptions endpoint and
// blocks until the text comes back.
type openAI struct {
	cfg    OpenAIConfig
	client *http.Client
}

func NewOpenAI(cfg OpenAIConfig) Transcriber {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Minute}
	}
	return &openAI{cfg: cfg, client: client}
}

func (o *openAI) Name() string { return OpenAIName }

type openAIResponse struct {
	Text *string `json:"text"`
}

func (o *openAI) Transcribe(ctx context.Context, audio intake.Audio) (string, error) {
	f, err := os.Open(audio.Path)
	if err != nil {
		return "", newError(OpenAIName, OpUpload, fmt.Errorf("open audio: %w", err))
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", o.cfg.Model); err != nil {
		return "", newError(OpenAIName, OpUpload, err)
	}
	name := audio.Name
	if name == "" {
		name = "audio." + audio.Format
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", newError(OpenAIName, OpUpload, err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", newError(OpenAIName, OpUpload, err)
	}
	if err := mw.Close(); err != nil {
		return "", newError(OpenAIName, OpUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", newError(OpenAIName, OpUpload, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return "", newError(OpenAIName, OpUpload, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", newError(OpenAIName, OpRemote, fmt.Errorf("openai http %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var or openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", newError(OpenAIName, OpDecode, err)
	}
	if or.Text == nil {
		return "", newError(OpenAIName, OpDecode, fmt.Errorf("%w: text", ErrMissingField))
	}
	return *or.Text, nil
}
