package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

// GeminiName is the backend name used in config.
const GeminiName = "gemini"

var ErrEmptyResponse = errors.New("empty response from model")

// generateFunc performs one GenerateContent call with a single API key.
type generateFunc func(ctx context.Context, apiKey, model, prompt string, cfg *genai.GenerateContentConfig) (string, error)

type gemini struct {
	model    string
	apiKeys  []string
	generate generateFunc
	logger   logger.Logger

	mu         sync.Mutex
	currentKey int
}

// NewGemini returns a Gemini generator that rotates through apiKeys when a
// key is rate limited.
func NewGemini(model string, apiKeys []string, log logger.Logger) (Generator, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("gemini: no API keys")
	}
	return &gemini{
		model:    model,
		apiKeys:  apiKeys,
		generate: generateContent,
		logger:   log,
	}, nil
}

func (g *gemini) Name() string { return GeminiName }

// Generate tries each key at most once. Rate limit and quota errors rotate
// to the next key; any other error is returned immediately.
func (g *gemini) Generate(ctx context.Context, req Request) (string, error) {
	cfg := buildConfig(req)

	var lastErr error
	for range len(g.apiKeys) {
		idx, key := g.key()

		text, err := g.generate(ctx, key, g.model, req.Prompt, cfg)
		if err != nil {
			if isRateLimited(err) {
				g.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				g.rotateKey(idx)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}
		return text, nil
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (g *gemini) key() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentKey, g.apiKeys[g.currentKey]
}

// rotateKey moves past idx unless another caller already did.
func (g *gemini) rotateKey(idx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentKey == idx {
		g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
	}
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func buildConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.temperature())),
	}
	if !req.Sample {
		cfg.TopK = genai.Ptr[float32](1)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return cfg
}

func generateContent(ctx context.Context, apiKey, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var text string
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		if text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyResponse
}
