package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

// New builds the generator selected by llm.backend.
func New(cfg config.LLMConfig, log logger.Logger) (Generator, error) {
	switch cfg.Backend {
	case GeminiName:
		return NewGemini(cfg.Gemini.Model, cfg.Gemini.APIKeys, log)
	case OllamaName:
		return NewOllama(OllamaConfig{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.Ollama.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}

var ErrUnavailable = errors.New("llm backend unavailable")

// availabilityChecker is implemented by backends that can be probed before
// the first request.
type availabilityChecker interface {
	Available(ctx context.Context) bool
}

// CheckAvailable probes gen when its backend supports it. Backends without
// a probe are assumed reachable.
func CheckAvailable(ctx context.Context, gen Generator) error {
	checker, ok := gen.(availabilityChecker)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if !checker.Available(ctx) {
		return fmt.Errorf("%w: %s", ErrUnavailable, gen.Name())
	}
	return nil
}
