package llm

import "context"

// Generator produces text from a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Request describes one generation call.
type Request struct {
	Prompt string
	System string
	// Sample enables stochastic decoding at Temperature. When false the
	// backend decodes greedily.
	Sample      bool
	Temperature float64
	// MaxTokens caps the generated length. Zero leaves the backend default.
	MaxTokens int
}

// temperature returns the effective sampling temperature.
func (r Request) temperature() float64 {
	if !r.Sample {
		return 0
	}
	return r.Temperature
}
