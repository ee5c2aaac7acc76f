// Package quiz turns a lecture transcript into multiple choice questions.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/lecture-notes/internal/llm"
)

// PromptPrefix is prepended verbatim to the transcript.
const PromptPrefix = "Create 5 multiple choice questions from this content:\n"

var ErrEmptyQuiz = errors.New("quiz generator returned no text")

// Generator produces quiz text. Output is sampled, so repeated calls with
// the same transcript are not expected to match.
type Generator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

type implGenerator struct {
	llm         llm.Generator
	maxLength   int
	temperature float64
}

func New(gen llm.Generator, maxLength int, temperature float64) Generator {
	if maxLength <= 0 {
		maxLength = 250
	}
	return &implGenerator{llm: gen, maxLength: maxLength, temperature: temperature}
}

// BuildPrompt returns the fixed template followed by the unmodified transcript.
func BuildPrompt(transcript string) string {
	return PromptPrefix + transcript
}

func (g *implGenerator) Generate(ctx context.Context, transcript string) (string, error) {
	text, err := g.llm.Generate(ctx, llm.Request{
		Prompt:      BuildPrompt(transcript),
		Sample:      true,
		Temperature: g.temperature,
		MaxTokens:   g.maxLength,
	})
	if err != nil {
		return "", fmt.Errorf("generate quiz with %s: %w", g.llm.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyQuiz
	}
	return text, nil
}
