package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/lecture-notes/internal/llm"
)

var ErrEmptySummary = errors.New("summarizer returned no text")

const systemPrompt = `You are a teaching assistant who writes concise study notes from lecture transcripts.`

const summaryPrompt = `Summarize the lecture transcript below as study notes.

Requirements:
- Between %d and %d words
- Keep the key concepts, definitions and conclusions in the order they appear
- Plain prose or short bullet points, no preamble

Transcript:
---
%s
---`

// tokensPerWord converts the word bound into a generous token budget so the
// model is never cut off before the word limit applies.
const tokensPerWord = 2

// Summarize makes exactly one greedy generation call and returns its output
// bounded to the configured maximum number of words.
func (s *implSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, s.minLength, s.maxLength, transcript)

	text, err := s.generator.Generate(ctx, llm.Request{
		Prompt:    prompt,
		System:    systemPrompt,
		Sample:    false,
		MaxTokens: s.maxLength * tokensPerWord,
	})
	if err != nil {
		return "", fmt.Errorf("summarize with %s: %w", s.generator.Name(), err)
	}

	summary, truncated := truncateWords(strings.TrimSpace(text), s.maxLength)
	if summary == "" {
		return "", ErrEmptySummary
	}
	if truncated {
		s.logger.Debug(ctx, "Summary truncated to %d words", s.maxLength)
	}
	if n := len(strings.Fields(summary)); n < s.minLength {
		s.logger.Debug(ctx, "Summary shorter than minimum: %d < %d words", n, s.minLength)
	}
	return summary, nil
}

// truncateWords keeps at most max whitespace-separated words. Line breaks
// inside the kept range are preserved.
func truncateWords(s string, max int) (string, bool) {
	count := 0
	inWord := false
	for i, r := range s {
		space := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if !space && !inWord {
			count++
			if count > max {
				return strings.TrimSpace(s[:i]), true
			}
		}
		inWord = !space
	}
	return s, false
}
