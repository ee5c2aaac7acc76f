package summarizer

import (
	"github.com/nguyentantai21042004/lecture-notes/internal/llm"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

type implSummarizer struct {
	generator llm.Generator
	logger    logger.Logger
	minLength int
	maxLength int
}

// New creates a Summarizer whose output is bounded to [minLength, maxLength]
// words. Decoding is always greedy.
func New(generator llm.Generator, minLength, maxLength int, log logger.Logger) Summarizer {
	if maxLength <= 0 {
		maxLength = 200
	}
	if minLength > maxLength {
		minLength = maxLength
	}
	return &implSummarizer{
		generator: generator,
		logger:    log,
		minLength: minLength,
		maxLength: maxLength,
	}
}
