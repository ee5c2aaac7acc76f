package processor

import (
	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/quiz"
	"github.com/nguyentantai21042004/lecture-notes/internal/summarizer"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber"
)

type implProcessor struct {
	cfg         *config.Config
	transcriber transcriber.Transcriber
	summarizer  summarizer.Summarizer
	quiz        quiz.Generator
	logger      logger.Logger
}

// New creates a new Processor instance. Notes and archived audio are written
// under cfg.Paths.Output; an empty output path disables both.
func New(cfg *config.Config, tr transcriber.Transcriber, sum summarizer.Summarizer, qz quiz.Generator, log logger.Logger) Processor {
	return &implProcessor{
		cfg:         cfg,
		transcriber: tr,
		summarizer:  sum,
		quiz:        qz,
		logger:      log,
	}
}
