package processor

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/lecture-notes/internal/notes"
)

// Process runs the pipeline synchronously. The first failing stage aborts
// the run and no partial result is returned.
func (p *implProcessor) Process(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	audio := req.Audio

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting lecture processing: %s (%s, %d bytes)", audio.Name, p.transcriber.Name(), audio.Size)
	p.logger.Info(ctx, "========================================")

	// Step 1: Transcribe audio
	p.enter(ctx, req, StageTranscribing)
	transcript, err := p.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, &StageError{Stage: StageTranscribing, Err: err}
	}
	if strings.TrimSpace(transcript) == "" {
		p.logger.Warn(ctx, "Transcript is empty, continuing with summary and quiz: %s", audio.Name)
	}

	// Step 2: Summarize transcript
	p.enter(ctx, req, StageSummarizing)
	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return nil, &StageError{Stage: StageSummarizing, Err: err}
	}

	// Step 3: Generate quiz
	p.enter(ctx, req, StageQuizzing)
	questions, err := p.quiz.Generate(ctx, transcript)
	if err != nil {
		return nil, &StageError{Stage: StageQuizzing, Err: err}
	}

	result := &Result{
		RunID:      req.RunID,
		Transcript: transcript,
		Summary:    summary,
		Quiz:       questions,
	}

	// Step 4: Export notes and archive the audio next to them
	if dir := p.runDir(req); dir != "" {
		paths, err := notes.Export(dir, notes.Notes{
			Title:      audio.Name,
			Transcript: transcript,
			Summary:    summary,
			Quiz:       questions,
			CreatedAt:  startTime,
		})
		if err != nil {
			p.logger.Warn(ctx, "Failed to export notes: %v", err)
		}
		result.NotesPaths = paths

		archived, err := p.archiveAudio(ctx, audio, dir, req.KeepSource)
		if err != nil {
			p.logger.Warn(ctx, "Failed to archive audio: %v", err)
		}
		result.AudioPath = archived
	}

	result.Duration = time.Since(startTime)
	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Processing completed successfully!")
	p.logger.Info(ctx, "Transcript: %d words, summary: %d words", len(strings.Fields(transcript)), len(strings.Fields(summary)))
	if len(result.NotesPaths) > 0 {
		p.logger.Info(ctx, "Output notes: %s", strings.Join(result.NotesPaths, ", "))
	}
	p.logger.Info(ctx, "Processing time: %s", result.Duration)
	p.logger.Info(ctx, "========================================")

	return result, nil
}

func (p *implProcessor) enter(ctx context.Context, req Request, stage Stage) {
	p.logger.Info(ctx, "Stage: %s", stage)
	if req.OnStage != nil {
		req.OnStage(stage)
	}
}

// runDir is the output folder for one run, or "" when export is disabled.
func (p *implProcessor) runDir(req Request) string {
	if p.cfg == nil || p.cfg.Paths.Output == "" {
		return ""
	}
	name := notes.FileBase(req.Audio.Name)
	if req.RunID != "" {
		name += "-" + shortID(req.RunID)
	}
	return filepath.Join(p.cfg.Paths.Output, name)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
