package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/httpapi"
	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/lecture"
	"github.com/nguyentantai21042004/lecture-notes/internal/llm"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/notes"
	"github.com/nguyentantai21042004/lecture-notes/internal/processor"
	"github.com/nguyentantai21042004/lecture-notes/internal/queue"
	"github.com/nguyentantai21042004/lecture-notes/internal/quiz"
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
	"github.com/nguyentantai21042004/lecture-notes/internal/summarizer"
	"github.com/nguyentantai21042004/lecture-notes/internal/transcriber"
	"github.com/nguyentantai21042004/lecture-notes/internal/watcher"
	"github.com/nguyentantai21042004/lecture-notes/pkg/executor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	file := flag.String("file", "", "process one audio file, print the notes and exit")
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// One-shot runs keep stdout for the notes.
	out := os.Stdout
	if *file != "" {
		out = os.Stderr
	}
	log := logger.NewWithWriter(cfg.Logging.Level, cfg.Logging.Format, out)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	// Initialize dependencies
	exec := executor.New()
	tr, err := transcriber.New(cfg, exec, log)
	if err != nil {
		log.Error(ctx, "Failed to create transcriber: %v", err)
		os.Exit(1)
	}
	gen, err := llm.New(cfg.LLM, log)
	if err != nil {
		log.Error(ctx, "Failed to create LLM client: %v", err)
		os.Exit(1)
	}
	if err := llm.CheckAvailable(ctx, gen); err != nil {
		log.Error(ctx, "LLM backend check failed: %v", err)
		os.Exit(1)
	}
	sum := summarizer.New(gen, cfg.Summary.MinLength, cfg.Summary.MaxLength, log)
	qz := quiz.New(gen, cfg.Quiz.MaxLength, *cfg.Quiz.Temperature)
	proc := processor.New(cfg, tr, sum, qz, log)
	store := runs.NewStore(0, 0)

	if *file != "" {
		os.Exit(runOnce(ctx, cfg, proc, store, log, *file))
	}

	if err := serve(ctx, cfg, tr, gen, proc, store, log); err != nil {
		log.Error(ctx, "%v", err)
		os.Exit(1)
	}
}

// runOnce processes a single file synchronously and writes the rendered
// notes to stdout.
func runOnce(ctx context.Context, cfg *config.Config, proc processor.Processor, store *runs.Store, log logger.Logger, path string) int {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audio, err := intake.FromFile(path)
	if err != nil {
		log.Error(ctx, "Cannot read %s: %v", path, err)
		return 1
	}

	svc := lecture.New(proc, store, 1, log)
	defer svc.Close()

	run, err := svc.Run(ctx, runs.SourceCLI, audio)
	if err != nil {
		log.Error(ctx, "Run %s failed: %v", run.ID, err)
		return 1
	}

	fmt.Print(notes.Render(notes.Notes{
		Title:      audio.Name,
		Transcript: run.Transcript,
		Summary:    run.Summary,
		Quiz:       run.Quiz,
		CreatedAt:  run.UpdatedAt,
	}))
	for _, p := range run.NotesPaths {
		log.Info(ctx, "Notes written: %s", p)
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, tr transcriber.Transcriber, gen llm.Generator, proc processor.Processor, store *runs.Store, log logger.Logger) error {
	log.Info(ctx, "========================================")
	log.Info(ctx, "Lecture Notes Service")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "CPU Cores: %d", runtime.NumCPU())
	log.Info(ctx, "Max Concurrent Processing: %d", cfg.Performance.MaxConcurrent)
	log.Info(ctx, "Transcription: %s, LLM: %s", tr.Name(), gen.Name())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var notifiers []lecture.Notifier
	var producer *queue.RabbitMQProducer
	if cfg.Queue.URL != "" {
		p, err := queue.NewRabbitMQProducer(cfg.Queue.URL)
		if err != nil {
			return fmt.Errorf("create result producer: %w", err)
		}
		producer = p
		defer producer.Close()
		notifiers = append(notifiers, queue.NewResultPublisher(producer, cfg.Queue.ResultQueue))
	}

	svc := lecture.New(proc, store, cfg.Performance.MaxConcurrent, log, notifiers...)
	defer svc.Close()

	errChan := make(chan error, 2)

	if producer != nil {
		consumer, err := queue.NewRabbitMQConsumer(cfg.Queue.URL, cfg.Queue.CommandQueue)
		if err != nil {
			return fmt.Errorf("create command consumer: %w", err)
		}
		defer consumer.Close()

		deliveries, err := consumer.StartConsuming()
		if err != nil {
			return err
		}
		worker := queue.NewWorker(svc, queue.NewResultPublisher(producer, cfg.Queue.ResultQueue), log)
		go func() {
			if err := worker.Consume(ctx, deliveries); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("queue worker: %w", err)
			}
		}()
		log.Info(ctx, "Consuming commands from %s, results to %s", cfg.Queue.CommandQueue, cfg.Queue.ResultQueue)
	}

	if cfg.Watcher.Enabled {
		handler := func(ctx context.Context, path string) error {
			audio, err := intake.FromFile(path)
			if err != nil {
				return err
			}
			_, err = svc.Run(ctx, runs.SourceInbox, audio)
			return err
		}
		w, err := watcher.New(cfg.Paths.Inbox, handler, log, watcher.Options{
			MaxConcurrent: cfg.Performance.MaxConcurrent,
			SettleDelay:   2 * time.Second,
			ScanExisting:  true,
		})
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer w.Stop()

		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("watcher: %w", err)
			}
		}()
	}

	recordings := intake.NewRecordings(intake.RecordingOptions{
		MaxFrames:   cfg.Recording.MaxFrames,
		MaxBytes:    cfg.Recording.MaxBytes,
		SampleRate:  cfg.Recording.SampleRate,
		MaxSessions: cfg.Recording.MaxSessions,
		IdleTimeout: cfg.Recording.IdleTimeout,
	})
	go reapRecordings(ctx, recordings, time.Minute, log)
	h := httpapi.NewHandler(svc, store, intake.NewStager(cfg.Paths.Temp), recordings, cfg.Paths.Temp, log)
	srv := httpapi.New(cfg.Server, h, log)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info(ctx, "========================================")
	log.Info(ctx, "Lecture Notes is ready!")
	if cfg.Watcher.Enabled {
		log.Info(ctx, "Monitoring: %s", cfg.Paths.Inbox)
	}
	log.Info(ctx, "Output: %s", cfg.Paths.Output)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	var runErr error
	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case runErr = <-errChan:
		log.Error(ctx, "%v", runErr)
	}

	log.Info(ctx, "Shutting down gracefully...")
	if err := srv.Stop(context.Background()); err != nil {
		log.Warn(ctx, "%v", err)
	}
	cancel()
	svc.Close()

	log.Info(ctx, "Lecture Notes stopped")
	return runErr
}

// reapRecordings drops idle recording sessions until ctx is done.
func reapRecordings(ctx context.Context, recordings *intake.Recordings, every time.Duration, log logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := recordings.Reap(); n > 0 {
				log.Info(ctx, "Discarded %d idle recordings", n)
			}
		}
	}
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Inbox,
		cfg.Paths.Temp,
		cfg.Paths.Output,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
