package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/lecture"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
)

var ErrInvalidCommand = errors.New("invalid command")

// ResultPublisher publishes the outcome of every finished run. It is a
// lecture.Notifier.
type ResultPublisher struct {
	publisher Publisher
	queue     string
}

func NewResultPublisher(pub Publisher, resultQueue string) *ResultPublisher {
	return &ResultPublisher{publisher: pub, queue: resultQueue}
}

func (p *ResultPublisher) Notify(ctx context.Context, run runs.Run) error {
	return p.publish(ctx, resultFromRun(run))
}

func (p *ResultPublisher) publish(ctx context.Context, res Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return p.publisher.Publish(ctx, p.queue, body)
}

// Worker turns queue commands into runs.
type Worker struct {
	service lecture.Service
	results *ResultPublisher
	logger  logger.Logger
}

func NewWorker(svc lecture.Service, results *ResultPublisher, log logger.Logger) *Worker {
	return &Worker{service: svc, results: results, logger: log}
}

// HandleCommand processes one command body synchronously. Malformed
// commands are answered with an ERROR result that has no run id.
func (w *Worker) HandleCommand(ctx context.Context, body []byte) error {
	audio, err := parseCommand(body)
	if err != nil {
		w.logger.Warn(ctx, "Rejecting command: %v", err)
		return w.results.publish(ctx, Result{Status: StatusError, ErrorMessage: err.Error()})
	}

	// Stage failures reach the result queue through the service notifier.
	run, err := w.service.Run(ctx, runs.SourceQueue, audio)
	if err != nil && run.ID == "" {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// Consume handles deliveries until ctx is done or the channel closes. Every
// handled delivery is acknowledged. A delivery that arrives while the
// service is shutting down is requeued and consumption stops.
func (w *Worker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}
			w.logger.Info(ctx, "[Lecture CMD] Received: %d bytes", len(d.Body))
			err := w.HandleCommand(ctx, d.Body)
			if errors.Is(err, lecture.ErrClosed) || ctx.Err() != nil {
				w.logger.Warn(ctx, "Shutting down, requeueing delivery %d", d.DeliveryTag)
				if nackErr := d.Nack(false, true); nackErr != nil {
					return fmt.Errorf("nack delivery: %w", nackErr)
				}
				if err != nil {
					return err
				}
				return ctx.Err()
			}
			if err != nil {
				w.logger.Error(ctx, "Failed to handle command: %v", err)
			}
			if err := d.Ack(false); err != nil {
				return fmt.Errorf("ack delivery: %w", err)
			}
		}
	}
}

func parseCommand(body []byte) (intake.Audio, error) {
	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		return intake.Audio{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if strings.TrimSpace(cmd.AudioPath) == "" {
		return intake.Audio{}, fmt.Errorf("%w: audioPath is required", ErrInvalidCommand)
	}

	audio, err := intake.FromFile(filepath.Clean(cmd.AudioPath))
	if err != nil {
		return intake.Audio{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if cmd.Name != "" {
		audio.Name = cmd.Name
	}
	return audio, nil
}
