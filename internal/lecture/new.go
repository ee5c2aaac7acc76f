package lecture

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/processor"
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
)

type implService struct {
	processor processor.Processor
	store     *runs.Store
	logger    logger.Logger
	notifiers []Notifier
	semaphore *semaphore

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders wg.Add against Close.
	mu     sync.Mutex
	closed bool
}

// New creates a Service that processes at most maxConcurrent runs at once.
// Notifiers are called in order after each run finishes.
func New(proc processor.Processor, store *runs.Store, maxConcurrent int, log logger.Logger, notifiers ...Notifier) Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &implService{
		processor: proc,
		store:     store,
		logger:    log,
		notifiers: notifiers,
		semaphore: newSemaphore(maxConcurrent),
		ctx:       ctx,
		cancel:    cancel,
	}
}
