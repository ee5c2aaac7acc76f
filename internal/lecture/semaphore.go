package lecture

import "context"

// semaphore bounds how many runs use the pipeline backends at once.
type semaphore struct {
	slots chan struct{}
}

func newSemaphore(capacity int) *semaphore {
	return &semaphore{slots: make(chan struct{}, capacity)}
}

// acquire blocks until a slot is free or ctx is done.
func (s *semaphore) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	<-s.slots
}

// inUse is the number of slots currently held.
func (s *semaphore) inUse() int {
	return len(s.slots)
}

func (s *semaphore) capacity() int {
	return cap(s.slots)
}
