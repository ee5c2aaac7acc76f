package watcher

import "context"

// Watcher monitors the inbox directory for new lecture audio.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler handles one audio file found in the inbox.
type EventHandler func(ctx context.Context, filePath string) error
