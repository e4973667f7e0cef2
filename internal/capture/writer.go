package capture

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	defaultWriterCapacity = 1024
	writeAttempts         = 3
)

type writeCmd struct {
	name string
	fn   func(context.Context) error
}

// WriterQueue serializes database writes on one goroutine. Enqueue never
// blocks; commands that do not fit are dropped and counted.
type WriterQueue struct {
	logger  *slog.Logger
	queue   chan writeCmd
	dropped atomic.Uint64
	retry   time.Duration
}

func NewWriterQueue(logger *slog.Logger, capacity int) *WriterQueue {
	if logger == nil {
		logger = slog.Default().With("component", "capture.writer")
	}
	if capacity <= 0 {
		capacity = defaultWriterCapacity
	}
	return &WriterQueue{
		logger: logger,
		queue:  make(chan writeCmd, capacity),
		retry:  300 * time.Millisecond,
	}
}

func (w *WriterQueue) Enqueue(name string, fn func(context.Context) error) bool {
	select {
	case w.queue <- writeCmd{name: name, fn: fn}:
		return true
	default:
		if w.dropped.Add(1)%100 == 1 {
			w.logger.Warn("capture writer queue full, dropping", "cmd", name, "dropped", w.dropped.Load())
		}
		return false
	}
}

func (w *WriterQueue) Dropped() uint64 { return w.dropped.Load() }

// Start runs queued commands until ctx is done. The returned channel is
// closed when the worker exits.
func (w *WriterQueue) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case cmd := <-w.queue:
				w.runWithRetry(ctx, cmd)
			}
		}
	}()
	return done
}

func (w *WriterQueue) runWithRetry(ctx context.Context, cmd writeCmd) {
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		err := cmd.fn(ctx)
		if err == nil {
			return
		}
		w.logger.Error("capture write failed", "cmd", cmd.name, "attempt", attempt, "error", err)
		if attempt == writeAttempts {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * w.retry):
		}
	}
}
