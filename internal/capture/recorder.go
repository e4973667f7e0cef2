package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yunzii-kb/smartble/internal/bus"
	"github.com/yunzii-kb/smartble/internal/events"
)

const defaultTrimEvery = 500

// Recorder copies wire traffic and status changes from the bus into the
// capture database.
type Recorder struct {
	logger    *slog.Logger
	bus       bus.MessageBus
	repo      *Repo
	writer    *WriterQueue
	maxRows   int
	trimEvery int
	inserted  int
}

func NewRecorder(logger *slog.Logger, b bus.MessageBus, repo *Repo, writer *WriterQueue, maxRows int) *Recorder {
	if logger == nil {
		logger = slog.Default().With("component", "capture")
	}
	return &Recorder{
		logger:    logger,
		bus:       b,
		repo:      repo,
		writer:    writer,
		maxRows:   maxRows,
		trimEvery: defaultTrimEvery,
	}
}

// Start subscribes to the bus and records until ctx is done or the bus
// closes. The returned channel is closed when the recorder stops.
func (r *Recorder) Start(ctx context.Context) <-chan struct{} {
	sub := r.bus.Subscribe(
		events.TopicRawFrameIn,
		events.TopicRawFrameOut,
		events.TopicLinkStatus,
		events.TopicConnStatus,
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				go r.bus.Unsubscribe(sub)
				for range sub {
				}
				return
			case msg, ok := <-sub:
				if !ok {
					return
				}
				r.record(msg)
			}
		}
	}()
	return done
}

func (r *Recorder) record(msg any) {
	switch m := msg.(type) {
	case events.RawFrame:
		f := Frame{At: stamp(m.Timestamp), Direction: Direction(m.Direction), Len: m.Len, Hex: m.Hex}
		r.writer.Enqueue("insert_frame", func(ctx context.Context) error {
			return r.repo.InsertFrame(ctx, f)
		})
		r.maybeTrim()
	case events.LinkStatus:
		e := LinkEvent{
			At:        stamp(m.Timestamp),
			Kind:      EventLink,
			Mode:      m.Mode.String(),
			Connected: m.Connected,
			Pairing:   m.Pairing,
		}
		r.writer.Enqueue("insert_link_event", func(ctx context.Context) error {
			return r.repo.InsertLinkEvent(ctx, e)
		})
	case events.ConnStatus:
		e := LinkEvent{
			At:        stamp(m.Timestamp),
			Kind:      EventConn,
			Connected: m.State == events.ConnectionStateConnected,
			Detail:    connDetail(m),
		}
		r.writer.Enqueue("insert_conn_event", func(ctx context.Context) error {
			return r.repo.InsertLinkEvent(ctx, e)
		})
	default:
		r.logger.Debug("unexpected capture payload", "type", typeName(msg))
	}
}

func (r *Recorder) maybeTrim() {
	if r.maxRows <= 0 {
		return
	}
	r.inserted++
	if r.inserted < r.trimEvery {
		return
	}
	r.inserted = 0
	maxRows := r.maxRows
	r.writer.Enqueue("trim_frames", func(ctx context.Context) error {
		n, err := r.repo.Trim(ctx, maxRows)
		if err == nil && n > 0 {
			r.logger.Debug("capture trimmed", "deleted", n)
		}
		return err
	})
}

func connDetail(s events.ConnStatus) string {
	detail := string(s.State) + " " + s.Target
	if s.Err != "" {
		detail += ": " + s.Err
	}
	return detail
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
