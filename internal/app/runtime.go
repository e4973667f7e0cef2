package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yunzii-kb/smartble/internal/bus"
	"github.com/yunzii-kb/smartble/internal/capture"
	"github.com/yunzii-kb/smartble/internal/config"
	"github.com/yunzii-kb/smartble/internal/events"
	"github.com/yunzii-kb/smartble/internal/hid"
	"github.com/yunzii-kb/smartble/internal/link"
	"github.com/yunzii-kb/smartble/internal/logging"
	"github.com/yunzii-kb/smartble/internal/notifications"
	"github.com/yunzii-kb/smartble/internal/platform"
	"github.com/yunzii-kb/smartble/internal/radio"
	"github.com/yunzii-kb/smartble/internal/transport"
)

const shutdownTimeout = 3 * time.Second

// Options carries command line overrides applied on top of the config file.
type Options struct {
	ConfigPath string
	Port       string
	Baud       int

	// Conn replaces the serial transport when set.
	Conn transport.Conn
	// Notifier replaces the desktop notification sender when set.
	Notifier notifications.Sender
	// Radio overrides the service timings; zero values keep the defaults.
	Radio radio.Options
}

type Runtime struct {
	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB

	CaptureRepo *capture.Repo
	Radio       *radio.Service

	lock    platform.PortLock
	stopped []<-chan struct{}
	radioCh <-chan struct{}

	connStatusMu    sync.RWMutex
	connStatus      events.ConnStatus
	connStatusKnown bool

	closeOnce sync.Once
}

func Initialize(parent context.Context, opts Options) (*Runtime, error) {
	paths, err := ResolvePaths(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Port != "" {
		cfg.Serial.Port = opts.Port
	}
	if opts.Baud > 0 {
		cfg.Serial.Baud = opts.Baud
	}
	cfg.FillMissingDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting smartble runtime", "version", BuildVersion(), "build_date", BuildDateYMD(), "port", cfg.Serial.Port)

	lock, err := platform.AcquirePortLock(Name, cfg.Serial.Port)
	switch {
	case errors.Is(err, platform.ErrPortLockUnsupported):
		slog.Warn("port lock unavailable on this platform")
	case err != nil:
		_ = rt.Close()
		return nil, fmt.Errorf("lock %s: %w", cfg.Serial.Port, err)
	default:
		rt.lock = lock
	}

	b := bus.New(logMgr.Logger("bus"))
	rt.Bus = b
	rt.setConnStatus(ConnectionStatusFromConfig(cfg.Serial))
	connSub := b.Subscribe(events.TopicConnStatus)
	go rt.captureConnStatus(ctx, connSub)

	if cfg.Capture.Enabled {
		if err := rt.startCapture(ctx, cfg.Capture); err != nil {
			_ = rt.Close()
			return nil, err
		}
	}
	if cfg.Notifications.Enabled {
		sender := opts.Notifier
		if sender == nil {
			sender = notifications.NewBeeepSender(logMgr.Logger("notifications"), Name)
		}
		svc := notifications.NewService(b, sender, logMgr.Logger("notifications"))
		rt.stopped = append(rt.stopped, svc.Start(ctx))
	}

	conn := opts.Conn
	if conn == nil {
		conn = transport.NewSerialPort(logMgr.Logger("serial"), cfg.Serial.Port, cfg.Serial.Baud)
	}

	wiredLog := logMgr.Logger("wired")
	wired := hid.NewWiredDriver(func(kind hid.Kind, payload []byte) {
		wiredLog.Debug("wired report", "kind", kind, logging.HexAttr("payload", payload))
	})
	host := hid.NewHost(logMgr.Logger("hid"), wired)
	ctrl := link.NewController(
		logMgr.Logger("link"),
		conn,
		link.SystemClock(),
		host,
		LinkConfig(cfg.Link),
		events.NewBusObserver(b),
	)

	rt.Radio = radio.NewService(logMgr.Logger("radio"), b, conn, ctrl, opts.Radio)
	rt.radioCh = rt.Radio.Start(ctx)

	return rt, nil
}

func (r *Runtime) startCapture(ctx context.Context, cfg config.CaptureConfig) error {
	db, err := capture.Open(ctx, r.Paths.CaptureFile)
	if err != nil {
		return err
	}
	r.DB = db
	r.CaptureRepo = capture.NewRepo(db)

	writer := capture.NewWriterQueue(r.LogManager.Logger("capture"), captureWriterCapacity)
	r.stopped = append(r.stopped, writer.Start(ctx))

	recorder := capture.NewRecorder(r.LogManager.Logger("capture"), r.Bus, r.CaptureRepo, writer, cfg.MaxRows)
	r.stopped = append(r.stopped, recorder.Start(ctx))

	return nil
}

func (r *Runtime) captureConnStatus(ctx context.Context, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			status, ok := raw.(events.ConnStatus)
			if !ok {
				continue
			}
			r.setConnStatus(status)
		}
	}
}

func (r *Runtime) setConnStatus(status events.ConnStatus) {
	r.connStatusMu.Lock()
	r.connStatus = status
	r.connStatusKnown = true
	r.connStatusMu.Unlock()
}

func (r *Runtime) CurrentConnStatus() (events.ConnStatus, bool) {
	r.connStatusMu.RLock()
	status := r.connStatus
	known := r.connStatusKnown
	r.connStatusMu.RUnlock()
	return status, known
}

// ClearCapture removes all recorded frames and link events.
func (r *Runtime) ClearCapture() error {
	if r.CaptureRepo == nil {
		return fmt.Errorf("capture is not enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.CaptureRepo.Clear(ctx); err != nil {
		return err
	}
	slog.Info("capture cleared")

	return nil
}

// Close stops the radio service first so the module receives its stop
// frame, then releases the remaining resources.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		if r.radioCh != nil {
			r.wait("radio", r.radioCh)
		}
		for _, ch := range r.stopped {
			r.wait("worker", ch)
		}
		if r.Bus != nil {
			r.Bus.Close()
		}
		if r.DB != nil {
			_ = r.DB.Close()
		}
		if r.lock != nil {
			if err := r.lock.Release(); err != nil {
				slog.Warn("release port lock", "error", err)
			}
		}
		if r.LogManager != nil {
			_ = r.LogManager.Close()
		}
	})
	return nil
}

func (r *Runtime) wait(name string, ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(shutdownTimeout):
		slog.Warn("shutdown timed out", "part", name)
	}
}
