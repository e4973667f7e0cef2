package link

import (
	"time"

	"github.com/yunzii-kb/smartble/internal/report"
)

// Config holds the timing and sizing of one radio link.
type Config struct {
	DeviceName    string
	QueueCapacity int

	BLEInterval    time.Duration
	DongleInterval time.Duration

	WakeIdle   time.Duration
	WakeBytes  int
	WakeSettle time.Duration

	StartSettle   time.Duration
	StopSettle    time.Duration
	StopRestore   time.Duration
	RepeatGap     time.Duration
	PairingWindow time.Duration
	ProfileFlash  time.Duration

	// LenientValidation lets frames with unknown command or work mode values through the parser.
	LenientValidation bool
	// MaxRxPerTick bounds how many received bytes one Tick consumes.
	MaxRxPerTick int
}

func DefaultConfig() Config {
	return Config{
		DeviceName:     "YUNZII AL68",
		QueueCapacity:  report.DefaultCapacity,
		BLEInterval:    8 * time.Millisecond,
		DongleInterval: 2 * time.Millisecond,
		WakeIdle:       10 * time.Second,
		WakeBytes:      60,
		WakeSettle:     10 * time.Millisecond,
		StartSettle:    350 * time.Millisecond,
		StopSettle:     100 * time.Millisecond,
		StopRestore:    20 * time.Millisecond,
		RepeatGap:      10 * time.Millisecond,
		PairingWindow:  60 * time.Second,
		ProfileFlash:   1500 * time.Millisecond,
		MaxRxPerTick:   512,
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.DeviceName == "" {
		c.DeviceName = def.DeviceName
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = def.QueueCapacity
	}
	if c.BLEInterval <= 0 {
		c.BLEInterval = def.BLEInterval
	}
	if c.DongleInterval <= 0 {
		c.DongleInterval = def.DongleInterval
	}
	if c.WakeIdle <= 0 {
		c.WakeIdle = def.WakeIdle
	}
	if c.WakeBytes <= 0 {
		c.WakeBytes = def.WakeBytes
	}
	if c.WakeSettle < 0 {
		c.WakeSettle = def.WakeSettle
	}
	if c.PairingWindow <= 0 {
		c.PairingWindow = def.PairingWindow
	}
	if c.ProfileFlash <= 0 {
		c.ProfileFlash = def.ProfileFlash
	}
	if c.MaxRxPerTick <= 0 {
		c.MaxRxPerTick = def.MaxRxPerTick
	}
}
