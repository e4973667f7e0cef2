package app

import (
	"time"

	"github.com/yunzii-kb/smartble/internal/config"
	"github.com/yunzii-kb/smartble/internal/link"
)

// LinkConfig maps the persisted link settings onto the controller config.
// Delays that are not exposed in the file keep their defaults.
func LinkConfig(cfg config.LinkConfig) link.Config {
	out := link.DefaultConfig()
	out.DeviceName = cfg.DeviceName
	out.QueueCapacity = cfg.QueueCapacity
	out.BLEInterval = ms(cfg.BLEIntervalMS)
	out.DongleInterval = ms(cfg.DongleIntervalMS)
	out.WakeIdle = ms(cfg.WakeIdleMS)
	out.WakeBytes = cfg.WakeBytes
	out.PairingWindow = ms(cfg.PairingWindowMS)
	out.ProfileFlash = ms(cfg.ProfileFlashMS)
	out.LenientValidation = cfg.LenientValidation
	return out
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
