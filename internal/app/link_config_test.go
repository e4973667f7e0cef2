package app

import (
	"testing"
	"time"

	"github.com/yunzii-kb/smartble/internal/config"
	"github.com/yunzii-kb/smartble/internal/link"
)

func TestLinkConfigFromDefaultsMatchesControllerDefaults(t *testing.T) {
	got := LinkConfig(config.Default().Link)
	if got != link.DefaultConfig() {
		t.Fatalf("default link config mismatch:\n got %+v\nwant %+v", got, link.DefaultConfig())
	}
}

func TestLinkConfigOverrides(t *testing.T) {
	cfg := config.Default().Link
	cfg.DeviceName = "AL68 DESK"
	cfg.BLEIntervalMS = 15
	cfg.WakeIdleMS = 5000
	cfg.LenientValidation = true

	got := LinkConfig(cfg)
	if got.DeviceName != "AL68 DESK" || got.BLEInterval != 15*time.Millisecond || got.WakeIdle != 5*time.Second || !got.LenientValidation {
		t.Fatalf("unexpected link config %+v", got)
	}
	if got.StartSettle != link.DefaultConfig().StartSettle {
		t.Fatalf("start settle must keep its default")
	}
}
