package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppConfigFillMissingDefaults(t *testing.T) {
	cfg := AppConfig{}
	cfg.FillMissingDefaults()

	if cfg.Serial.Baud != DefaultSerialBaud {
		t.Fatalf("expected default serial baud %d, got %d", DefaultSerialBaud, cfg.Serial.Baud)
	}
	if cfg.Link.DeviceName != DefaultDeviceName {
		t.Fatalf("expected default device name, got %q", cfg.Link.DeviceName)
	}
	if cfg.Link.QueueCapacity != 32 || cfg.Link.BLEIntervalMS != 8 || cfg.Link.DongleIntervalMS != 2 {
		t.Fatalf("unexpected link defaults: %+v", cfg.Link)
	}
	if cfg.Link.WakeIdleMS != 10000 || cfg.Link.WakeBytes != 60 {
		t.Fatalf("unexpected wake defaults: %+v", cfg.Link)
	}
	if cfg.Link.PairingWindowMS != 60000 || cfg.Link.ProfileFlashMS != 1500 {
		t.Fatalf("unexpected timer defaults: %+v", cfg.Link)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Logging.Level)
	}
	if cfg.Capture.MaxRows != DefaultCaptureMaxRows {
		t.Fatalf("expected default capture max rows, got %d", cfg.Capture.MaxRows)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if !cfg.Notifications.Enabled {
		t.Fatalf("expected notifications to be enabled by default")
	}
	if cfg.Capture.Enabled {
		t.Fatalf("expected capture to be disabled by default")
	}
	if cfg.Link.LenientValidation {
		t.Fatalf("expected strict frame validation by default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load missing config: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadPartialConfigFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
  "serial": {
    "port": " /dev/ttyUSB0 "
  },
  "link": {
    "ble_interval_ms": 12,
    "queue_capacity": 0
  }
}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" || cfg.Serial.Baud != DefaultSerialBaud {
		t.Fatalf("unexpected serial config: %+v", cfg.Serial)
	}
	if cfg.Link.BLEIntervalMS != 12 {
		t.Fatalf("expected explicit ble interval to be kept, got %d", cfg.Link.BLEIntervalMS)
	}
	if cfg.Link.QueueCapacity != DefaultQueueCapacity {
		t.Fatalf("expected zero queue capacity to fall back to default, got %d", cfg.Link.QueueCapacity)
	}
	if !cfg.Notifications.Enabled {
		t.Fatalf("expected missing notifications section to keep default")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "decode config json") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Serial.Port = "/dev/ttyUSB0"

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "missing port", mutate: func(c *AppConfig) { c.Serial.Port = " " }, wantErr: true},
		{name: "zero baud", mutate: func(c *AppConfig) { c.Serial.Baud = 0 }, wantErr: true},
		{name: "long device name", mutate: func(c *AppConfig) { c.Link.DeviceName = "YUNZII AL68 WIRELESS" }, wantErr: true},
		{name: "huge queue", mutate: func(c *AppConfig) { c.Link.QueueCapacity = 4096 }, wantErr: true},
		{name: "zero interval", mutate: func(c *AppConfig) { c.Link.DongleIntervalMS = 0 }, wantErr: true},
		{name: "capture without rows", mutate: func(c *AppConfig) { c.Capture.Enabled = true; c.Capture.MaxRows = 0 }, wantErr: true},
		{name: "json logs", mutate: func(c *AppConfig) { c.Logging.Format = "json" }},
		{name: "unknown log format", mutate: func(c *AppConfig) { c.Logging.Format = "logfmt" }, wantErr: true},
	}

	for _, tc := range tests {
		cfg := valid
		tc.mutate(&cfg)
		err := cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: wantErr=%v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Serial.Port = "COM4"
	cfg.Capture.Enabled = true
	cfg.Link.LenientValidation = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err=%v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := Save(path, Default()); err == nil {
		t.Fatalf("expected save without serial port to fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no config file to be written")
	}
}
