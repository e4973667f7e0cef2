package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultSerialBaud       = 460800
	DefaultDeviceName       = "YUNZII AL68"
	DefaultQueueCapacity    = 32
	DefaultBLEIntervalMS    = 8
	DefaultDongleIntervalMS = 2
	DefaultWakeIdleMS       = 10000
	DefaultWakeBytes        = 60
	DefaultPairingWindowMS  = 60000
	DefaultProfileFlashMS   = 1500
	DefaultCaptureMaxRows   = 50000

	// the start-profile frame has room for 15 name bytes
	maxDeviceNameLen = 15
	maxQueueCapacity = 1024
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	Format    string `json:"format"` // text or json
	LogToFile bool   `json:"log_to_file"`
}

// SerialConfig selects the UART wired to the radio module.
type SerialConfig struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

// LinkConfig tunes the wireless link. Durations are in milliseconds.
type LinkConfig struct {
	DeviceName        string `json:"device_name"`
	QueueCapacity     int    `json:"queue_capacity"`
	BLEIntervalMS     int    `json:"ble_interval_ms"`
	DongleIntervalMS  int    `json:"dongle_interval_ms"`
	WakeIdleMS        int    `json:"wake_idle_ms"`
	WakeBytes         int    `json:"wake_bytes"`
	PairingWindowMS   int    `json:"pairing_window_ms"`
	ProfileFlashMS    int    `json:"profile_flash_ms"`
	LenientValidation bool   `json:"lenient_validation"`
}

// CaptureConfig controls the wire traffic capture database.
type CaptureConfig struct {
	Enabled bool `json:"enabled"`
	MaxRows int  `json:"max_rows"`
}

// NotificationConfig controls desktop notifications.
type NotificationConfig struct {
	Enabled bool `json:"enabled"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Serial        SerialConfig       `json:"serial"`
	Link          LinkConfig         `json:"link"`
	Logging       LoggingConfig      `json:"logging"`
	Capture       CaptureConfig      `json:"capture"`
	Notifications NotificationConfig `json:"notifications"`
}

func Default() AppConfig {
	return AppConfig{
		Serial: SerialConfig{
			Port: "",
			Baud: DefaultSerialBaud,
		},
		Link: LinkConfig{
			DeviceName:        DefaultDeviceName,
			QueueCapacity:     DefaultQueueCapacity,
			BLEIntervalMS:     DefaultBLEIntervalMS,
			DongleIntervalMS:  DefaultDongleIntervalMS,
			WakeIdleMS:        DefaultWakeIdleMS,
			WakeBytes:         DefaultWakeBytes,
			PairingWindowMS:   DefaultPairingWindowMS,
			ProfileFlashMS:    DefaultProfileFlashMS,
			LenientValidation: false,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			LogToFile: false,
		},
		Capture: CaptureConfig{
			Enabled: false,
			MaxRows: DefaultCaptureMaxRows,
		},
		Notifications: NotificationConfig{
			Enabled: true,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime or given on the command line.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

// FillMissingDefaults replaces zero or negative numeric values with defaults.
func (c *AppConfig) FillMissingDefaults() {
	c.Serial.Port = strings.TrimSpace(c.Serial.Port)
	if c.Serial.Baud <= 0 {
		c.Serial.Baud = DefaultSerialBaud
	}
	if strings.TrimSpace(c.Link.DeviceName) == "" {
		c.Link.DeviceName = DefaultDeviceName
	}
	fillInt(&c.Link.QueueCapacity, DefaultQueueCapacity)
	fillInt(&c.Link.BLEIntervalMS, DefaultBLEIntervalMS)
	fillInt(&c.Link.DongleIntervalMS, DefaultDongleIntervalMS)
	fillInt(&c.Link.WakeIdleMS, DefaultWakeIdleMS)
	fillInt(&c.Link.WakeBytes, DefaultWakeBytes)
	fillInt(&c.Link.PairingWindowMS, DefaultPairingWindowMS)
	fillInt(&c.Link.ProfileFlashMS, DefaultProfileFlashMS)
	fillInt(&c.Capture.MaxRows, DefaultCaptureMaxRows)
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func fillInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.Serial.Port) == "" {
		return errors.New("serial port is required")
	}
	if c.Serial.Baud <= 0 {
		return errors.New("serial baud must be positive")
	}
	if n := len(c.Link.DeviceName); n == 0 || n > maxDeviceNameLen {
		return fmt.Errorf("device name must be 1-%d bytes, got %d", maxDeviceNameLen, n)
	}
	if c.Link.QueueCapacity <= 0 || c.Link.QueueCapacity > maxQueueCapacity {
		return fmt.Errorf("queue capacity must be in 1..%d, got %d", maxQueueCapacity, c.Link.QueueCapacity)
	}
	if c.Link.BLEIntervalMS <= 0 || c.Link.DongleIntervalMS <= 0 {
		return errors.New("transmit intervals must be positive")
	}
	if c.Link.WakeBytes <= 0 {
		return errors.New("wake bytes must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %q", c.Logging.Format)
	}
	if c.Capture.Enabled && c.Capture.MaxRows <= 0 {
		return errors.New("capture max rows must be positive")
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
