package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yunzii-kb/smartble/internal/app"
	"github.com/yunzii-kb/smartble/internal/bus"
	"github.com/yunzii-kb/smartble/internal/events"
	"github.com/yunzii-kb/smartble/internal/link"
	"github.com/yunzii-kb/smartble/internal/modeswitch"
	"github.com/yunzii-kb/smartble/internal/transport"
)

const (
	commandTimeout   = 5 * time.Second
	maxHexPreviewLen = 64
)

type cliOptions struct {
	configPath string
	port       string
	baud       int
	mode       string
	keys       string
	pair       bool
	battery    int
	raw        bool
	clearCap   bool
	decodeTX   string
	listenFor  time.Duration
	list       bool
	version    bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("run smartbled", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("smartbled", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "config file path (default: user config dir)")
	fs.StringVar(&opts.port, "port", "", "serial port of the radio module, e.g. /dev/ttyUSB0 or COM3")
	fs.IntVar(&opts.baud, "baud", 0, "serial baud rate (default from config)")
	fs.StringVar(&opts.mode, "mode", "", "mode to select on start: usb, ble1, ble2, ble3, 2.4g")
	fs.StringVar(&opts.keys, "keys", "", "comma separated mode keys to press after start, e.g. ble2,pair")
	fs.BoolVar(&opts.pair, "pair", false, "enter pairing on the selected wireless mode")
	fs.IntVar(&opts.battery, "battery", -1, "report this battery level (0-100) once connected")
	fs.BoolVar(&opts.raw, "raw", false, "log raw frames in both directions")
	fs.BoolVar(&opts.clearCap, "clear-capture", false, "clear the capture database before recording")
	fs.StringVar(&opts.decodeTX, "decode-tx", "", "print the frames in a raw dump of host-to-module bytes and exit")
	fs.DurationVar(&opts.listenFor, "listen-for", 0, "exit after this duration, e.g. 30s")
	fs.BoolVar(&opts.list, "list", false, "list serial ports and exit")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	if opts.battery < -1 || opts.battery > 100 {
		return cliOptions{}, fmt.Errorf("battery level must be in 0..100, got %d", opts.battery)
	}
	if opts.mode != "" {
		if _, err := link.ParseMode(opts.mode); err != nil {
			return cliOptions{}, err
		}
	}
	if _, err := parseKeys(opts.keys); err != nil {
		return cliOptions{}, err
	}

	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	if opts.version {
		fmt.Println(app.BuildString())
		return nil
	}
	if opts.decodeTX != "" {
		return decodeFile(opts.decodeTX, os.Stdout)
	}
	if opts.list {
		ports, err := transport.ListPorts()
		if err != nil {
			return fmt.Errorf("list serial ports: %w", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx, app.Options{
		ConfigPath: opts.configPath,
		Port:       strings.TrimSpace(opts.port),
		Baud:       opts.baud,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			slog.Warn("close runtime", "error", closeErr)
		}
	}()

	logger := rt.LogManager.Logger("cli")
	if opts.clearCap {
		if err := rt.ClearCapture(); err != nil {
			return fmt.Errorf("clear capture: %w", err)
		}
	}
	watch(ctx, rt.Bus, logger, opts.raw)

	if err := applyStartup(ctx, rt, opts); err != nil {
		return err
	}

	if opts.listenFor > 0 {
		logger.Info("listen mode", "duration", opts.listenFor)
		select {
		case <-ctx.Done():
		case <-time.After(opts.listenFor):
		}
		return nil
	}

	logger.Info("running until interrupt")
	<-ctx.Done()

	return nil
}

func applyStartup(ctx context.Context, rt *app.Runtime, opts cliOptions) error {
	if opts.mode != "" {
		mode, _ := link.ParseMode(opts.mode)
		if err := await(ctx, rt.Radio.SelectMode(mode)); err != nil {
			return fmt.Errorf("select mode %s: %w", mode, err)
		}
	}

	keys, _ := parseKeys(opts.keys)
	if opts.pair {
		keys = append(keys, modeswitch.KeyPair)
	}
	for _, k := range keys {
		if err := await(ctx, rt.Radio.PressKey(k)); err != nil {
			return fmt.Errorf("press %s: %w", k, err)
		}
	}

	if opts.battery >= 0 {
		go sendBatteryWhenConnected(ctx, rt, uint8(opts.battery))
	}

	return nil
}

// sendBatteryWhenConnected waits for the first connected link status, since
// the controller drops battery frames while disconnected.
func sendBatteryWhenConnected(ctx context.Context, rt *app.Runtime, level uint8) {
	sub := rt.Bus.Subscribe(events.TopicLinkStatus)
	defer func() { go rt.Bus.Unsubscribe(sub) }()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			if status, ok := raw.(events.LinkStatus); ok && status.Connected {
				_ = await(ctx, rt.Radio.SendBattery(level))
				return
			}
		}
	}
}

func await(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(commandTimeout):
		return fmt.Errorf("timed out after %s", commandTimeout)
	}
}

func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger, raw bool) {
	topics := []string{events.TopicConnStatus, events.TopicLinkStatus, events.TopicLEDs}
	if raw {
		topics = append(topics, events.TopicRawFrameIn, events.TopicRawFrameOut)
	}
	sub := b.Subscribe(topics...)

	go func() {
		for {
			select {
			case <-ctx.Done():
				go b.Unsubscribe(sub)
				return
			case msg, ok := <-sub:
				if !ok {
					return
				}
				logEvent(logger, msg)
			}
		}
	}()
}

func logEvent(logger *slog.Logger, msg any) {
	switch m := msg.(type) {
	case events.ConnStatus:
		logger.Info("conn", "state", m.State, "target", m.Target, "error", m.Err)
	case events.LinkStatus:
		logger.Info("link", "mode", m.Mode, "connected", m.Connected, "pairing", m.Pairing)
	case events.LEDs:
		logger.Info("leds", "mask", fmt.Sprintf("0x%02X", m.Mask))
	case events.RawFrame:
		logger.Info("raw-"+string(m.Direction), "len", m.Len, "hex", previewHex(m.Hex))
	}
}

func parseKeys(raw string) ([]modeswitch.Key, error) {
	var keys []modeswitch.Key
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		k, err := modeswitch.ParseKey(part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func previewHex(hex string) string {
	hex = strings.TrimSpace(hex)
	if len(hex) <= maxHexPreviewLen {
		return hex
	}
	return hex[:maxHexPreviewLen] + "..."
}
