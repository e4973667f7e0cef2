package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	defaultSerialReadTimeout = 50 * time.Millisecond
	defaultRxRingSize        = 4096
	serialReadChunk          = 256
)

// SerialPort is a Conn backed by a UART opened with go.bug.st/serial. A reader
// goroutine moves received bytes into a ring so that Available and ReadByte can
// be called from the link tick without blocking.
type SerialPort struct {
	logger *slog.Logger

	mu       sync.Mutex
	portName string
	baudRate int
	port     serial.Port
	rx       *rxRing
	done     chan struct{}
	err      error

	writeMu sync.Mutex
}

func NewSerialPort(logger *slog.Logger, portName string, baudRate int) *SerialPort {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialPort{
		logger:   logger.With("component", "transport", "transport", "serial"),
		portName: portName,
		baudRate: baudRate,
		rx:       newRxRing(defaultRxRingSize),
	}
}

func (t *SerialPort) Name() string {
	return "serial"
}

func (t *SerialPort) Target() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("%s@%d", t.portName, t.baudRate)
}

func (t *SerialPort) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

func (t *SerialPort) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.portName == "" {
		return errors.New("serial port is empty")
	}
	if t.baudRate <= 0 {
		return fmt.Errorf("invalid serial baud rate: %d", t.baudRate)
	}

	port, err := serial.Open(t.portName, &serial.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open serial port %q: %w", t.portName, err)
	}
	if err := port.SetReadTimeout(defaultSerialReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("set serial read timeout: %w", err)
	}

	t.port = port
	t.err = nil
	t.done = make(chan struct{})
	t.rx.reset()
	go t.readLoop(port, t.done)
	t.logger.Info("serial port opened", "port", t.portName, "baud", t.baudRate)

	return nil
}

func (t *SerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

// Done is closed once the reader goroutine of the current connection exits.
func (t *SerialPort) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return t.done
}

func (t *SerialPort) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *SerialPort) Available() int {
	return t.rx.available()
}

func (t *SerialPort) ReadByte() (byte, error) {
	b, ok := t.rx.readByte()
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

// Dropped counts received bytes lost because the link tick fell behind.
func (t *SerialPort) Dropped() uint64 {
	return t.rx.dropped.Load()
}

func (t *SerialPort) Write(p []byte) (int, error) {
	port, err := t.currentPort()
	if err != nil {
		return 0, err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := writeFull(port, p); err != nil {
		return 0, fmt.Errorf("write serial: %w", err)
	}
	return len(p), nil
}

func (t *SerialPort) currentPort() (serial.Port, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil, ErrNotConnected
	}
	return t.port, nil
}

func (t *SerialPort) readLoop(port serial.Port, done chan struct{}) {
	defer close(done)

	buf := make([]byte, serialReadChunk)
	for {
		n, err := port.Read(buf)
		if err != nil {
			t.mu.Lock()
			if t.port == port {
				t.err = fmt.Errorf("read serial: %w", err)
			}
			t.mu.Unlock()
			t.logger.Debug("serial reader stopped", "error", err)
			return
		}
		if n == 0 {
			// read timeout; a closed port reports an error on the next call
			if !t.Connected() {
				return
			}
			continue
		}
		if written := t.rx.write(buf[:n]); written < n {
			t.logger.Debug("serial rx ring full", "dropped", n-written)
		}
	}
}

func writeFull(w io.Writer, buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := w.Write(buf[written:])
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		written += n
	}
	return nil
}

// ListPorts returns the serial devices present on this machine.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
