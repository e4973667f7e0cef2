package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yunzii-kb/smartble/internal/frame"
)

func decodeFile(path string, w io.Writer) error {
	// #nosec G304 -- path is given on the command line.
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open dump: %w", err)
	}
	defer func() { _ = f.Close() }()

	n, err := decodeStream(f, w)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d frames\n", n)
	return err
}

// decodeStream prints one line per outgoing frame found in r. Wake bytes
// between frames and a truncated tail are skipped.
func decodeStream(r io.Reader, w io.Writer) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Split(frame.SplitOutgoing)

	n := 0
	for sc.Scan() {
		raw := sc.Bytes()
		if _, err := fmt.Fprintf(w, "%-8s %X\n", describeOutgoing(raw), raw); err != nil {
			return n, err
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("scan dump: %w", err)
	}
	return n, nil
}

func describeOutgoing(raw []byte) string {
	if len(raw) < 3 {
		return "short"
	}
	switch {
	case len(raw) == 4 && raw[2] == 0x00 && raw[3] == 0x00:
		return "stop"
	case len(raw) == 4 && raw[2] == 0x09:
		return "battery"
	case len(raw) == 5 && raw[2] == 0x00 && raw[4] == 0x01:
		return "pair"
	case raw[1] == 0x14 && raw[2] == 0x00:
		return "start"
	case raw[1] == 0x09 && raw[2] == 0x01:
		return "keyboard"
	default:
		return fmt.Sprintf("len%d", raw[1])
	}
}
