package transport

import "sync/atomic"

// rxRing is a single-producer, single-consumer byte ring between the serial
// reader goroutine and the link tick. Indices are monotonic; size is a power of two.
type rxRing struct {
	buf     []byte
	mask    uint32
	rd      atomic.Uint32
	wr      atomic.Uint32
	dropped atomic.Uint64
}

func newRxRing(size int) *rxRing {
	if size < 2 || size&(size-1) != 0 {
		panic("transport: ring size must be power of two >= 2")
	}
	return &rxRing{
		buf: make([]byte, size),
		// #nosec G115 -- size is a small positive power of two.
		mask: uint32(size - 1),
	}
}

func (r *rxRing) size() uint32 {
	// #nosec G115 -- see newRxRing.
	return uint32(len(r.buf))
}

func (r *rxRing) available() int {
	return int(r.wr.Load() - r.rd.Load())
}

// write copies as much of src as fits and counts the rest as dropped.
func (r *rxRing) write(src []byte) int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	space := int(r.size() - (wr - rd))
	n := len(src)
	if n > space {
		r.dropped.Add(uint64(n - space))
		n = space
	}
	for i := 0; i < n; i++ {
		r.buf[(wr+uint32(i))&r.mask] = src[i]
	}
	// #nosec G115 -- n is bounded by ring size.
	r.wr.Store(wr + uint32(n))

	return n
}

func (r *rxRing) readByte() (byte, bool) {
	rd := r.rd.Load()
	if r.wr.Load() == rd {
		return 0, false
	}
	b := r.buf[rd&r.mask]
	r.rd.Store(rd + 1)

	return b, true
}

func (r *rxRing) reset() {
	r.rd.Store(r.wr.Load())
}
