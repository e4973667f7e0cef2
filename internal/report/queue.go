package report

import "github.com/yunzii-kb/smartble/internal/hid"

const (
	// DefaultCapacity is the queue depth used when none is configured.
	DefaultCapacity = 32
	// MaxPayload bounds a single queued report.
	MaxPayload = 32
)

// Entry is one queued report. Data is stored inline so pushing never allocates.
type Entry struct {
	Kind hid.Kind
	Data [MaxPayload]byte
	Len  uint8
}

func (e *Entry) Payload() []byte {
	return e.Data[:e.Len]
}

// Queue is a bounded FIFO of outgoing reports for a single producer and a
// single consumer on the same goroutine. Push on a full queue drops the new
// report; nothing is ever overwritten, reordered or coalesced.
type Queue struct {
	buf     []Entry
	head    int
	count   int
	dropped uint64
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{buf: make([]Entry, capacity)}
}

// Push appends a report. It returns false, leaving the queue unchanged, when
// the queue is full or the payload does not fit an entry.
func (q *Queue) Push(kind hid.Kind, payload []byte) bool {
	if len(payload) > MaxPayload || q.count == len(q.buf) {
		q.dropped++
		return false
	}

	tail := (q.head + q.count) % len(q.buf)
	e := &q.buf[tail]
	e.Kind = kind
	// #nosec G115 -- bounded by MaxPayload above.
	e.Len = uint8(len(payload))
	copy(e.Data[:], payload)
	q.count++

	return true
}

func (q *Queue) Peek() (Entry, bool) {
	if q.count == 0 {
		return Entry{}, false
	}
	return q.buf[q.head], true
}

func (q *Queue) Pop() (Entry, bool) {
	if q.count == 0 {
		return Entry{}, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = Entry{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--

	return e, true
}

func (q *Queue) Len() int { return q.count }

func (q *Queue) Cap() int { return len(q.buf) }

func (q *Queue) Empty() bool { return q.count == 0 }

// Dropped counts reports refused by Push since creation.
func (q *Queue) Dropped() uint64 { return q.dropped }

// Reset discards every queued report.
func (q *Queue) Reset() {
	for i := range q.buf {
		q.buf[i] = Entry{}
	}
	q.head = 0
	q.count = 0
}
