package frame

// State is the position of the parser inside an incoming frame.
type State uint8

const (
	StateReady State = iota
	StateSyncSeen
	StateLenSeen
	StateCmdSeen
	StateAwaitingPayload
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateSyncSeen:
		return "sync-seen"
	case StateLenSeen:
		return "len-seen"
	case StateCmdSeen:
		return "cmd-seen"
	case StateAwaitingPayload:
		return "awaiting-payload"
	default:
		return "unknown"
	}
}

// RejectReason names the framing check that failed.
type RejectReason string

const (
	RejectBadLength   RejectReason = "bad-length"
	RejectBadCommand  RejectReason = "bad-command"
	RejectBadWorkMode RejectReason = "bad-workmode"
	RejectOverflow    RejectReason = "overflow"
)

// Reject describes a byte the parser refused. Accepted is set when lenient
// validation let an out-of-range command or work mode through.
type Reject struct {
	Reason   RejectReason
	Byte     byte
	Accepted bool
}

// Options tune validation of incoming frames.
type Options struct {
	// Lenient accepts command and work mode values beyond the documented ranges.
	// Length bounds are never relaxed.
	Lenient bool
	// OnReject is called for every framing violation, including the ones Lenient accepts.
	OnReject func(Reject)
}

// Stats counts parser outcomes since creation.
type Stats struct {
	Frames  uint64
	Rejects uint64
	Resyncs uint64
}

// Parser is an incremental decoder for the module's frame stream. It is fed one
// byte at a time and never grows its buffer; any malformed input drops the
// partial frame and returns it to StateReady.
type Parser struct {
	opts  Options
	state State
	buf   [BufferSize]byte
	idx   int
	want  int
	stats Stats
}

func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

func (p *Parser) State() State { return p.state }

func (p *Parser) Stats() Stats { return p.stats }

// Buffered returns how many bytes of the current frame are held.
func (p *Parser) Buffered() int { return p.idx }

func (p *Parser) Reset() {
	p.state = StateReady
	p.idx = 0
	p.want = 0
}

// Feed consumes one byte. It returns the completed frame and true when b
// finishes a frame.
func (p *Parser) Feed(b byte) (Frame, bool) {
	switch p.state {
	case StateReady:
		if b != Sync {
			return Frame{}, false
		}
		p.begin()
	case StateSyncSeen:
		if b == Sync {
			p.stats.Resyncs++
			p.begin()
			return Frame{}, false
		}
		n := int(b)
		if n < MinFrameLen || n > MaxFrameLen || n+2 > BufferSize {
			p.reject(RejectBadLength, b, false)
			return Frame{}, false
		}
		p.want = n + 2
		p.push(b)
		p.state = StateLenSeen
	case StateLenSeen:
		if b > MaxCommand {
			if !p.opts.Lenient {
				p.reject(RejectBadCommand, b, false)
				return Frame{}, false
			}
			p.report(RejectBadCommand, b, true)
		}
		p.push(b)
		p.state = StateCmdSeen
	case StateCmdSeen:
		if b > MaxWorkMode {
			if !p.opts.Lenient {
				p.reject(RejectBadWorkMode, b, false)
				return Frame{}, false
			}
			p.report(RejectBadWorkMode, b, true)
		}
		p.push(b)
		p.state = StateAwaitingPayload
		// a two-byte LEN carries no payload
		if p.idx >= p.want {
			return p.complete()
		}
	case StateAwaitingPayload:
		if p.idx >= len(p.buf) {
			p.reject(RejectOverflow, b, false)
			return Frame{}, false
		}
		p.push(b)
		if p.idx >= p.want {
			return p.complete()
		}
	default:
		p.Reset()
	}

	return Frame{}, false
}

// Write feeds every byte of data and returns the frames completed along the way.
func (p *Parser) Write(data []byte) []Frame {
	var out []Frame
	for _, b := range data {
		if f, ok := p.Feed(b); ok {
			out = append(out, f)
		}
	}
	return out
}

func (p *Parser) begin() {
	p.idx = 0
	p.want = 0
	p.push(Sync)
	p.state = StateSyncSeen
}

func (p *Parser) push(b byte) {
	p.buf[p.idx] = b
	p.idx++
}

func (p *Parser) complete() (Frame, bool) {
	raw := make([]byte, p.idx)
	copy(raw, p.buf[:p.idx])
	p.stats.Frames++
	p.Reset()

	return Frame{Raw: raw}, true
}

func (p *Parser) reject(reason RejectReason, b byte, accepted bool) {
	p.report(reason, b, accepted)
	p.Reset()
}

func (p *Parser) report(reason RejectReason, b byte, accepted bool) {
	p.stats.Rejects++
	if p.opts.OnReject != nil {
		p.opts.OnReject(Reject{Reason: reason, Byte: b, Accepted: accepted})
	}
}
