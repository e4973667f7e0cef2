package events

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/yunzii-kb/smartble/internal/link"
)

// Publisher is the publishing half of the message bus.
type Publisher interface {
	Publish(topic string, msg any)
}

// BusObserver forwards link controller notifications to the bus.
type BusObserver struct {
	pub Publisher
	now func() time.Time

	lastLink  LinkStatus
	published bool
}

func NewBusObserver(pub Publisher) *BusObserver {
	return &BusObserver{pub: pub, now: time.Now}
}

// LinkChanged publishes a LinkStatus when mode, connectivity or pairing
// changed. Deadline-only updates are not forwarded.
func (o *BusObserver) LinkChanged(s link.State) {
	next := LinkStatus{Mode: s.Mode, Connected: s.Connected, Pairing: s.Pairing}
	if o.published && next == o.lastLink {
		return
	}
	o.lastLink = next
	o.published = true

	next.Timestamp = o.now()
	o.pub.Publish(TopicLinkStatus, next)
}

func (o *BusObserver) LEDsChanged(mask uint8) {
	o.pub.Publish(TopicLEDs, LEDs{Mask: mask, Timestamp: o.now()})
}

func (o *BusObserver) FrameIn(raw []byte) {
	o.pub.Publish(TopicRawFrameIn, o.rawFrame(DirectionIn, raw))
}

func (o *BusObserver) FrameOut(raw []byte) {
	o.pub.Publish(TopicRawFrameOut, o.rawFrame(DirectionOut, raw))
}

func (o *BusObserver) rawFrame(dir Direction, raw []byte) RawFrame {
	return RawFrame{
		Direction: dir,
		Hex:       strings.ToUpper(hex.EncodeToString(raw)),
		Len:       len(raw),
		Timestamp: o.now(),
	}
}
