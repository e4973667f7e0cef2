package link

// Observer is told about link changes and wire traffic. Calls happen on the
// goroutine running Tick and must not block.
type Observer interface {
	LinkChanged(State)
	LEDsChanged(leds uint8)
	FrameIn(raw []byte)
	FrameOut(raw []byte)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) LinkChanged(State) {}
func (NopObserver) LEDsChanged(uint8) {}
func (NopObserver) FrameIn([]byte)    {}
func (NopObserver) FrameOut([]byte)   {}
