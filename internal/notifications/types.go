package notifications

// Payload is a user-facing notification.
type Payload struct {
	Title   string
	Content string
}

// Sender delivers notifications through a platform backend.
type Sender interface {
	Send(payload Payload)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(Payload)

func (f SenderFunc) Send(p Payload) { f(p) }
