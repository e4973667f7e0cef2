package events

const (
	TopicConnStatus  = "conn.status"
	TopicLinkStatus  = "link.status"
	TopicLEDs        = "link.leds"
	TopicRawFrameIn  = "raw.frame.in"
	TopicRawFrameOut = "raw.frame.out"
)
