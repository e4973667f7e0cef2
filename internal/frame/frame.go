package frame

// Wire layout of frames exchanged with the radio module:
//
//	55 LEN CMD WORKMODE [DATA...]
//
// LEN counts every byte after itself, so a complete frame is LEN+2 bytes long.
const (
	Sync = 0x55

	MinFrameLen = 2
	MaxFrameLen = 38
	BufferSize  = 40

	MaxCommand  = 2
	MaxWorkMode = 4

	StatusFrameLen = 3
)

// Commands carried in incoming status frames.
const (
	CmdConnectivity byte = 0
	CmdLED          byte = 1
	CmdOther        byte = 2
)

// Frame is a complete frame received from the module. Raw includes sync and length bytes.
type Frame struct {
	Raw []byte
}

func (f Frame) Len() int {
	if len(f.Raw) < 2 {
		return 0
	}
	return int(f.Raw[1])
}

func (f Frame) Command() byte {
	if len(f.Raw) < 3 {
		return 0
	}
	return f.Raw[2]
}

func (f Frame) WorkMode() byte {
	if len(f.Raw) < 4 {
		return 0
	}
	return f.Raw[3]
}

// Payload returns the bytes after WORKMODE.
func (f Frame) Payload() []byte {
	if len(f.Raw) <= 4 {
		return nil
	}
	return f.Raw[4:]
}

func (f Frame) IsStatus() bool {
	return f.Len() == StatusFrameLen && len(f.Raw) == StatusFrameLen+2
}

// Status is the decoded content of a status frame.
type Status struct {
	Command  byte
	WorkMode byte
	Data     byte
}

// Connected reports the connectivity flag of a CmdConnectivity status; zero means connected.
func (s Status) Connected() bool {
	return s.Data == 0
}

// DecodeStatus interprets f as a status frame. Frames of any other length are not
// interpreted and return false.
func DecodeStatus(f Frame) (Status, bool) {
	if !f.IsStatus() {
		return Status{}, false
	}
	return Status{
		Command:  f.Raw[2],
		WorkMode: f.Raw[3],
		Data:     f.Raw[4],
	}, true
}
