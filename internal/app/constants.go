package app

const (
	Name            = "smartble"
	ConfigFilename  = "config.json"
	CaptureFilename = "capture.db"
	LogFilename     = "smartble.log"

	captureWriterCapacity = 1024
)
