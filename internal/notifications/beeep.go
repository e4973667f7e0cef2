package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

// BeeepSender shows native desktop notifications via beeep.
type BeeepSender struct {
	logger *slog.Logger
	icon   any
	notify func(title, message string, icon any) error
}

func NewBeeepSender(logger *slog.Logger, appName string) *BeeepSender {
	if logger == nil {
		logger = slog.Default().With("component", "notifications")
	}
	if appName != "" {
		beeep.AppName = appName
	}
	return &BeeepSender{logger: logger, icon: "", notify: beeep.Notify}
}

func (s *BeeepSender) Send(p Payload) {
	title := strings.TrimSpace(p.Title)
	content := strings.TrimSpace(p.Content)
	if title == "" && content == "" {
		return
	}
	if err := s.notify(title, content, s.icon); err != nil {
		s.logger.Warn("desktop notification failed", "title", title, "error", err)
	}
}
