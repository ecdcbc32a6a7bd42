package mail

import (
	"context"

	"github.com/dtroode/alumni-server/internal/logger"
)

// LogSender records outgoing mail in the log instead of delivering it.
// Only the recipient, subject and tag are logged.
type LogSender struct {
	logger *logger.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.Info("Mail: message not delivered, no provider configured",
		"to", msg.To,
		"subject", msg.Subject,
		"tag", msg.Tag)
	return nil
}
