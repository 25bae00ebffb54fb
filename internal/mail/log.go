package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes outgoing mail to the log instead of sending it.
// Used in development so verification and reset links stay visible
// without an SMTP server.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "outgoing mail (not sent)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
