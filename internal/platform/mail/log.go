package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes outgoing mail to the log instead of delivering it.
// Used when no SMTP relay is configured, so development environments
// can exercise the mail paths without a mail server.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mail").Logger()}
}

func (s *LogSender) Send(_ context.Context, to []string, subject, body string) error {
	s.logger.Info().
		Strs("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("mail delivery skipped (no SMTP relay configured)")
	return nil
}
