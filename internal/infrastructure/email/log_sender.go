package email

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes mail to the log instead of delivering it. Intended for
// local development, where the link in the body is all anyone needs.
type LogSender struct {
	lg zerolog.Logger
}

func NewLogSender(lg zerolog.Logger) *LogSender {
	return &LogSender{lg: lg.With().Str("component", "log_sender").Logger()}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lg.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("mail_logged")
	return nil
}
