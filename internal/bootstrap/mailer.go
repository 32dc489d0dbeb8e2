package bootstrap

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/baechuer/nippou-service/internal/application/auth"
	"github.com/baechuer/nippou-service/internal/logger"
	"github.com/baechuer/nippou-service/internal/tracing"
)

// instrumentedMailer traces and logs every hand-off to the mail transport.
// Recipients are not logged.
type instrumentedMailer struct {
	next      auth.Mailer
	transport string
}

func newInstrumentedMailer(next auth.Mailer, transport string) *instrumentedMailer {
	if transport == "" {
		transport = "log"
	}
	return &instrumentedMailer{next: next, transport: transport}
}

func (m *instrumentedMailer) Send(ctx context.Context, to, subject, body string) error {
	ctx, span := tracing.StartSpan(ctx, "mail.send")
	defer span.End()
	span.SetAttributes(attribute.String("mail.transport", m.transport))

	start := time.Now()
	err := m.next.Send(ctx, to, subject, body)

	ev := logger.WithCtx(ctx).Info()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		ev = logger.WithCtx(ctx).Error().Err(err)
	}
	ev.Str("transport", m.transport).Dur("latency", time.Since(start)).Msg("mail_send")
	return err
}
