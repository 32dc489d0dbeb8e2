package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

type SMTPSender struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	from     string
	insecure bool

	timeout time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		lg:       lg.With().Str("component", "smtp_sender").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		from:     cfg.From,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,
	}
}

// Send delivers a plain-text message with an HTML alternative.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m, err := s.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	tlsPolicy := mail.TLSMandatory
	if s.insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.user != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(s.user), mail.WithPassword(s.pass))
	}

	c, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client init: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("subject", subject).Msg("smtp send failed")
		return fmt.Errorf("smtp send: %w", err)
	}

	s.lg.Info().Str("subject", subject).Msg("smtp send ok")
	return nil
}

func (s *SMTPSender) buildMessage(to, subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	m.Subject(subject)

	// Text fallback + HTML alternative
	m.SetBodyString(mail.TypeTextPlain, body)
	m.AddAlternativeString(mail.TypeTextHTML, renderHTML(subject, body))
	return m, nil
}

// renderHTML escapes body and turns any URL line into a link.
func renderHTML(title, body string) string {
	var b strings.Builder
	b.WriteString(`<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + html.EscapeString(title) + `</h2>
`)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		esc := html.EscapeString(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			b.WriteString(`    <p><a href="` + esc + `">` + esc + "</a></p>\n")
			continue
		}
		b.WriteString("    <p>" + esc + "</p>\n")
	}
	b.WriteString("  </body>\n</html>")
	return b.String()
}
