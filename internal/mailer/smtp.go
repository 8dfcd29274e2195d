// Package mailer delivers messages over SMTP with STARTTLS and PLAIN auth.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"billing/internal/logger"
	"billing/pkg/services"
)

var (
	// ErrNoRecipient is returned for messages without a To address.
	ErrNoRecipient = errors.New("message has no recipient")

	// ErrNoStartTLS is returned when the server does not offer STARTTLS and
	// insecure delivery is not allowed.
	ErrNoStartTLS = errors.New("server does not support STARTTLS")
)

// Config is the SMTP server the mailer talks to.
type Config struct {
	Server   string
	Port     int
	Username string
	Password string
	Insecure bool // Skip certificate checks and allow plaintext when STARTTLS is missing
	Timeout  time.Duration
}

// SMTPMailer implements services.Mailer.
type SMTPMailer struct {
	cfg  Config
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
	now  func() time.Time
	log  zerolog.Logger
}

func New(cfg Config) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	return &SMTPMailer{
		cfg:  cfg,
		dial: dialer.DialContext,
		now:  time.Now,
		log:  logger.WithComponent("mailer"),
	}
}

// Send delivers msg. It returns nil only after the server accepted the data.
func (m *SMTPMailer) Send(ctx context.Context, msg services.Message) error {
	const op = "mailer.Send"

	if msg.To == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRecipient)
	}

	data, err := Compose(msg, m.now())
	if err != nil {
		return fmt.Errorf("%s: compose message: %w", op, err)
	}

	addr := net.JoinHostPort(m.cfg.Server, strconv.Itoa(m.cfg.Port))
	conn, err := m.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%s: connect to %s: %w", op, addr, err)
	}

	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%s: greeting from %s: %w", op, addr, err)
	}
	defer client.Close()

	if err := m.deliver(client, msg, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.log.Info().
		Str("smtp", addr).
		Str("to", msg.To).
		Int("attachments", len(msg.Attachments)).
		Msg("Mail delivered")
	return nil
}

func (m *SMTPMailer) deliver(client *smtp.Client, msg services.Message, data []byte) error {
	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName:         m.cfg.Server,
			InsecureSkipVerify: m.cfg.Insecure,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	} else if !m.cfg.Insecure {
		return ErrNoStartTLS
	}

	if m.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := client.Mail(envelope(msg.From)); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(envelope(msg.To)); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data not accepted: %w", err)
	}

	// The message is accepted at this point, a failing QUIT must not turn it into an error.
	if err := client.Quit(); err != nil {
		m.log.Debug().Err(err).Msg("QUIT failed after delivery")
	}
	return nil
}

// envelope strips the display name from an address.
func envelope(address string) string {
	if parsed, err := mail.ParseAddress(address); err == nil {
		return parsed.Address
	}
	return address
}
