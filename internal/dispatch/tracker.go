// Package dispatch delivers stored invoices and tracks their sent state.
//
// An invoice moves Created -> Sent only after the mailer confirmed delivery. A
// crash between delivery and MarkSent leaves the invoice in Created, so the
// next run may send it again; no run ever loses a delivery.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"billing/internal/logger"
	"billing/pkg/models"
	"billing/pkg/services"
)

// ErrNoRecipient is returned for invoices without an email address.
var ErrNoRecipient = errors.New("invoice has no recipient email")

// DefaultTemplate is the mail body used when no template file is configured.
const DefaultTemplate = `Hallo,

anbei erhalten Sie die Rechnung {{.Invoice.ID}} über {{.Gross}} € für den Zeitraum {{.Invoice.Period}}.

Mit freundlichen Grüßen
{{.Company}}
`

// Store is the part of the invoice store the tracker needs.
type Store interface {
	MarkSent(id string) error
	PDFPath(inv *models.Invoice) string
}

// Config describes the outgoing mail.
type Config struct {
	From     string
	Subject  string // Prefixed to the invoice id
	Company  string // Prefixed to the attachment name
	Template *template.Template
}

// Outcome reports what Dispatch did with one invoice.
type Outcome struct {
	Sent    bool
	Skipped bool
}

// Tracker sends invoices through a mailer and records delivery.
type Tracker struct {
	store  Store
	mailer services.Mailer
	cfg    Config
	log    zerolog.Logger
}

func NewTracker(store Store, mailer services.Mailer, cfg Config) *Tracker {
	if cfg.Template == nil {
		cfg.Template = template.Must(template.New("invoice_mail").Parse(DefaultTemplate))
	}
	return &Tracker{
		store:  store,
		mailer: mailer,
		cfg:    cfg,
		log:    logger.WithComponent("dispatch"),
	}
}

// LoadTemplate parses the mail template at path, or the default template when
// path is empty.
func LoadTemplate(path string) (*template.Template, error) {
	if path == "" {
		return template.New("invoice_mail").Parse(DefaultTemplate)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dispatch.LoadTemplate: %w", err)
	}
	return template.New("invoice_mail").Parse(string(data))
}

// Dispatch sends inv unless it was sent before and force is not set. The invoice
// is marked sent only after the mailer returned success.
func (t *Tracker) Dispatch(ctx context.Context, inv *models.Invoice, force bool) (Outcome, error) {
	const op = "dispatch.Dispatch"

	if inv.Sent && !force {
		t.log.Info().Str("invoice", inv.ID).Msgf("Skip previously sent invoice %s", inv.ID)
		return Outcome{Skipped: true}, nil
	}

	msg, err := t.message(inv)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %s: %w", op, inv.ID, err)
	}

	t.log.Info().Str("invoice", inv.ID).Str("to", inv.Email).Msgf("Sending invoice %s", inv.ID)
	if err := t.mailer.Send(ctx, msg); err != nil {
		t.log.Error().Err(err).Str("invoice", inv.ID).Msg("Delivery failed")
		return Outcome{}, fmt.Errorf("%s: %s: %w", op, inv.ID, err)
	}

	if err := t.store.MarkSent(inv.ID); err != nil {
		// Delivered but not recorded: the next run sends it again.
		t.log.Error().Err(err).Str("invoice", inv.ID).Msg("Invoice delivered but could not be marked sent")
		return Outcome{}, fmt.Errorf("%s: %s: %w", op, inv.ID, err)
	}
	inv.Sent = true

	return Outcome{Sent: true}, nil
}

func (t *Tracker) message(inv *models.Invoice) (services.Message, error) {
	if strings.TrimSpace(inv.Email) == "" {
		return services.Message{}, ErrNoRecipient
	}

	pdf, err := os.ReadFile(t.store.PDFPath(inv))
	if err != nil {
		return services.Message{}, fmt.Errorf("read attachment: %w", err)
	}

	var body strings.Builder
	err = t.cfg.Template.Execute(&body, map[string]any{
		"Invoice": inv,
		"Company": t.cfg.Company,
		"Gross":   inv.TotalGross.StringFixed(2),
		"Net":     inv.TotalNet.StringFixed(2),
		"VAT":     inv.TotalVAT.StringFixed(2),
	})
	if err != nil {
		return services.Message{}, fmt.Errorf("render mail body: %w", err)
	}

	return services.Message{
		From:    t.cfg.From,
		To:      inv.Email,
		Subject: strings.TrimSpace(t.cfg.Subject + " " + inv.ID),
		Body:    body.String(),
		Attachments: []services.Attachment{{
			Filename:    strings.TrimSpace(t.cfg.Company + " " + inv.ID + ".pdf"),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}, nil
}
