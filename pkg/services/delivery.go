package services

import (
	"context"

	"billing/pkg/models"
)

// Mailer delivers one message. A nil error means the server accepted it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is an outgoing mail with optional attachments
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment is a file attached to a message under a display name
type Attachment struct {
	Filename    string // Name shown to the recipient
	ContentType string // Defaults to application/octet-stream
	Data        []byte
}

// Renderer produces printable documents for invoices and contracts
type Renderer interface {
	// RenderInvoice writes the invoice document to path
	RenderInvoice(inv *models.Invoice, path string) error

	// RenderContract writes the contract document to path
	RenderContract(c *models.Contract, path string) error
}
