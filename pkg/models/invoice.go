package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	// Core identifiers
	ID         string `yaml:"id"`  // "<contract id>.<period suffix>"
	ContractID string `yaml:"cid"` // Owning contract

	// Dates
	Date        string    `yaml:"date"`         // Issue date, formatted with the configured layout
	Period      string    `yaml:"period"`       // Human-readable billing period
	PeriodStart time.Time `yaml:"period_start"` // First day covered
	PeriodEnd   time.Time `yaml:"period_end"`   // Last day covered

	// Recipient
	Address []string `yaml:"address"`
	Email   string   `yaml:"email"`

	// Lines and totals
	Items      []InvoiceLine   `yaml:"items"`
	TotalNet   decimal.Decimal `yaml:"total_net"`
	TotalVAT   decimal.Decimal `yaml:"total_vat"`
	TotalGross decimal.Decimal `yaml:"total_gross"`
	VAT        decimal.Decimal `yaml:"vat"` // VAT percent applied

	// Status
	Sent bool `yaml:"sent"` // Delivered to the recipient
}

type InvoiceLine struct {
	Item        int             `yaml:"item"` // 1-based position on the invoice
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Quantity    decimal.Decimal `yaml:"quantity"`
	Subtotal    decimal.Decimal `yaml:"subtotal"`
}

// InvoiceState is the dispatch state of an invoice.
type InvoiceState string

const (
	StateDraft   InvoiceState = "draft"   // generated, not yet persisted
	StateCreated InvoiceState = "created" // persisted, not delivered
	StateSent    InvoiceState = "sent"    // delivered
)

// State reports the persisted state of the invoice. Drafts are invoice values that
// have not gone through the store yet; callers track that themselves.
func (i *Invoice) State() InvoiceState {
	if i.Sent {
		return StateSent
	}
	return StateCreated
}

// LineSum returns the sum of all line subtotals.
func (i *Invoice) LineSum() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range i.Items {
		sum = sum.Add(line.Subtotal)
	}
	return sum
}
