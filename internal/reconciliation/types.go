package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"

	"billing/pkg/models"
)

// Batch is one imported bank statement
type Batch struct {
	ID         string                `yaml:"id"`          // ULID, sorts by import time
	ImportedAt time.Time             `yaml:"imported_at"` // When the statement was imported
	Source     string                `yaml:"source"`      // File name or sheet range the rows came from
	Entries    []models.PaymentEntry `yaml:"entries"`
}

// ImportResult reports what Import stored
type ImportResult struct {
	Batch      *Batch
	Duplicates int // Rows already present in an earlier batch
}

// Balance is the account of one customer
type Balance struct {
	CID      string
	Invoices []*models.Invoice     // Invoices of the customer, sorted by id
	Payments []models.PaymentEntry // Payments assigned to the customer, sorted by date
	Invoiced decimal.Decimal       // Sum of invoice gross totals
	Paid     decimal.Decimal       // Sum of payment amounts
	Balance  decimal.Decimal       // Paid - Invoiced; negative means outstanding debt
}

// Outstanding reports whether the customer owes money.
func (b *Balance) Outstanding() bool {
	return b.Balance.IsNegative()
}

// IsIncoming returns true if this is an incoming payment (positive amount)
func IsIncoming(p models.PaymentEntry) bool {
	return p.Amount.IsPositive()
}
