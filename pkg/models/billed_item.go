package models

import "github.com/shopspring/decimal"

// BilledItem is a contract item instantiated for one billing period.
type BilledItem struct {
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Quantity    decimal.Decimal `yaml:"quantity"`
	Subtotal    decimal.Decimal `yaml:"subtotal"`
	Key         string          `yaml:"key"`     // Period key, "YYYY-MM"
	Invoice     *string         `yaml:"invoice"` // Set once when included in an invoice
}

// Billed reports whether the item is already part of an invoice.
func (b *BilledItem) Billed() bool {
	return b.Invoice != nil && *b.Invoice != ""
}
