package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentEntry is one parsed bank statement row.
type PaymentEntry struct {
	Date     time.Time       `yaml:"date"`
	Subject  string          `yaml:"subject"`
	Amount   decimal.Decimal `yaml:"amount"` // Positive for incoming money
	Sender   string          `yaml:"sender"`
	Receiver string          `yaml:"receiver"`
	CID      string          `yaml:"cid"` // Assigned contract, empty until matched
}

// Fingerprint identifies a statement row independent of its contract assignment.
func (p PaymentEntry) Fingerprint() string {
	return p.Date.Format("2006-01-02") + "|" + p.Amount.String() + "|" + p.Subject + "|" + p.Sender + "|" + p.Receiver
}
