package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"billing/pkg/models"
)

func TestMatcherAssign(t *testing.T) {
	invoices := []*models.Invoice{
		invoiceOf("1000.2019.10", "1000", "60.21"),
		invoiceOf("1000.2019.11", "1000", "48.45"),
		invoiceOf("1002.2019.10", "1002", "56.99"),
	}
	entries := []models.PaymentEntry{
		payment(1, "60.21", "RECHNUNG 1000.2019.10"),
		payment(2, "108.66", "Rechnungen 1000.2019.10 und 1000.2019.11"),
		payment(3, "117.20", "1000.2019.10 1002.2019.10"),
		assigned(payment(4, "56.99", "Rechnung 1002.2019.10"), "1001"),
		payment(5, "-56.99", "Rueckbuchung 1002.2019.10"),
		payment(6, "5.00", "Spende"),
	}

	n := NewMatcher().Assign(entries, invoices)
	assert.Equal(t, 2, n)

	assert.Equal(t, "1000", entries[0].CID)
	assert.Equal(t, "1000", entries[1].CID)
	assert.Empty(t, entries[2].CID, "ambiguous subjects stay unassigned")
	assert.Equal(t, "1001", entries[3].CID, "existing assignments are kept")
	assert.Empty(t, entries[4].CID)
	assert.Empty(t, entries[5].CID)
}

func TestMatcherWholeIDs(t *testing.T) {
	invoices := []*models.Invoice{
		invoiceOf("1000.2019.10", "1000", "60.21"),
		invoiceOf("1000.2019.1", "1000", "60.21"),
	}
	entries := []models.PaymentEntry{
		payment(1, "60.21", "Rechnung 11000.2019.10"),
		payment(2, "60.21", "Rechnung 1000.2019.101"),
		payment(3, "60.21", "Rechnung 1000.2019.10."),
		payment(4, "60.21", "RE-1000.2019.1, Kd 1000"),
		payment(5, "60.21", "Rechnung 21000.2019.1x"),
	}

	n := NewMatcher().Assign(entries, invoices)
	assert.Equal(t, 2, n)

	assert.Empty(t, entries[0].CID)
	assert.Empty(t, entries[1].CID)
	assert.Equal(t, "1000", entries[2].CID)
	assert.Equal(t, "1000", entries[3].CID)
	assert.Empty(t, entries[4].CID)
}

func TestMentions(t *testing.T) {
	tests := []struct {
		subject string
		want    bool
	}{
		{"1000.2019.q4", true},
		{"rechnung 1000.2019.q4 danke", true},
		{"rechnung 1000.2019.q4.", true},
		{"11000.2019.q4", false},
		{"1000.2019.q41", false},
		{"1000.2019.q4.1", false},
		{"11000.2019.q4 1000.2019.q4", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, mentions(tt.subject, "1000.2019.q4"))
		})
	}
}
