package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/pkg/models"
)

func invoiceOf(id, cid, gross string) *models.Invoice {
	return &models.Invoice{ID: id, ContractID: cid, TotalGross: decimal.RequireFromString(gross)}
}

func assigned(p models.PaymentEntry, cid string) models.PaymentEntry {
	p.CID = cid
	return p
}

func TestReconcile(t *testing.T) {
	invoices := []*models.Invoice{
		invoiceOf("1000.2019.11", "1000", "48.45"),
		invoiceOf("1000.2019.10", "1000", "60.21"),
		invoiceOf("1002.2019.10", "1002", "56.99"),
	}
	payments := []models.PaymentEntry{
		assigned(payment(20, "48.45", "Rechnung 1000.2019.11"), "1000"),
		assigned(payment(1, "60.21", "Rechnung 1000.2019.10"), "1000"),
		assigned(payment(2, "10.00", "Teilzahlung"), "1002"),
		payment(3, "99.99", "unbekannt"),
	}

	tests := []struct {
		name     string
		cid      string
		invoices []*models.Invoice
		payments []models.PaymentEntry
		want     string
	}{
		{"settled", "1000", invoices, payments, "0.00"},
		{"outstanding", "1002", invoices, payments, "-46.99"},
		{"no payments", "1000", invoices, nil, "-108.66"},
		{"no invoices", "1000", nil, payments, "108.66"},
		{"unknown customer", "9999", invoices, payments, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.cid, tt.invoices, tt.payments, 2)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestReconcileOrderIndependent(t *testing.T) {
	invoices := []*models.Invoice{
		invoiceOf("1000.2019.10", "1000", "60.21"),
		invoiceOf("1000.2019.11", "1000", "48.45"),
	}
	payments := []models.PaymentEntry{
		assigned(payment(1, "60.21", "a"), "1000"),
		assigned(payment(9, "40.00", "b"), "1000"),
	}
	reversedInvoices := []*models.Invoice{invoices[1], invoices[0]}
	reversedPayments := []models.PaymentEntry{payments[1], payments[0]}

	a := Reconcile("1000", invoices, payments, 2)
	b := Reconcile("1000", reversedInvoices, reversedPayments, 2)
	assert.True(t, a.Equal(b))
	assert.Equal(t, "-8.45", a.StringFixed(2))
}

func TestReport(t *testing.T) {
	invoices := []*models.Invoice{
		invoiceOf("1000.2019.11", "1000", "48.45"),
		invoiceOf("1002.2019.10", "1002", "56.99"),
		invoiceOf("1000.2019.10", "1000", "60.21"),
	}
	payments := []models.PaymentEntry{
		assigned(payment(20, "48.45", "b"), "1000"),
		assigned(payment(1, "60.21", "a"), "1000"),
	}

	report := Report("1000", invoices, payments, 2)
	require.Len(t, report.Invoices, 2)
	assert.Equal(t, "1000.2019.10", report.Invoices[0].ID)
	assert.Equal(t, "1000.2019.11", report.Invoices[1].ID)
	require.Len(t, report.Payments, 2)
	assert.Equal(t, "a", report.Payments[0].Subject)
	assert.Equal(t, "108.66", report.Invoiced.StringFixed(2))
	assert.Equal(t, "108.66", report.Paid.StringFixed(2))
	assert.False(t, report.Outstanding())

	assert.True(t, Report("1002", invoices, payments, 2).Outstanding())
}

func TestCustomers(t *testing.T) {
	invoices := []*models.Invoice{invoiceOf("1002.2019.10", "1002", "1"), invoiceOf("1000.2019.10", "1000", "1")}
	payments := []models.PaymentEntry{assigned(payment(1, "1", ""), "1001"), payment(2, "1", ""), assigned(payment(3, "1", ""), "1000")}
	assert.Equal(t, []string{"1000", "1001", "1002"}, Customers(invoices, payments))
}
