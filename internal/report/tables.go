// Package report builds tabular views of invoices, payments and balances and
// exports them to xlsx files or Google Sheets.
package report

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"billing/internal/reconciliation"
	"billing/pkg/models"
)

// Table is one exported sheet. Cells are strings, ints, bools or decimals.
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// Balances lists the account of every customer that has invoices or payments.
func Balances(invoices []*models.Invoice, payments []models.PaymentEntry, places int32) Table {
	t := Table{
		Name:   "Salden",
		Header: []string{"Kunde", "Rechnungen", "Zahlungen", "Berechnet", "Bezahlt", "Saldo"},
	}
	for _, cid := range reconciliation.Customers(invoices, payments) {
		b := reconciliation.Report(cid, invoices, payments, places)
		t.Rows = append(t.Rows, []interface{}{
			b.CID, len(b.Invoices), len(b.Payments), b.Invoiced, b.Paid, b.Balance,
		})
	}
	return t
}

// Register lists every invoice, sorted by id.
func Register(invoices []*models.Invoice) Table {
	sorted := append([]*models.Invoice(nil), invoices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	return Table{
		Name:   "Rechnungen",
		Header: []string{"Rechnung", "Kunde", "Datum", "Zeitraum", "Netto", "MwSt", "Brutto", "Versendet"},
		Rows: lo.Map(sorted, func(inv *models.Invoice, _ int) []interface{} {
			return []interface{}{
				inv.ID, inv.ContractID, inv.Date, inv.Period,
				inv.TotalNet, inv.TotalVAT, inv.TotalGross, inv.Sent,
			}
		}),
	}
}

// Payments lists statement entries in booking order.
func Payments(entries []models.PaymentEntry, dateLayout string) Table {
	sorted := append([]models.PaymentEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	return Table{
		Name:   "Zahlungen",
		Header: []string{"Datum", "Betreff", "Betrag", "Auftraggeber", "Empfänger", "Kunde"},
		Rows: lo.Map(sorted, func(p models.PaymentEntry, _ int) []interface{} {
			return []interface{}{
				p.Date.Format(dateLayout), p.Subject, p.Amount, p.Sender, p.Receiver, p.CID,
			}
		}),
	}
}

// Customer lists the invoices and payments behind one balance, closed by the
// balance itself.
func Customer(b *reconciliation.Balance, dateLayout string) Table {
	t := Table{
		Name:   "Kunde " + b.CID,
		Header: []string{"Datum", "Beleg", "Berechnet", "Bezahlt"},
	}
	for _, inv := range b.Invoices {
		t.Rows = append(t.Rows, []interface{}{inv.Date, inv.ID, inv.TotalGross, ""})
	}
	for _, p := range b.Payments {
		t.Rows = append(t.Rows, []interface{}{p.Date.Format(dateLayout), p.Subject, "", p.Amount})
	}
	t.Rows = append(t.Rows, []interface{}{"", "Saldo", "", b.Balance})
	return t
}

// values converts decimals to fixed point strings for sinks without a numeric
// cell type.
func (t Table) values(places int32) [][]interface{} {
	return lo.Map(t.Rows, func(row []interface{}, _ int) []interface{} {
		return lo.Map(row, func(cell interface{}, _ int) interface{} {
			if d, ok := cell.(decimal.Decimal); ok {
				return d.StringFixed(places)
			}
			return cell
		})
	})
}
