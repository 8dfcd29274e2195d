package reconciliation

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"billing/pkg/models"
)

// Reconcile returns what the customer cid paid minus what was invoiced to it,
// rounded to places. Payments and invoices of other customers are ignored.
func Reconcile(cid string, invoices []*models.Invoice, payments []models.PaymentEntry, places int32) decimal.Decimal {
	return Report(cid, invoices, payments, places).Balance
}

// Report collects the invoices and payments of cid and their balance.
func Report(cid string, invoices []*models.Invoice, payments []models.PaymentEntry, places int32) *Balance {
	own := lo.Filter(invoices, func(inv *models.Invoice, _ int) bool {
		return inv.ContractID == cid
	})
	sort.Slice(own, func(i, j int) bool { return own[i].ID < own[j].ID })

	paid := lo.Filter(payments, func(p models.PaymentEntry, _ int) bool {
		return p.CID == cid
	})
	sort.SliceStable(paid, func(i, j int) bool { return paid[i].Date.Before(paid[j].Date) })

	invoiced := lo.Reduce(own, func(sum decimal.Decimal, inv *models.Invoice, _ int) decimal.Decimal {
		return sum.Add(inv.TotalGross)
	}, decimal.Zero)
	received := lo.Reduce(paid, func(sum decimal.Decimal, p models.PaymentEntry, _ int) decimal.Decimal {
		return sum.Add(p.Amount)
	}, decimal.Zero)

	return &Balance{
		CID:      cid,
		Invoices: own,
		Payments: paid,
		Invoiced: invoiced.Round(places),
		Paid:     received.Round(places),
		Balance:  received.Sub(invoiced).Round(places),
	}
}

// Customers returns every contract id that has an invoice or an assigned
// payment, sorted.
func Customers(invoices []*models.Invoice, payments []models.PaymentEntry) []string {
	ids := lo.Map(invoices, func(inv *models.Invoice, _ int) string { return inv.ContractID })
	ids = append(ids, lo.FilterMap(payments, func(p models.PaymentEntry, _ int) (string, bool) {
		return p.CID, p.CID != ""
	})...)
	ids = lo.Uniq(ids)
	sort.Strings(ids)
	return ids
}
