// Package invoice aggregates contract lines into invoices and persists them.
//
// Generation is deterministic: given the same lines, VAT percent and issue date a
// Generator always produces the same invoice. Lines come from a LineSupplier,
// either the contract's recurring items for a span of months (PeriodLines) or
// the contract's unbilled ledger entries (LedgerLines).
//
// Money arithmetic:
//   - every line subtotal is price x quantity rounded to cents
//   - the gross total is the exact sum of line subtotals
//   - the net total is gross / (1 + vat/100) rounded to cents
//   - the VAT total is gross - net, so the three totals always reconcile
//
// Rounding is half away from zero.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billing/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// Line is one billable position before numbering and rounding.
type Line struct {
	Description string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
}

// Supply is what a LineSupplier yields for one contract.
type Supply struct {
	Suffix string // Invoice id suffix, the id is "<cid>.<suffix>"
	Lines  []Line
	Start  time.Time // First day covered
	End    time.Time // Last day covered
}

// LineSupplier selects the lines of a contract's next invoice.
type LineSupplier interface {
	Supply(c *models.Contract) (Supply, error)
}

// Generator builds invoices with a fixed VAT percent.
type Generator struct {
	vat        decimal.Decimal
	dateLayout string
}

// NewGenerator returns a generator applying vat percent. Dates on the invoice are
// formatted with dateLayout.
func NewGenerator(vat decimal.Decimal, dateLayout string) *Generator {
	if dateLayout == "" {
		dateLayout = "02.01.2006"
	}
	return &Generator{vat: vat, dateLayout: dateLayout}
}

// VAT returns the VAT percent applied by the generator.
func (g *Generator) VAT() decimal.Decimal {
	return g.vat
}

// Generate asks supplier for the lines of c and builds the invoice.
func (g *Generator) Generate(c *models.Contract, supplier LineSupplier, issueDate time.Time) (*models.Invoice, error) {
	supply, err := supplier.Supply(c)
	if err != nil {
		return nil, fmt.Errorf("invoice.Generate: %s: %w", c.ID, err)
	}
	return g.Build(c, c.ID+"."+supply.Suffix, supply.Lines, supply.Start, supply.End, issueDate)
}

// Build computes an invoice for c from lines. It fails with *NoBillableLinesError
// when lines is empty.
func (g *Generator) Build(c *models.Contract, id string, lines []Line, start, end, issueDate time.Time) (*models.Invoice, error) {
	if err := ValidateID(c.ID, id); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &NoBillableLinesError{ContractID: c.ID, InvoiceID: id}
	}

	items := make([]models.InvoiceLine, 0, len(lines))
	gross := decimal.Zero
	for i, line := range lines {
		subtotal := line.Price.Mul(line.Quantity).Round(2)
		items = append(items, models.InvoiceLine{
			Item:        i + 1,
			Description: line.Description,
			Price:       line.Price,
			Quantity:    line.Quantity,
			Subtotal:    subtotal,
		})
		gross = gross.Add(subtotal)
	}

	net := gross.Div(decimal.NewFromInt(1).Add(g.vat.Div(hundred))).Round(2)

	return &models.Invoice{
		ID:          id,
		ContractID:  c.ID,
		Date:        issueDate.Format(g.dateLayout),
		Period:      g.formatPeriod(start, end),
		PeriodStart: start,
		PeriodEnd:   end,
		Address:     append([]string(nil), c.Address...),
		Email:       c.Email,
		Items:       items,
		TotalNet:    net,
		TotalVAT:    gross.Sub(net),
		TotalGross:  gross,
		VAT:         g.vat,
	}, nil
}

func (g *Generator) formatPeriod(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	return start.Format(g.dateLayout) + " - " + end.Format(g.dateLayout)
}

// ValidateID checks that id belongs to the contract and is usable as a file name.
func ValidateID(cid, id string) error {
	suffix, ok := strings.CutPrefix(id, cid+".")
	if !ok || !models.ValidContractID(cid) || suffix == "" || strings.HasPrefix(suffix, ".") ||
		strings.ContainsAny(suffix, "/\\*?[]") || strings.Contains(suffix, "..") {
		return fmt.Errorf("%w: %q for contract %s", ErrInvalidID, id, cid)
	}
	return nil
}
