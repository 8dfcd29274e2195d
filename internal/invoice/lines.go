package invoice

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"billing/internal/ledger"
	"billing/pkg/models"
)

// Period is a span of whole months starting at Year/Month.
type Period struct {
	Year   int
	Month  time.Month
	Months int // Number of months covered, at least 1
}

// Validate checks the period arguments.
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Months < 1 {
		return fmt.Errorf("%w: months must be at least 1, got %d", ErrInvalidPeriod, p.Months)
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Start is the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the period.
func (p Period) End() time.Time {
	return time.Date(p.Year, p.Month+time.Month(p.Months), 0, 0, 0, 0, 0, time.UTC)
}

// Suffix is the invoice id suffix: "YYYY.MM" for one month, "YYYY.MM-YYYY.MM"
// for longer spans.
func (p Period) Suffix() string {
	first := p.Start().Format("2006.01")
	if p.Months == 1 {
		return first
	}
	return first + "-" + p.End().Format("2006.01")
}

// PeriodLines bills the contract's recurring items for every month of Period.
type PeriodLines struct {
	Period Period
}

func (s PeriodLines) Supply(c *models.Contract) (Supply, error) {
	if err := s.Period.Validate(); err != nil {
		return Supply{}, err
	}

	months := decimal.NewFromInt(int64(s.Period.Months))
	lines := lo.Map(c.Items, func(item models.Item, _ int) Line {
		return Line{
			Description: item.Description,
			Price:       item.Price,
			Quantity:    item.Quantity.Mul(months),
		}
	})

	return Supply{
		Suffix: s.Period.Suffix(),
		Lines:  lines,
		Start:  s.Period.Start(),
		End:    s.Period.End(),
	}, nil
}

// LedgerSource yields the ledger entries of a contract in insertion order.
type LedgerSource interface {
	Entries(cid string) ([]models.BilledItem, error)
}

// LedgerLines invoices the contract's unbilled ledger entries as they are. With
// Reissue the entries already stamped with the invoice id are listed again, so a
// recreated invoice still covers everything it consumed. The period runs from the
// first day of the earliest entry month to the last day of the latest.
type LedgerLines struct {
	Source  LedgerSource
	Suffix  string
	Reissue bool
}

func (s LedgerLines) Supply(c *models.Contract) (Supply, error) {
	all, err := s.Source.Entries(c.ID)
	if err != nil {
		return Supply{}, err
	}
	id := c.ID + "." + s.Suffix
	entries := lo.Filter(all, func(e models.BilledItem, _ int) bool {
		return !e.Billed() || (s.Reissue && *e.Invoice == id)
	})

	supply := Supply{Suffix: s.Suffix}
	for _, e := range entries {
		month, err := ledger.ParseKey(e.Key)
		if err != nil {
			return Supply{}, fmt.Errorf("ledger entry %q: %w", e.Description, err)
		}
		if supply.Start.IsZero() || month.Before(supply.Start) {
			supply.Start = month
		}
		if end := month.AddDate(0, 1, -1); end.After(supply.End) {
			supply.End = end
		}
		supply.Lines = append(supply.Lines, Line{
			Description: e.Description,
			Price:       e.Price,
			Quantity:    e.Quantity,
		})
	}
	return supply, nil
}

// Covers reports whether inv has a line for every ledger entry in items. Lines
// are matched by description, price and quantity, each line covering one entry.
func Covers(inv *models.Invoice, items []models.BilledItem) bool {
	lines := lo.CountValuesBy(inv.Items, func(l models.InvoiceLine) string {
		return lineKey(l.Description, l.Price, l.Quantity)
	})
	for _, item := range items {
		key := lineKey(item.Description, item.Price, item.Quantity)
		if lines[key] == 0 {
			return false
		}
		lines[key]--
	}
	return true
}

func lineKey(description string, price, quantity decimal.Decimal) string {
	return description + "|" + price.String() + "|" + quantity.String()
}
