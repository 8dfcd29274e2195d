package contract

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"billing/pkg/models"
)

// Stats summarizes the contract portfolio.
type Stats struct {
	Active  int
	Total   int
	Monthly decimal.Decimal // Monthly revenue of the active contracts
}

// Summarize computes Stats at now. A contract without end date counts as
// running until one year after now.
func Summarize(contracts []*models.Contract, now time.Time) Stats {
	active := lo.Filter(contracts, func(c *models.Contract, _ int) bool {
		end := now.AddDate(1, 0, 0)
		if c.End != nil {
			end = *c.End
		}
		return !c.Start.After(now) && !now.After(end)
	})

	monthly := lo.Reduce(active, func(sum decimal.Decimal, c *models.Contract, _ int) decimal.Decimal {
		return sum.Add(c.MonthlyTotal())
	}, decimal.Zero)

	return Stats{
		Active:  len(active),
		Total:   len(contracts),
		Monthly: monthly,
	}
}
