// Package ledger records which contract items have been billed for which period.
//
// Each contract has one ledger file holding all of its billed items in insertion
// order. Items are appended per period, never deleted, and only ever mutated to
// record the invoice that consumed them.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"billing/internal/logger"
	"billing/internal/storage"
	"billing/pkg/models"
)

// BillResult reports the outcome of BillPeriod.
type BillResult struct {
	Created bool                // False when the period was billed before
	Items   []models.BilledItem // Items appended by this call
}

// Ledger stores billed items as one YAML file per contract.
type Ledger struct {
	dir    string
	locale string
	log    zerolog.Logger
}

func New(dir, locale string) *Ledger {
	return &Ledger{
		dir:    dir,
		locale: locale,
		log:    logger.WithComponent("ledger"),
	}
}

// BillPeriod appends one billed item per contract item for the period key.
// Billing a key that is already present is a no-op reported as Created=false.
// With dry set the result is computed but nothing is written.
func (l *Ledger) BillPeriod(c *models.Contract, key string, dry bool) (BillResult, error) {
	const op = "ledger.BillPeriod"

	month, err := ParseKey(key)
	if err != nil {
		return BillResult{}, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := l.Entries(c.ID)
	if err != nil {
		return BillResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if lo.ContainsBy(entries, func(e models.BilledItem) bool { return e.Key == key }) {
		l.log.Info().Str("cid", c.ID).Str("key", key).Msgf("%s already billed for %s", key, c.ID)
		return BillResult{Created: false}, nil
	}

	monthName := MonthName(l.locale, month.Month())
	items := lo.Map(c.Items, func(item models.Item, _ int) models.BilledItem {
		return models.BilledItem{
			Description: fmt.Sprintf("%s %s %d", item.Description, monthName, month.Year()),
			Price:       item.Price,
			Quantity:    item.Quantity,
			Subtotal:    item.Price.Mul(item.Quantity).Round(2),
			Key:         key,
		}
	})

	if !dry {
		if err := storage.WriteYAML(l.path(c.ID), append(entries, items...)); err != nil {
			return BillResult{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	l.log.Debug().Str("cid", c.ID).Str("key", key).Int("items", len(items)).Bool("dry", dry).Msg("Billed period")
	return BillResult{Created: true, Items: items}, nil
}

// Entries returns the whole ledger of a contract. A contract that was never
// billed has an empty ledger.
func (l *Ledger) Entries(cid string) ([]models.BilledItem, error) {
	return l.read(l.path(cid))
}

// Unbilled returns the entries not yet consumed by an invoice, in insertion order.
func (l *Ledger) Unbilled(cid string) ([]models.BilledItem, error) {
	entries, err := l.Entries(cid)
	if err != nil {
		return nil, fmt.Errorf("ledger.Unbilled: %w", err)
	}
	return lo.Filter(entries, func(e models.BilledItem, _ int) bool {
		return !e.Billed()
	}), nil
}

// Path is the ledger file of a contract.
func (l *Ledger) Path(cid string) string {
	return l.path(cid)
}

func (l *Ledger) path(cid string) string {
	return filepath.Join(l.dir, cid+".yaml")
}

func (l *Ledger) pendingPath(cid string) string {
	return l.path(cid) + ".pending"
}

func (l *Ledger) read(path string) ([]models.BilledItem, error) {
	var entries []models.BilledItem
	if err := storage.ReadYAML(path, &entries); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.BilledItem{}, nil
		}
		return nil, err
	}
	return entries, nil
}
