package ledger

import (
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"

	"billing/internal/storage"
	"billing/pkg/models"
)

// ErrNothingToStage is returned by Stage when the contract has no unbilled items.
var ErrNothingToStage = errors.New("no unbilled items to stage")

// Recovery is the action Recover took on a leftover pending ledger.
type Recovery string

const (
	RecoveryNone      Recovery = "none"
	RecoveryCommitted Recovery = "committed"
	RecoveryAborted   Recovery = "aborted"
)

// Staged is a stamped ledger written next to the live one. The live ledger is
// untouched until Commit.
type Staged struct {
	ledger    *Ledger
	cid       string
	invoiceID string
	Items     []models.BilledItem // Entries stamped by this stage
	done      bool
}

// Stage stamps every unbilled entry of cid with invoiceID and writes the result
// to the pending file. Commit it once the invoice is safely stored.
func (l *Ledger) Stage(cid, invoiceID string) (*Staged, error) {
	const op = "ledger.Stage"

	if storage.Exists(l.pendingPath(cid)) {
		return nil, fmt.Errorf("%s: pending ledger for %s exists, recover first", op, cid)
	}

	entries, err := l.Entries(cid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var stamped []models.BilledItem
	for i := range entries {
		if entries[i].Billed() {
			continue
		}
		id := invoiceID
		entries[i].Invoice = &id
		stamped = append(stamped, entries[i])
	}
	if len(stamped) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", op, cid, ErrNothingToStage)
	}

	if err := storage.WriteYAML(l.pendingPath(cid), entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	l.log.Debug().Str("cid", cid).Str("invoice", invoiceID).Int("items", len(stamped)).Msg("Staged ledger stamp")
	return &Staged{ledger: l, cid: cid, invoiceID: invoiceID, Items: stamped}, nil
}

// Commit replaces the live ledger with the stamped one.
func (s *Staged) Commit() error {
	if s.done {
		return nil
	}
	if err := os.Rename(s.ledger.pendingPath(s.cid), s.ledger.path(s.cid)); err != nil {
		return fmt.Errorf("ledger.Commit: %s: %w", s.cid, err)
	}
	s.done = true
	s.ledger.log.Debug().Str("cid", s.cid).Str("invoice", s.invoiceID).Msg("Committed ledger stamp")
	return nil
}

// Abort discards the stamped ledger. It is a no-op after Commit.
func (s *Staged) Abort() error {
	if s.done {
		return nil
	}
	if err := os.Remove(s.ledger.pendingPath(s.cid)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ledger.Abort: %s: %w", s.cid, err)
	}
	s.done = true
	return nil
}

// Recover resolves a pending ledger left behind by an interrupted run. It commits
// when every invoice the pending ledger newly stamps entries with is stored and
// lists all entries stamped with its id, otherwise it discards the pending ledger.
func (l *Ledger) Recover(cid string, lists func(invoiceID string, items []models.BilledItem) bool) (Recovery, error) {
	const op = "ledger.Recover"

	pending := l.pendingPath(cid)
	if !storage.Exists(pending) {
		return RecoveryNone, nil
	}

	staged, err := l.read(pending)
	if err != nil {
		return RecoveryNone, fmt.Errorf("%s: %w", op, err)
	}
	live, err := l.Entries(cid)
	if err != nil {
		return RecoveryNone, fmt.Errorf("%s: %w", op, err)
	}

	// The pending ledger is the live one with stamps added, entry for entry.
	stamps := make(map[string][]models.BilledItem)
	var introduced []string
	for i, e := range staged {
		if !e.Billed() {
			continue
		}
		stamps[*e.Invoice] = append(stamps[*e.Invoice], e)
		if i >= len(live) || !live[i].Billed() {
			introduced = append(introduced, *e.Invoice)
		}
	}
	introduced = lo.Uniq(introduced)

	s := &Staged{ledger: l, cid: cid}
	complete := func(id string) bool { return lists(id, stamps[id]) }
	if len(introduced) > 0 && lo.EveryBy(introduced, complete) {
		if err := s.Commit(); err != nil {
			return RecoveryNone, fmt.Errorf("%s: %w", op, err)
		}
		l.log.Warn().Str("cid", cid).Strs("invoices", introduced).Msg("Committed pending ledger of an interrupted run")
		return RecoveryCommitted, nil
	}

	if err := s.Abort(); err != nil {
		return RecoveryNone, fmt.Errorf("%s: %w", op, err)
	}
	l.log.Warn().Str("cid", cid).Strs("invoices", introduced).Msg("Discarded pending ledger of an interrupted run")
	return RecoveryAborted, nil
}
