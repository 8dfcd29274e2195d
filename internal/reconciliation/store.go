package reconciliation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"billing/internal/logger"
	"billing/internal/storage"
	"billing/pkg/models"
)

// BatchStore keeps one YAML file per imported statement.
type BatchStore struct {
	dir string
	now func() time.Time
	log zerolog.Logger
}

func NewBatchStore(dir string) *BatchStore {
	return &BatchStore{
		dir: dir,
		now: time.Now,
		log: logger.WithComponent("payments"),
	}
}

// Import stores the entries that no earlier batch contains as a new batch.
// Repeated rows are matched by count, so a statement imported twice adds nothing
// while two identical payments in one statement are both kept.
func (s *BatchStore) Import(entries []models.PaymentEntry, source string) (*ImportResult, error) {
	const op = "Import"

	existing, err := s.Entries()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Each stored row absorbs one identical incoming row. Identical rows of the
	// same statement are separate payments.
	stored := lo.CountValuesBy(existing, func(p models.PaymentEntry) string {
		return p.Fingerprint()
	})

	fresh := make([]models.PaymentEntry, 0, len(entries))
	for _, entry := range entries {
		key := entry.Fingerprint()
		if stored[key] > 0 {
			stored[key]--
			continue
		}
		fresh = append(fresh, entry)
	}
	duplicates := len(entries) - len(fresh)

	if len(fresh) == 0 {
		s.log.Info().Str("source", source).Int("duplicates", duplicates).Msg("Nothing new to import")
		return &ImportResult{Duplicates: duplicates}, ErrNoEntries
	}

	now := s.now()
	batch := &Batch{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		ImportedAt: now.UTC().Truncate(time.Second),
		Source:     source,
		Entries:    fresh,
	}
	if err := s.Save(batch); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().
		Str("batch", batch.ID).
		Str("source", source).
		Int("entries", len(fresh)).
		Int("duplicates", duplicates).
		Msg("Imported bank statement")

	return &ImportResult{Batch: batch, Duplicates: duplicates}, nil
}

// Save writes batch, replacing a stored batch with the same id.
func (s *BatchStore) Save(batch *Batch) error {
	if batch.ID == "" || strings.ContainsAny(batch.ID, `./\`) {
		return fmt.Errorf("Save: invalid batch id %q", batch.ID)
	}
	return storage.WriteYAML(s.path(batch.ID), batch)
}

// All loads every batch, oldest first.
func (s *BatchStore) All() ([]*Batch, error) {
	const op = "All"

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sort.Strings(paths)

	batches := make([]*Batch, 0, len(paths))
	for _, path := range paths {
		var batch Batch
		if err := storage.ReadYAML(path, &batch); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if batch.ID == "" {
			batch.ID = strings.TrimSuffix(filepath.Base(path), ".yaml")
		}
		batches = append(batches, &batch)
	}
	return batches, nil
}

// Entries returns the entries of all batches in import order.
func (s *BatchStore) Entries() ([]models.PaymentEntry, error) {
	batches, err := s.All()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return lo.FlatMap(batches, func(b *Batch, _ int) []models.PaymentEntry {
		return b.Entries
	}), nil
}

func (s *BatchStore) path(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}
