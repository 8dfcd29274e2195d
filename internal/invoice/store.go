package invoice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"billing/internal/logger"
	"billing/internal/storage"
	"billing/pkg/models"
)

// SaveOptions control overwriting of existing invoices.
type SaveOptions struct {
	// Force overwrites an existing invoice.
	Force bool

	// ResetSent drops the sent flag of the invoice being overwritten. Without it a
	// forced save keeps the delivery state of the existing invoice.
	ResetSent bool
}

// SaveResult reports what Save did.
type SaveResult struct {
	Written bool // The invoice file was written
	Existed bool // An invoice with the same id was already stored
}

// Store keeps one YAML file per invoice in a directory per contract.
type Store struct {
	dir string
	log zerolog.Logger
}

func NewStore(dir string) *Store {
	return &Store{
		dir: dir,
		log: logger.WithComponent("invoices"),
	}
}

// Save persists inv once. An existing invoice is only replaced with opts.Force.
// When a forced save carries the previous sent flag forward, inv is updated so
// that it equals what was written.
func (s *Store) Save(inv *models.Invoice, opts SaveOptions) (SaveResult, error) {
	const op = "Save"

	if err := ValidateID(inv.ContractID, inv.ID); err != nil {
		return SaveResult{}, newStoreError(op, inv.ID, err)
	}

	path := s.path(inv.ContractID, inv.ID)
	existed := storage.Exists(path)

	if existed && !opts.Force {
		s.log.Info().Str("invoice", inv.ID).Msgf("Invoice %s already exists.", path)
		return SaveResult{Written: false, Existed: true}, nil
	}

	if existed && !opts.ResetSent {
		previous, err := s.load(path)
		if err != nil {
			return SaveResult{}, newStoreError(op, inv.ID, err)
		}
		inv.Sent = previous.Sent
	}

	if err := storage.WriteYAML(path, inv); err != nil {
		return SaveResult{}, newStoreError(op, inv.ID, err)
	}

	s.log.Debug().Str("invoice", inv.ID).Bool("overwritten", existed).Msg("Saved invoice")
	return SaveResult{Written: true, Existed: existed}, nil
}

// Load reads one invoice by id.
func (s *Store) Load(id string) (*models.Invoice, error) {
	path, err := s.pathForID(id)
	if err != nil {
		return nil, newStoreError("Load", id, err)
	}
	inv, err := s.load(path)
	if err != nil {
		return nil, newStoreError("Load", id, err)
	}
	return inv, nil
}

// MarkSent records the delivery of an invoice.
func (s *Store) MarkSent(id string) error {
	const op = "MarkSent"

	path, err := s.pathForID(id)
	if err != nil {
		return newStoreError(op, id, err)
	}
	inv, err := s.load(path)
	if err != nil {
		return newStoreError(op, id, err)
	}
	if inv.Sent {
		return nil
	}

	inv.Sent = true
	if err := storage.WriteYAML(path, inv); err != nil {
		return newStoreError(op, id, err)
	}
	return nil
}

// Exists reports whether an invoice with id is stored.
func (s *Store) Exists(id string) bool {
	path, err := s.pathForID(id)
	return err == nil && storage.Exists(path)
}

// List returns the invoices of one contract sorted by id.
func (s *Store) List(cid string) ([]*models.Invoice, error) {
	if !models.ValidContractID(cid) {
		return nil, newStoreError("List", cid, fmt.Errorf("%w: contract %q", ErrInvalidID, cid))
	}
	paths, err := filepath.Glob(filepath.Join(s.dir, cid, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("invoice.List: %w", err)
	}
	return s.loadAll(paths)
}

// ListAll returns the invoices of all contracts sorted by id.
func (s *Store) ListAll() ([]*models.Invoice, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*", "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("invoice.ListAll: %w", err)
	}
	return s.loadAll(paths)
}

// PDFPath is the location of the rendered invoice document.
func (s *Store) PDFPath(inv *models.Invoice) string {
	return strings.TrimSuffix(s.path(inv.ContractID, inv.ID), ".yaml") + ".pdf"
}

func (s *Store) loadAll(paths []string) ([]*models.Invoice, error) {
	invoices := make([]*models.Invoice, 0, len(paths))
	for _, path := range paths {
		id := strings.TrimSuffix(filepath.Base(path), ".yaml")
		inv, err := s.load(path)
		if err != nil {
			return nil, newStoreError("List", id, err)
		}
		invoices = append(invoices, inv)
	}
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].ID < invoices[j].ID
	})
	return invoices, nil
}

func (s *Store) load(path string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := storage.ReadYAML(path, &inv); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (s *Store) pathForID(id string) (string, error) {
	cid, _, ok := strings.Cut(id, ".")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := ValidateID(cid, id); err != nil {
		return "", err
	}
	return s.path(cid, id), nil
}

func (s *Store) path(cid, id string) string {
	return filepath.Join(s.dir, cid, id+".yaml")
}
