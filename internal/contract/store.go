// Package contract reads contract records from the workspace.
package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"billing/internal/logger"
	"billing/internal/storage"
	"billing/pkg/models"
)

// ErrNotFound is returned when a contract requested by id does not exist.
var ErrNotFound = errors.New("contract not found")

// Filter narrows List. The zero value lists every contract.
type Filter struct {
	ActiveAt *time.Time // Only contracts active at this instant
	IDOnly   string     // Only the contract with this id
}

// Store reads contracts from one YAML file per contract.
type Store struct {
	dir string
	log zerolog.Logger
}

func NewStore(dir string) *Store {
	return &Store{
		dir: dir,
		log: logger.WithComponent("contracts"),
	}
}

// Dir returns the directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// LoadError is a contract file that could not be read or failed validation.
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("contract %s: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// List returns the contracts matching filter, sorted by id. Unreadable files
// are logged and skipped unless filter.IDOnly names them.
func (s *Store) List(filter Filter) ([]*models.Contract, error) {
	contracts, _, err := s.Scan(filter)
	return contracts, err
}

// Scan is List that also returns the files it skipped, sorted by id. A file
// named by filter.IDOnly that fails to load is an error.
func (s *Store) Scan(filter Filter) ([]*models.Contract, []*LoadError, error) {
	const op = "contract.Scan"

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	contracts := make([]*models.Contract, 0, len(paths))
	var invalid []*LoadError
	for _, path := range paths {
		id := strings.TrimSuffix(filepath.Base(path), ".yaml")
		if filter.IDOnly != "" && filter.IDOnly != id {
			continue
		}

		c, err := s.load(path, id)
		if err != nil {
			if filter.IDOnly != "" {
				return nil, nil, fmt.Errorf("%s: %w", op, err)
			}
			s.log.Error().Err(err).Str("cid", id).Msgf("Skipping %s", filepath.Base(path))
			invalid = append(invalid, &LoadError{ID: id, Err: err})
			continue
		}

		if filter.ActiveAt != nil && !c.ActiveAt(*filter.ActiveAt) {
			if c.Start.After(*filter.ActiveAt) {
				s.log.Info().Msgf("Ignoring %s with start %s", c.ID, c.Start.Format(time.DateOnly))
			} else {
				s.log.Info().Msgf("Ignoring %s with end %s", c.ID, c.End.Format(time.DateOnly))
			}
			continue
		}

		contracts = append(contracts, c)
	}

	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].ID < contracts[j].ID
	})
	sort.Slice(invalid, func(i, j int) bool {
		return invalid[i].ID < invalid[j].ID
	})
	return contracts, invalid, nil
}

// Get loads one contract by id.
func (s *Store) Get(id string) (*models.Contract, error) {
	const op = "contract.Get"

	path, err := s.path(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c, err := s.load(path, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// PDFPath is the location of the rendered contract document.
func (s *Store) PDFPath(id string) string {
	return filepath.Join(s.dir, id+".pdf")
}

func (s *Store) path(id string) (string, error) {
	if !models.ValidContractID(id) {
		return "", fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	return filepath.Join(s.dir, id+".yaml"), nil
}

func (s *Store) load(path, id string) (*models.Contract, error) {
	var c models.Contract
	if err := storage.ReadYAML(path, &c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.ID != id {
		return nil, fmt.Errorf("%s: %w", path, &models.FieldError{
			ContractID: c.ID,
			Field:      "cid",
			Message:    fmt.Sprintf("does not match file name %q", id),
		})
	}
	return &c, nil
}
