// Package plantio persists planting records. A JSON file per deployment is
// enough: the set is small (a handful of crops per year) and edited rarely.
package plantio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dvloznov/agrofin/internal/domain"
)

// ErrNotFound signals an unknown planting ID.
var ErrNotFound = errors.New("plantio: registro não encontrado")

// Store is a file-backed planting store, safe for concurrent use. The whole
// file is rewritten on every mutation.
type Store struct {
	mu   sync.RWMutex
	path string
	byID map[string]domain.Plantio
}

// NewStore loads the store from path, starting empty when the file does not
// exist yet.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path: path,
		byID: make(map[string]domain.Plantio),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("NewStore: reading %s: %w", path, err)
	}

	var records []domain.Plantio
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("NewStore: decoding %s: %w", path, err)
	}
	for _, p := range records {
		s.byID[p.ID] = p
	}

	return s, nil
}

// List returns all plantings sorted by year then crop.
func (s *Store) List() []domain.Plantio {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Plantio, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Crop < out[j].Crop
	})
	return out
}

// Get returns one planting by ID.
func (s *Store) Get(id string) (domain.Plantio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return domain.Plantio{}, ErrNotFound
	}
	return p, nil
}

// Save inserts or replaces a planting, assigning an ID when absent.
func (s *Store) Save(p domain.Plantio) (domain.Plantio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	s.byID[p.ID] = p

	if err := s.flush(); err != nil {
		return domain.Plantio{}, err
	}
	return p, nil
}

// Delete deactivates a planting by ID. Records are never physically
// removed; reports built earlier may still reference them, so deletion
// only flips the active flag and allocation ignores inactive records.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = false
	s.byID[id] = p

	return s.flush()
}

// flush writes the whole set back to disk. Callers hold the write lock.
func (s *Store) flush() error {
	records := make([]domain.Plantio, 0, len(s.byID))
	for _, p := range s.byID {
		records = append(records, p)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("plantio: encoding store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("plantio: writing %s: %w", s.path, err)
	}
	return nil
}
