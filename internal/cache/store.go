package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound signals that no document is cached for the company/type pair.
var ErrNotFound = errors.New("cache: documento não encontrado")

// Store persists report documents keyed by company and report type.
type Store interface {
	Save(ctx context.Context, doc *Document) error
	Load(ctx context.Context, empresa, tipo string) (*Document, error)
}

// FSStore keeps documents as JSON files under a directory.
type FSStore struct {
	Dir string
}

// NewFSStore creates the directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewFSStore: creating %s: %w", dir, err)
	}
	return &FSStore{Dir: dir}, nil
}

// Save writes the document, replacing any previous one for the same key.
func (s *FSStore) Save(_ context.Context, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("FSStore.Save: encoding: %w", err)
	}
	path := filepath.Join(s.Dir, objectName(doc.Empresa, doc.Tipo))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("FSStore.Save: writing %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes the document, migrating legacy shapes.
func (s *FSStore) Load(_ context.Context, empresa, tipo string) (*Document, error) {
	path := filepath.Join(s.Dir, objectName(empresa, tipo))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FSStore.Load: reading %s: %w", path, err)
	}
	return Decode(data)
}

// objectName derives a stable file/object key from the company name and
// report type, e.g. "fazenda_boa_vista_dre.json".
func objectName(empresa, tipo string) string {
	key := strings.ToLower(strings.TrimSpace(empresa))
	key = strings.Join(strings.Fields(key), "_")
	return key + "_" + tipo + ".json"
}
