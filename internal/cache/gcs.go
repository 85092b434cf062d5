package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore keeps documents as JSON objects in a Cloud Storage bucket, for
// deployments where several consumers share the cache. It assumes
// Application Default Credentials are configured.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a store with a shared storage client.
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStore: creating storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Close closes the storage client connection.
func (s *GCSStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *GCSStore) object(empresa, tipo string) *storage.ObjectHandle {
	name := objectName(empresa, tipo)
	if s.prefix != "" {
		name = s.prefix + "/" + name
	}
	return s.client.Bucket(s.bucket).Object(name)
}

// Save uploads the document, replacing any previous object for the same key.
func (s *GCSStore) Save(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("GCSStore.Save: encoding: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.object(doc.Empresa, doc.Tipo).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSStore.Save: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSStore.Save: finalizing upload: %w", err)
	}
	return nil
}

// Load downloads and decodes the document, migrating legacy shapes.
func (s *GCSStore) Load(ctx context.Context, empresa, tipo string) (*Document, error) {
	r, err := s.object(empresa, tipo).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GCSStore.Load: opening reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("GCSStore.Load: reading object: %w", err)
	}
	return Decode(data)
}
