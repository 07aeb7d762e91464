package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/service"
)

// LocalStore implements the ObjectStore interface on a local directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{root: dir}, nil
}

// Upload writes the document under a fresh relative path.
func (s *LocalStore) Upload(_ context.Context, content []byte, filename string) (service.StoredObject, error) {
	stamp := time.Now().Format("20060102")
	unique := uuid.New().String()[:8]
	id := filepath.Join(stamp, unique+"_"+filepath.Base(filename))

	fullPath := filepath.Join(s.root, id)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
		return service.StoredObject{}, fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0600); err != nil {
		return service.StoredObject{}, fmt.Errorf("failed to write object %s: %w", id, err)
	}

	return service.StoredObject{
		ID:  id,
		URL: "file://" + fullPath,
	}, nil
}

// Download reads back a previously uploaded document.
func (s *LocalStore) Download(_ context.Context, id string) ([]byte, error) {
	cleaned := filepath.Clean(id)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return nil, fmt.Errorf("invalid object id: %s", id)
	}

	content, err := os.ReadFile(filepath.Join(s.root, cleaned))
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", id, err)
	}
	return content, nil
}
