// Package objectstore stores uploaded invoice documents: GCS for
// production, a local directory for development and tests.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/service"
)

// GCSStore implements the ObjectStore interface on Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSStore creates a store writing under prefix in the given bucket.
func NewGCSStore(ctx context.Context, bucketName, prefix string) (*GCSStore, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: client.Bucket(bucketName),
		prefix: prefix,
	}, nil
}

// Upload writes the document to a fresh object and returns its identity.
func (s *GCSStore) Upload(ctx context.Context, content []byte, filename string) (service.StoredObject, error) {
	objectName := s.objectName(filename)

	writer := s.bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = "application/pdf"

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return service.StoredObject{}, fmt.Errorf("failed to write object %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return service.StoredObject{}, fmt.Errorf("failed to finalize object %s: %w", objectName, err)
	}

	return service.StoredObject{
		ID:  objectName,
		URL: fmt.Sprintf("gs://%s/%s", writer.Attrs().Bucket, objectName),
	}, nil
}

// Download reads back a previously uploaded document.
func (s *GCSStore) Download(ctx context.Context, id string) ([]byte, error) {
	reader, err := s.bucket.Object(id).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", id, err)
	}
	defer func() { _ = reader.Close() }()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", id, err)
	}
	return content, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// objectName builds a collision-free object name preserving the original
// filename for operators browsing the bucket.
func (s *GCSStore) objectName(filename string) string {
	stamp := time.Now().Format("20060102")
	unique := uuid.New().String()[:8]
	return path.Join(s.prefix, stamp, unique+"_"+filename)
}
