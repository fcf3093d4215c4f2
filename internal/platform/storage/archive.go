package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// ArchiveWriter persists rendered export files to a Cloud Storage bucket.
type ArchiveWriter struct {
	client *gcs.Client
	bucket string
}

// NewArchiveWriter constructs an ArchiveWriter backed by the provided client.
func NewArchiveWriter(client *gcs.Client, bucket string) (*ArchiveWriter, error) {
	if client == nil {
		return nil, errors.New("storage archive: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage archive: bucket is required")
	}
	return &ArchiveWriter{client: client, bucket: bucket}, nil
}

// WriteObject uploads the payload to the configured bucket and returns the
// gs:// URI of the written object. Existing objects at the same path are
// replaced, which keeps daily re-exports idempotent.
func (w *ArchiveWriter) WriteObject(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	if w == nil || w.client == nil {
		return "", errors.New("storage archive: not initialised")
	}
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return "", errors.New("storage archive: object path is required")
	}

	writer := w.client.Bucket(w.bucket).Object(objectPath).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		writer.ContentType = ct
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage archive: write %s: %w", objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage archive: finalize %s: %w", objectPath, err)
	}
	return fmt.Sprintf("gs://%s/%s", w.bucket, objectPath), nil
}
