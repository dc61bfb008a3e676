// Package storage persists submission decks in S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object. Key is what the submission row
// records; Location and ETag come back from the bucket.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the storage surface the submission service depends on.
// Upload streams a deck under the given key, Delete removes it when the
// database insert fails, and GetPublicURL builds the link served to clients.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
