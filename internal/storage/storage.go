package storage

import "context"

// ObjectStorage captures the S3-compatible operations the refresh archive needs.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}

type noopStorage struct{}

// NewNoopStorage discards uploads.
func NewNoopStorage() ObjectStorage {
	return noopStorage{}
}

func (noopStorage) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}
