package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object. Location is the publicly
// reachable URL of the upload.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader abstracts the image hosting backend used for player
// avatars and result screenshots.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
