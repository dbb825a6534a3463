package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"url"`
	ETag     string `json:"etag,omitempty"`
	Size     int64  `json:"size"`
}

// FileUploader - хранилище медиафайлов игроков, тренеров и новостей.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
