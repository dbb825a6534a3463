package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryUploader хранит объекты в памяти. Используется в тестах и при локальном запуске.
type MemoryUploader struct {
	mu            sync.RWMutex
	publicBaseURL string
	objects       map[string][]byte
	contentTypes  map[string]string
}

var _ FileUploader = (*MemoryUploader)(nil)

func NewMemoryUploader(publicBaseURL string) *MemoryUploader {
	return &MemoryUploader{
		publicBaseURL: publicBaseURL,
		objects:       make(map[string][]byte),
		contentTypes:  make(map[string]string),
	}
}

func (u *MemoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, reader)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.objects[key] = buf.Bytes()
	u.contentTypes[key] = contentType
	u.mu.Unlock()

	return &UploadResult{Key: key, Location: u.GetPublicURL(key), Size: n}, nil
}

func (u *MemoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(u.objects, key)
	delete(u.contentTypes, key)
	return nil
}

func (u *MemoryUploader) GetPublicURL(key string) string {
	return publicURL(u.publicBaseURL, key)
}

// Object возвращает сохранённые данные и тип содержимого.
func (u *MemoryUploader) Object(key string) ([]byte, string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	data, ok := u.objects[key]
	return data, u.contentTypes[key], ok
}
