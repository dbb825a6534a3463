package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/storage"
)

const MaxUploadSize = 10 << 20

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

var allowedMediaTypes = map[MediaKind][]string{
	MediaImage: {"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"},
	MediaVideo: {"video/mp4", "video/webm", "video/ogg"},
}

type MediaService interface {
	Upload(ctx context.Context, input UploadInput) (*storage.UploadResult, error)
	Delete(ctx context.Context, key string) error
}

type UploadInput struct {
	Kind        MediaKind
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type mediaService struct {
	uploader storage.FileUploader
	clock    clock.Clock
}

// NewMediaService принимает nil uploader, если хранилище не настроено.
func NewMediaService(uploader storage.FileUploader, clk clock.Clock) MediaService {
	return &mediaService{uploader: uploader, clock: clk}
}

func (s *mediaService) Upload(ctx context.Context, input UploadInput) (*storage.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}

	kind := input.Kind
	if kind == "" {
		kind = MediaImage
	}
	allowed, ok := allowedMediaTypes[kind]
	if !ok {
		return nil, fieldError("type", "must be 'image' or 'video'")
	}
	if input.Size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	if !slices.Contains(allowed, strings.ToLower(input.ContentType)) {
		return nil, fmt.Errorf("%w: %s (allowed: %s)", ErrUnsupportedMediaType, input.ContentType, strings.Join(allowed, ", "))
	}

	key, err := s.objectKey(kind, input.Filename)
	if err != nil {
		return nil, err
	}

	// лимит на случай, если размер части указан неверно
	body := &limitedReader{r: input.Body, n: MaxUploadSize + 1}
	result, err := s.uploader.Upload(ctx, key, input.ContentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if body.exceeded() {
		_ = s.uploader.Delete(ctx, key)
		return nil, ErrFileTooLarge
	}
	return result, nil
}

func (s *mediaService) Delete(ctx context.Context, key string) error {
	if s.uploader == nil {
		return ErrUploadsDisabled
	}
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if !strings.HasPrefix(key, "images/") && !strings.HasPrefix(key, "videos/") || strings.Contains(key, "..") {
		return fieldError("key", "must reference an uploaded image or video")
	}

	if err := s.uploader.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// objectKey строит ключ вида images/<unix-ms>-<random><ext>.
func (s *mediaService) objectKey(kind MediaKind, filename string) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate object key: %w", err)
	}
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 8 {
		ext = ""
	}
	return fmt.Sprintf("%ss/%d-%s%s", kind, s.clock.Now().UnixMilli(), hex.EncodeToString(buf), ext), nil
}

type limitedReader struct {
	r    io.Reader
	n    int64
	read int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.read >= l.n {
		return 0, io.EOF
	}
	if int64(len(p)) > l.n-l.read {
		p = p[:l.n-l.read]
	}
	n, err := l.r.Read(p)
	l.read += int64(n)
	return n, err
}

func (l *limitedReader) exceeded() bool {
	return l.read > MaxUploadSize
}
