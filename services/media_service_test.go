package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/storage"
)

func TestMediaUploadStoresObject(t *testing.T) {
	ctx := context.Background()
	uploader := storage.NewMemoryUploader("https://media.example.com")
	clk := clock.NewFixed(time.UnixMilli(1740000000000))
	media := NewMediaService(uploader, clk)

	result, err := media.Upload(ctx, UploadInput{
		Kind:        MediaImage,
		Filename:    "Team Photo.JPG",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        bytes.NewReader([]byte("jpeg")),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Key, "images/1740000000000-"), result.Key)
	assert.True(t, strings.HasSuffix(result.Key, ".jpg"), result.Key)
	assert.Equal(t, "https://media.example.com/"+result.Key, result.Location)

	data, contentType, ok := uploader.Object(result.Key)
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Equal(t, "image/jpeg", contentType)

	require.NoError(t, media.Delete(ctx, result.Key))
	assert.ErrorIs(t, media.Delete(ctx, result.Key), ErrMediaNotFound)
}

func TestMediaUploadRejections(t *testing.T) {
	ctx := context.Background()
	media := NewMediaService(storage.NewMemoryUploader(""), clock.New())

	_, err := media.Upload(ctx, UploadInput{Kind: MediaVideo, ContentType: "image/png", Size: 10, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, err = media.Upload(ctx, UploadInput{Kind: MediaImage, ContentType: "image/png", Size: MaxUploadSize + 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = media.Upload(ctx, UploadInput{Kind: "audio", ContentType: "audio/mpeg", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrValidationFailed)

	// размер части занижен, фактическое содержимое больше лимита
	big := bytes.Repeat([]byte{1}, MaxUploadSize+10)
	_, err = media.Upload(ctx, UploadInput{Kind: MediaVideo, ContentType: "video/mp4", Size: 1, Body: bytes.NewReader(big)})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	assert.ErrorIs(t, media.Delete(ctx, "../secrets"), ErrValidationFailed)
	assert.ErrorIs(t, media.Delete(ctx, "config/app.env"), ErrValidationFailed)
}

func TestMediaDisabledWithoutUploader(t *testing.T) {
	media := NewMediaService(nil, clock.New())

	_, err := media.Upload(context.Background(), UploadInput{Kind: MediaImage, ContentType: "image/png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUploadsDisabled)
	assert.ErrorIs(t, media.Delete(context.Background(), "images/a.png"), ErrUploadsDisabled)
}
