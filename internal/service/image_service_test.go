package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/config"
)

func newImageService(t *testing.T, images *mockImageClient) (ImageService, config.AssetsConfig) {
	t.Helper()
	cfg := config.AssetsConfig{
		StyleSuffix:   ", anime style",
		StoragePath:   t.TempDir(),
		PublicBaseURL: "http://localhost:8080/static/images",
	}
	return NewImageService(images, cfg, zap.NewNop()), cfg
}

func TestImageGenerate_AppendsSuffixAndStoresFile(t *testing.T) {
	images := new(mockImageClient)
	svc, cfg := newImageService(t, images)

	images.On("GenerateImage", mock.Anything, "night city rooftop, anime style", defaultImageWidth, defaultImageHeight).
		Return(&clients.GeneratedImage{Data: []byte("png-bytes")}, nil)

	info, err := svc.Generate(context.Background(), "night city rooftop", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultImageWidth, info.Width)
	assert.Contains(t, info.URL, cfg.PublicBaseURL+"/image-")

	data, err := os.ReadFile(filepath.Join(cfg.StoragePath, filepath.Base(info.URL)))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestImageGenerate_RendererFailure(t *testing.T) {
	images := new(mockImageClient)
	svc, _ := newImageService(t, images)

	images.On("GenerateImage", mock.Anything, mock.Anything, 512, 512).
		Return(nil, errors.New("connection refused"))

	_, err := svc.Generate(context.Background(), "a cat", 512, 512)
	assert.ErrorIs(t, err, ErrAssetGenerationFailed)
}

func TestListGallery_NewestFirst(t *testing.T) {
	images := new(mockImageClient)
	svc, cfg := newImageService(t, images)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.StoragePath, "image-a.png"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StoragePath, "notes.txt"), []byte("skip"), 0o644))

	gallery, err := svc.ListGallery(context.Background())
	require.NoError(t, err)
	require.Len(t, gallery, 1)
	assert.Equal(t, "image-a.png", gallery[0].FileName)
	assert.Equal(t, cfg.PublicBaseURL+"/image-a.png", gallery[0].URL)
}

func TestListGallery_EmptyWhenDirectoryMissing(t *testing.T) {
	images := new(mockImageClient)
	cfg := config.AssetsConfig{
		StoragePath:   filepath.Join(t.TempDir(), "does-not-exist"),
		PublicBaseURL: "http://localhost:8080/static/images",
	}
	svc := NewImageService(images, cfg, zap.NewNop())

	gallery, err := svc.ListGallery(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gallery)
}
