package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/config"
)

// Размер картинки по умолчанию для прямой генерации.
const (
	defaultImageWidth  = 768
	defaultImageHeight = 768
)

// GeneratedImageInfo - результат прямой генерации изображения.
type GeneratedImageInfo struct {
	ID     uuid.UUID `json:"id"`
	Prompt string    `json:"prompt"`
	URL    string    `json:"url"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

// GalleryImage - один файл в галерее сгенерированных изображений.
type GalleryImage struct {
	FileName   string    `json:"fileName"`
	URL        string    `json:"url"`
	SizeBytes  int64     `json:"sizeBytes"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// ImageService - прямая генерация изображений по произвольному промпту
// и просмотр галереи, вне привязки к сценам и персонажам.
type ImageService interface {
	Generate(ctx context.Context, prompt string, width, height int) (*GeneratedImageInfo, error)
	ListGallery(ctx context.Context) ([]GalleryImage, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ ImageService = (*imageService)(nil)

type imageService struct {
	images clients.ImageClient
	cfg    config.AssetsConfig
	logger *zap.Logger
}

// NewImageService создает сервис прямой генерации изображений.
func NewImageService(images clients.ImageClient, cfg config.AssetsConfig, logger *zap.Logger) ImageService {
	return &imageService{
		images: images,
		cfg:    cfg,
		logger: logger.Named("ImageService"),
	}
}

// Generate renders an image for an arbitrary prompt and stores it next to the
// scene assets. The style suffix is appended the same way scene assets get it.
func (s *imageService) Generate(ctx context.Context, prompt string, width, height int) (*GeneratedImageInfo, error) {
	if width <= 0 {
		width = defaultImageWidth
	}
	if height <= 0 {
		height = defaultImageHeight
	}
	fullPrompt := prompt + s.cfg.StyleSuffix

	image, err := s.images.GenerateImage(ctx, fullPrompt, width, height)
	if err != nil {
		s.logger.Error("Direct image generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAssetGenerationFailed, err)
	}

	id := uuid.New()
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetGenerationFailed, err)
	}
	fileName := fmt.Sprintf("image-%s.png", id)
	if err := os.WriteFile(filepath.Join(s.cfg.StoragePath, fileName), image.Data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetGenerationFailed, err)
	}

	s.logger.Info("Image generated", zap.String("imageID", id.String()), zap.Int("width", width), zap.Int("height", height))
	return &GeneratedImageInfo{
		ID:     id,
		Prompt: fullPrompt,
		URL:    s.cfg.PublicBaseURL + "/" + fileName,
		Width:  width,
		Height: height,
	}, nil
}

// ListGallery returns every stored image, newest first. The directory is the
// source of truth: scene assets and avatars show up here too.
func (s *imageService) ListGallery(ctx context.Context) ([]GalleryImage, error) {
	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []GalleryImage{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения каталога изображений: %w", err)
	}

	gallery := make([]GalleryImage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		gallery = append(gallery, GalleryImage{
			FileName:   entry.Name(),
			URL:        s.cfg.PublicBaseURL + "/" + entry.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(gallery, func(i, j int) bool {
		return gallery[i].ModifiedAt.After(gallery[j].ModifiedAt)
	})
	return gallery, nil
}
