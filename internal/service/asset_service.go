package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/config"
	"companion-server/internal/messaging"
	"companion-server/internal/models"
	"companion-server/internal/repository"
)

const eventAssetGenerated = "vn.asset.generated"

// Размеры кадров: фон - горизонтальный, персонаж - вертикальный спрайт.
const (
	backgroundWidth  = 1280
	backgroundHeight = 720
	characterWidth   = 640
	characterHeight  = 960
)

var assetGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vn_asset_generations_total",
	Help: "Total scene asset generation attempts by kind and outcome.",
}, []string{"kind", "outcome"})

// AssetService - генерация и выдача визуальных ассетов сцен.
type AssetService interface {
	AssetTrigger
	GenerateAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error)
	GetLatestAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error)
	ListSceneAssets(ctx context.Context, sceneID uuid.UUID) ([]models.Asset, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ AssetService = (*assetService)(nil)

type assetService struct {
	scenes    repository.SceneRepository
	assets    repository.AssetRepository
	cache     repository.AssetCache
	images    clients.ImageClient
	publisher messaging.EventPublisher
	cfg       config.AssetsConfig
	logger    *zap.Logger
}

// NewAssetService создает сервис ассетов.
func NewAssetService(
	scenes repository.SceneRepository,
	assets repository.AssetRepository,
	cache repository.AssetCache,
	images clients.ImageClient,
	publisher messaging.EventPublisher,
	cfg config.AssetsConfig,
	logger *zap.Logger,
) AssetService {
	return &assetService{
		scenes:    scenes,
		assets:    assets,
		cache:     cache,
		images:    images,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.Named("AssetService"),
	}
}

// GenerateAsset renders and stores a new asset for the scene. The new asset
// becomes the latest one of its kind.
func (s *assetService) GenerateAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	scene, err := s.scenes.GetByID(ctx, sceneID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSceneNotFound
		}
		return nil, err
	}

	prompt := scene.PromptFor(kind)
	if prompt == "" {
		return nil, ErrNoPromptAvailable
	}
	fullPrompt := prompt + s.cfg.StyleSuffix

	width, height := backgroundWidth, backgroundHeight
	if kind == models.AssetKindCharacter {
		width, height = characterWidth, characterHeight
	}

	image, err := s.images.GenerateImage(ctx, fullPrompt, width, height)
	if err != nil {
		assetGenerationsTotal.WithLabelValues(string(kind), "error").Inc()
		s.logger.Error("Asset generation failed",
			zap.String("sceneID", sceneID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAssetGenerationFailed, err)
	}

	asset := &models.Asset{
		ID:      uuid.New(),
		SceneID: sceneID,
		Kind:    kind,
		Prompt:  fullPrompt,
	}
	if asset.FilePath, asset.FileURL, err = s.saveImage(asset.ID, image.Data); err != nil {
		assetGenerationsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAssetGenerationFailed, err)
	}
	if params, err := json.Marshal(image.Params); err == nil {
		asset.GenerationParams = params
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		assetGenerationsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, err
	}
	assetGenerationsTotal.WithLabelValues(string(kind), "success").Inc()

	// Ошибка кэширования не влияет на результат: база остается источником истины.
	if err := s.cache.SetAsset(ctx, asset); err != nil {
		s.logger.Warn("Failed to cache generated asset", zap.String("assetID", asset.ID.String()), zap.Error(err))
	}

	s.publisher.Publish(ctx, eventAssetGenerated, map[string]interface{}{
		"asset_id": asset.ID,
		"scene_id": sceneID,
		"kind":     kind,
	})
	return asset, nil
}

// GetLatestAsset returns the most recent asset of the kind for the scene.
func (s *assetService) GetLatestAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	if cached, err := s.cache.GetAsset(ctx, sceneID, kind); err == nil {
		return cached, nil
	}

	asset, err := s.assets.GetLatest(ctx, sceneID, kind)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if err := s.cache.SetAsset(ctx, asset); err != nil {
		s.logger.Warn("Failed to backfill asset cache", zap.String("assetID", asset.ID.String()), zap.Error(err))
	}
	return asset, nil
}

// ListSceneAssets returns all generated assets of a scene, newest first.
func (s *assetService) ListSceneAssets(ctx context.Context, sceneID uuid.UUID) ([]models.Asset, error) {
	return s.assets.ListByScene(ctx, sceneID)
}

// TriggerScene fires background generation for every asset kind the scene has
// a prompt for and no asset yet. Failures only affect observability.
func (s *assetService) TriggerScene(scene *models.Scene) {
	for _, kind := range []models.AssetKind{models.AssetKindBackground, models.AssetKindCharacter} {
		if scene.PromptFor(kind) == "" {
			continue
		}
		kind := kind
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if _, err := s.GetLatestAsset(ctx, scene.ID, kind); err == nil {
				return
			}
			if _, err := s.GenerateAsset(ctx, scene.ID, kind); err != nil && !errors.Is(err, ErrNoPromptAvailable) {
				s.logger.Warn("Background asset generation failed",
					zap.String("sceneID", scene.ID.String()),
					zap.String("kind", string(kind)),
					zap.Error(err))
			}
		}()
	}
}

// LatestURL returns the URL of the latest asset, or empty when none exists.
func (s *assetService) LatestURL(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) string {
	asset, err := s.GetLatestAsset(ctx, sceneID, kind)
	if err != nil {
		return ""
	}
	return asset.FileURL
}

func (s *assetService) saveImage(assetID uuid.UUID, data []byte) (filePath, fileURL string, err error) {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return "", "", fmt.Errorf("ошибка создания каталога ассетов: %w", err)
	}

	fileName := fmt.Sprintf("asset-%s.png", assetID)
	filePath = filepath.Join(s.cfg.StoragePath, fileName)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("ошибка записи файла ассета: %w", err)
	}
	return filePath, s.cfg.PublicBaseURL + "/" + fileName, nil
}
