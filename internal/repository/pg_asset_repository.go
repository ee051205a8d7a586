package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"companion-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ AssetRepository = (*pgAssetRepository)(nil)

type pgAssetRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgAssetRepository(db DBTX, logger *zap.Logger) AssetRepository {
	return &pgAssetRepository{
		db:     db,
		logger: logger.Named("PgAssetRepo"),
	}
}

const createAssetQuery = `
INSERT INTO vn_assets (id, scene_id, kind, prompt, file_url, file_path, generation_params, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Актуальным считается последний сгенерированный ассет данного вида.
const getLatestAssetQuery = `
SELECT id, scene_id, kind, prompt, file_url, file_path, generation_params, created_at
FROM vn_assets
WHERE scene_id = $1 AND kind = $2
ORDER BY created_at DESC
LIMIT 1`

const listAssetsBySceneQuery = `
SELECT id, scene_id, kind, prompt, file_url, file_path, generation_params, created_at
FROM vn_assets
WHERE scene_id = $1
ORDER BY created_at DESC`

// Create inserts a new generated asset record.
func (r *pgAssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	if len(asset.GenerationParams) == 0 {
		asset.GenerationParams = []byte(`{}`)
	}

	_, err := r.db.Exec(ctx, createAssetQuery,
		asset.ID,
		asset.SceneID,
		asset.Kind,
		asset.Prompt,
		asset.FileURL,
		asset.FilePath,
		asset.GenerationParams,
		asset.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create asset", zap.String("sceneID", asset.SceneID.String()), zap.String("kind", string(asset.Kind)), zap.Error(err))
		return fmt.Errorf("ошибка сохранения ассета: %w", err)
	}
	r.logger.Info("Asset created", zap.String("assetID", asset.ID.String()), zap.String("sceneID", asset.SceneID.String()), zap.String("kind", string(asset.Kind)))
	return nil
}

// GetLatest returns the most recent asset of the given kind for a scene.
func (r *pgAssetRepository) GetLatest(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	asset := &models.Asset{}
	err := pgxscan.Get(ctx, r.db, asset, getLatestAssetQuery, sceneID, kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get latest asset", zap.String("sceneID", sceneID.String()), zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения ассета сцены %s: %w", sceneID, err)
	}
	return asset, nil
}

// ListByScene returns all generated assets of a scene, newest first.
func (r *pgAssetRepository) ListByScene(ctx context.Context, sceneID uuid.UUID) ([]models.Asset, error) {
	var assets []models.Asset
	err := pgxscan.Select(ctx, r.db, &assets, listAssetsBySceneQuery, sceneID)
	if err != nil {
		r.logger.Error("Failed to list assets by scene", zap.String("sceneID", sceneID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения ассетов сцены %s: %w", sceneID, err)
	}
	return assets, nil
}
