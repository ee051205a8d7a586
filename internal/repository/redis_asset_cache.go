package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"companion-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ AssetCache = (*redisAssetCache)(nil)

type redisAssetCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisAssetCache создает кэш актуальных ассетов поверх Redis.
func NewRedisAssetCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) AssetCache {
	return &redisAssetCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisAssetCache"),
	}
}

func assetCacheKey(sceneID uuid.UUID, kind models.AssetKind) string {
	return fmt.Sprintf("vn:asset:%s:%s", sceneID, kind)
}

// GetAsset returns the cached latest asset of a scene, or models.ErrNotFound on cache miss.
func (c *redisAssetCache) GetAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	key := assetCacheKey(sceneID, kind)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		c.logger.Error("Failed to read asset from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("ошибка чтения ассета из кэша: %w", err)
	}

	asset := &models.Asset{}
	if err := json.Unmarshal(data, asset); err != nil {
		// Битую запись считаем промахом и затираем.
		c.logger.Warn("Corrupted asset cache entry, dropping", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return nil, models.ErrNotFound
	}
	return asset, nil
}

// SetAsset caches an asset as the latest one of its kind for the scene.
func (c *redisAssetCache) SetAsset(ctx context.Context, asset *models.Asset) error {
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("ошибка сериализации ассета: %w", err)
	}

	key := assetCacheKey(asset.SceneID, asset.Kind)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Failed to cache asset", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("ошибка записи ассета в кэш: %w", err)
	}
	return nil
}

// InvalidateScene drops cached assets of both kinds for a scene.
func (c *redisAssetCache) InvalidateScene(ctx context.Context, sceneID uuid.UUID) error {
	keys := []string{
		assetCacheKey(sceneID, models.AssetKindBackground),
		assetCacheKey(sceneID, models.AssetKindCharacter),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("Failed to invalidate scene assets in cache", zap.String("sceneID", sceneID.String()), zap.Error(err))
		return fmt.Errorf("ошибка инвалидации кэша сцены %s: %w", sceneID, err)
	}
	return nil
}
