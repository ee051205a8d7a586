package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-server/internal/config"
)

// VectorStoreClient - клиент локального векторного хранилища (REST API,
// совместимое с Qdrant). Используется семантическим поиском по памяти.
type VectorStoreClient interface {
	EnsureCollection(ctx context.Context, characterID uuid.UUID, vectorSize int) error
	UpsertPoint(ctx context.Context, characterID uuid.UUID, pointID uuid.UUID, vector []float32, payload map[string]interface{}) error
	SearchPoints(ctx context.Context, characterID uuid.UUID, vector []float32, limit int) ([]ScoredPoint, error)
	DeleteCollection(ctx context.Context, characterID uuid.UUID) error
}

// ScoredPoint - результат векторного поиска.
type ScoredPoint struct {
	ID      uuid.UUID
	Score   float64
	Payload map[string]interface{}
}

// Compile-time check to ensure implementation satisfies the interface.
var _ VectorStoreClient = (*vectorStoreClient)(nil)

type vectorStoreClient struct {
	baseURL          string
	collectionPrefix string
	httpClient       *http.Client
	logger           *zap.Logger
}

// NewVectorStoreClient создает клиент векторного хранилища.
func NewVectorStoreClient(cfg config.VectorStoreConfig, logger *zap.Logger) VectorStoreClient {
	return &vectorStoreClient{
		baseURL:          cfg.BaseURL,
		collectionPrefix: cfg.CollectionPrefix,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		logger: logger.Named("VectorStore"),
	}
}

func (c *vectorStoreClient) collectionName(characterID uuid.UUID) string {
	return fmt.Sprintf("%s_%s", c.collectionPrefix, characterID)
}

func (c *vectorStoreClient) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка сериализации запроса: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка запроса к векторному хранилищу: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("Vector store returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return fmt.Errorf("векторное хранилище вернуло статус %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("ошибка разбора ответа векторного хранилища: %w", err)
		}
	}
	return nil
}

// EnsureCollection creates the per-character collection if it does not exist yet.
func (c *vectorStoreClient) EnsureCollection(ctx context.Context, characterID uuid.UUID, vectorSize int) error {
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	path := "/collections/" + c.collectionName(characterID)
	// PUT идемпотентен: повторное создание существующей коллекции не ошибка.
	err := c.doJSON(ctx, http.MethodPut, path, body, nil)
	if err != nil {
		return fmt.Errorf("ошибка создания коллекции памяти: %w", err)
	}
	return nil
}

// UpsertPoint stores or replaces one memory vector.
func (c *vectorStoreClient) UpsertPoint(ctx context.Context, characterID uuid.UUID, pointID uuid.UUID, vector []float32, payload map[string]interface{}) error {
	body := map[string]interface{}{
		"points": []map[string]interface{}{
			{
				"id":      pointID.String(),
				"vector":  vector,
				"payload": payload,
			},
		},
	}
	path := "/collections/" + c.collectionName(characterID) + "/points"
	if err := c.doJSON(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("ошибка записи вектора памяти: %w", err)
	}
	return nil
}

type searchPointsResponse struct {
	Result []struct {
		ID      string                 `json:"id"`
		Score   float64                `json:"score"`
		Payload map[string]interface{} `json:"payload"`
	} `json:"result"`
}

// SearchPoints returns the memories closest to the query vector.
func (c *vectorStoreClient) SearchPoints(ctx context.Context, characterID uuid.UUID, vector []float32, limit int) ([]ScoredPoint, error) {
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	path := "/collections/" + c.collectionName(characterID) + "/points/search"

	var parsed searchPointsResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, &parsed); err != nil {
		return nil, fmt.Errorf("ошибка поиска по памяти: %w", err)
	}

	points := make([]ScoredPoint, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			c.logger.Warn("Skipping point with non-UUID id", zap.String("id", item.ID))
			continue
		}
		points = append(points, ScoredPoint{
			ID:      id,
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	return points, nil
}

// DeleteCollection removes the whole memory collection of a character.
func (c *vectorStoreClient) DeleteCollection(ctx context.Context, characterID uuid.UUID) error {
	path := "/collections/" + c.collectionName(characterID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("ошибка удаления коллекции памяти: %w", err)
	}
	return nil
}
