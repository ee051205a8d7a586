package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"companion-server/internal/clients"
	"companion-server/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// Mock AssetTrigger
type mockAssetTrigger struct {
	mock.Mock
}

func (m *mockAssetTrigger) TriggerScene(scene *models.Scene) {
	m.Called(scene)
}

func (m *mockAssetTrigger) LatestURL(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) string {
	args := m.Called(ctx, sceneID, kind)
	return args.String(0)
}

// noopTrigger - молчаливая заглушка для тестов, где ассеты не важны.
type noopTrigger struct{}

func (noopTrigger) TriggerScene(scene *models.Scene) {}
func (noopTrigger) LatestURL(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) string {
	return ""
}

// Mock EventPublisher
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, event interface{}) {
	m.Called(ctx, routingKey, event)
}

func (m *mockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// noopPublisherT - заглушка публикации событий.
type noopPublisherT struct{}

func (noopPublisherT) Publish(ctx context.Context, routingKey string, event interface{}) {}
func (noopPublisherT) Close() error                                                      { return nil }

// Mock ImageClient
type mockImageClient struct {
	mock.Mock
}

func (m *mockImageClient) GenerateImage(ctx context.Context, prompt string, width, height int) (*clients.GeneratedImage, error) {
	args := m.Called(ctx, prompt, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.GeneratedImage), args.Error(1)
}

// Mock LLMClient
type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*clients.CompletionResult, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.CompletionResult), args.Error(1)
}

// Mock SearchClient
type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, query string) ([]clients.SearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.SearchResult), args.Error(1)
}

// Mock EmbeddingClient
type mockEmbeddingClient struct {
	mock.Mock
}

func (m *mockEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// Mock VectorStoreClient
type mockVectorStoreClient struct {
	mock.Mock
}

func (m *mockVectorStoreClient) EnsureCollection(ctx context.Context, characterID uuid.UUID, vectorSize int) error {
	args := m.Called(ctx, characterID, vectorSize)
	return args.Error(0)
}

func (m *mockVectorStoreClient) UpsertPoint(ctx context.Context, characterID uuid.UUID, pointID uuid.UUID, vector []float32, payload map[string]interface{}) error {
	args := m.Called(ctx, characterID, pointID, vector, payload)
	return args.Error(0)
}

func (m *mockVectorStoreClient) SearchPoints(ctx context.Context, characterID uuid.UUID, vector []float32, limit int) ([]clients.ScoredPoint, error) {
	args := m.Called(ctx, characterID, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.ScoredPoint), args.Error(1)
}

func (m *mockVectorStoreClient) DeleteCollection(ctx context.Context, characterID uuid.UUID) error {
	args := m.Called(ctx, characterID)
	return args.Error(0)
}

// Mock MemoryService
type mockMemoryService struct {
	mock.Mock
}

func (m *mockMemoryService) Remember(ctx context.Context, characterID uuid.UUID, kind, content string, importance float64) (*models.MemoryEntry, error) {
	args := m.Called(ctx, characterID, kind, content, importance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MemoryEntry), args.Error(1)
}

func (m *mockMemoryService) Recall(ctx context.Context, characterID uuid.UUID, query string, limit int) ([]models.MemoryEntry, error) {
	args := m.Called(ctx, characterID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MemoryEntry), args.Error(1)
}

func (m *mockMemoryService) ListMemories(ctx context.Context, characterID uuid.UUID, limit int) ([]models.MemoryEntry, error) {
	args := m.Called(ctx, characterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MemoryEntry), args.Error(1)
}

func (m *mockMemoryService) ForgetCharacter(ctx context.Context, characterID uuid.UUID) error {
	args := m.Called(ctx, characterID)
	return args.Error(0)
}
