package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"companion-server/internal/models"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

func (m *StoryRepository) ListActive(ctx context.Context) ([]models.Story, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Story), args.Error(1)
}

// Mock SceneRepository
type SceneRepository struct {
	mock.Mock
}

func (m *SceneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scene), args.Error(1)
}

func (m *SceneRepository) GetStartScene(ctx context.Context, storyID uuid.UUID) (*models.Scene, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scene), args.Error(1)
}

func (m *SceneRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Scene, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Scene), args.Error(1)
}

// Mock SessionRepository
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock AssetRepository
type AssetRepository struct {
	mock.Mock
}

func (m *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *AssetRepository) GetLatest(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	args := m.Called(ctx, sceneID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *AssetRepository) ListByScene(ctx context.Context, sceneID uuid.UUID) ([]models.Asset, error) {
	args := m.Called(ctx, sceneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Asset), args.Error(1)
}

// Mock AssetCache
type AssetCache struct {
	mock.Mock
}

func (m *AssetCache) GetAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	args := m.Called(ctx, sceneID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *AssetCache) SetAsset(ctx context.Context, asset *models.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *AssetCache) InvalidateScene(ctx context.Context, sceneID uuid.UUID) error {
	args := m.Called(ctx, sceneID)
	return args.Error(0)
}

// Mock CharacterRepository
type CharacterRepository struct {
	mock.Mock
}

func (m *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	args := m.Called(ctx, character)
	return args.Error(0)
}

func (m *CharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Character), args.Error(1)
}

func (m *CharacterRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Character, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Character), args.Error(1)
}

func (m *CharacterRepository) Update(ctx context.Context, character *models.Character) error {
	args := m.Called(ctx, character)
	return args.Error(0)
}

func (m *CharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock MessageRepository
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageRepository) ListRecent(ctx context.Context, characterID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, characterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MessageRepository) DeleteByCharacter(ctx context.Context, characterID uuid.UUID) error {
	args := m.Called(ctx, characterID)
	return args.Error(0)
}

// Mock MemoryRepository
type MemoryRepository struct {
	mock.Mock
}

func (m *MemoryRepository) Create(ctx context.Context, entry *models.MemoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MemoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MemoryEntry), args.Error(1)
}

func (m *MemoryRepository) ListByCharacter(ctx context.Context, characterID uuid.UUID, limit int) ([]models.MemoryEntry, error) {
	args := m.Called(ctx, characterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MemoryEntry), args.Error(1)
}

func (m *MemoryRepository) TouchAccess(ctx context.Context, id uuid.UUID, accessedAt time.Time) error {
	args := m.Called(ctx, id, accessedAt)
	return args.Error(0)
}
