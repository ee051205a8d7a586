package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"companion-server/internal/models"
)

// DBTX - минимальный интерфейс над pgxpool.Pool / pgx.Tx,
// достаточный для работы репозиториев.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// StoryRepository - доступ к историям.
type StoryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListActive(ctx context.Context) ([]models.Story, error)
}

// SceneRepository - доступ к сценам историй.
type SceneRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Scene, error)
	GetStartScene(ctx context.Context, storyID uuid.UUID) (*models.Scene, error)
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Scene, error)
}

// SessionRepository - доступ к прохождениям визуальных новелл.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssetRepository - доступ к сгенерированным ассетам сцен.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetLatest(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error)
	ListByScene(ctx context.Context, sceneID uuid.UUID) ([]models.Asset, error)
}

// CharacterRepository - доступ к персонажам-компаньонам.
type CharacterRepository interface {
	Create(ctx context.Context, character *models.Character) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Character, error)
	Update(ctx context.Context, character *models.Character) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageRepository - доступ к сообщениям диалогов.
type MessageRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListRecent(ctx context.Context, characterID uuid.UUID, limit int) ([]models.ChatMessage, error)
	DeleteByCharacter(ctx context.Context, characterID uuid.UUID) error
}

// MemoryRepository - доступ к записям долговременной памяти персонажей.
type MemoryRepository interface {
	Create(ctx context.Context, entry *models.MemoryEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MemoryEntry, error)
	ListByCharacter(ctx context.Context, characterID uuid.UUID, limit int) ([]models.MemoryEntry, error)
	TouchAccess(ctx context.Context, id uuid.UUID, accessedAt time.Time) error
}

// AssetCache - кэш актуальных ассетов поверх Redis.
type AssetCache interface {
	GetAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error)
	SetAsset(ctx context.Context, asset *models.Asset) error
	InvalidateScene(ctx context.Context, sceneID uuid.UUID) error
}
