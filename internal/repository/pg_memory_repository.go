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
var _ MemoryRepository = (*pgMemoryRepository)(nil)

type pgMemoryRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgMemoryRepository(db DBTX, logger *zap.Logger) MemoryRepository {
	return &pgMemoryRepository{
		db:     db,
		logger: logger.Named("PgMemoryRepo"),
	}
}

const memoryColumns = `
id, character_id, kind, content, importance, embedding_id, created_at, accessed_at, access_count`

const createMemoryQuery = `
INSERT INTO memories (` + memoryColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const getMemoryByIDQuery = `
SELECT ` + memoryColumns + `
FROM memories
WHERE id = $1`

const listMemoriesByCharacterQuery = `
SELECT ` + memoryColumns + `
FROM memories
WHERE character_id = $1
ORDER BY importance DESC, created_at DESC
LIMIT $2`

const touchMemoryAccessQuery = `
UPDATE memories
SET accessed_at = $2, access_count = access_count + 1
WHERE id = $1`

// Create inserts a new long-term memory entry.
func (r *pgMemoryRepository) Create(ctx context.Context, entry *models.MemoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.AccessedAt.IsZero() {
		entry.AccessedAt = now
	}

	_, err := r.db.Exec(ctx, createMemoryQuery,
		entry.ID,
		entry.CharacterID,
		entry.Kind,
		entry.Content,
		entry.Importance,
		entry.EmbeddingID,
		entry.CreatedAt,
		entry.AccessedAt,
		entry.AccessCount,
	)
	if err != nil {
		r.logger.Error("Failed to create memory entry", zap.String("characterID", entry.CharacterID.String()), zap.Error(err))
		return fmt.Errorf("ошибка сохранения памяти: %w", err)
	}
	return nil
}

// GetByID retrieves a memory entry by its unique ID.
func (r *pgMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MemoryEntry, error) {
	entry := &models.MemoryEntry{}
	err := pgxscan.Get(ctx, r.db, entry, getMemoryByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get memory entry", zap.String("memoryID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения записи памяти %s: %w", id, err)
	}
	return entry, nil
}

// ListByCharacter returns the most important memories of a character.
func (r *pgMemoryRepository) ListByCharacter(ctx context.Context, characterID uuid.UUID, limit int) ([]models.MemoryEntry, error) {
	var entries []models.MemoryEntry
	err := pgxscan.Select(ctx, r.db, &entries, listMemoriesByCharacterQuery, characterID, limit)
	if err != nil {
		r.logger.Error("Failed to list memories by character", zap.String("characterID", characterID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения памяти персонажа %s: %w", characterID, err)
	}
	return entries, nil
}

// TouchAccess marks a memory entry as recently used.
func (r *pgMemoryRepository) TouchAccess(ctx context.Context, id uuid.UUID, accessedAt time.Time) error {
	_, err := r.db.Exec(ctx, touchMemoryAccessQuery, id, accessedAt)
	if err != nil {
		r.logger.Error("Failed to touch memory access", zap.String("memoryID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления доступа к памяти %s: %w", id, err)
	}
	return nil
}
