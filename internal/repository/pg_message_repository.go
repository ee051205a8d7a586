package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ MessageRepository = (*pgMessageRepository)(nil)

type pgMessageRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgMessageRepository(db DBTX, logger *zap.Logger) MessageRepository {
	return &pgMessageRepository{
		db:     db,
		logger: logger.Named("PgMessageRepo"),
	}
}

const createMessageQuery = `
INSERT INTO chat_messages (id, character_id, user_id, role, content, image_urls, tokens_used, generation_time_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Последние сообщения выбираются в обратном порядке,
// разворот в прямой делается на уровне сервиса.
const listRecentMessagesQuery = `
SELECT id, character_id, user_id, role, content, image_urls, tokens_used, generation_time_ms, created_at
FROM chat_messages
WHERE character_id = $1
ORDER BY created_at DESC
LIMIT $2`

const deleteMessagesByCharacterQuery = `
DELETE FROM chat_messages
WHERE character_id = $1`

// Create inserts a new dialog message.
func (r *pgMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	if message.ImageURLs == nil {
		message.ImageURLs = []string{}
	}

	_, err := r.db.Exec(ctx, createMessageQuery,
		message.ID,
		message.CharacterID,
		message.UserID,
		message.Role,
		message.Content,
		message.ImageURLs,
		message.TokensUsed,
		message.GenerationTimeMS,
		message.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create chat message", zap.String("characterID", message.CharacterID.String()), zap.Error(err))
		return fmt.Errorf("ошибка сохранения сообщения: %w", err)
	}
	return nil
}

// ListRecent returns the newest messages of a dialog, newest first.
func (r *pgMessageRepository) ListRecent(ctx context.Context, characterID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := pgxscan.Select(ctx, r.db, &messages, listRecentMessagesQuery, characterID, limit)
	if err != nil {
		r.logger.Error("Failed to list recent messages", zap.String("characterID", characterID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения истории диалога %s: %w", characterID, err)
	}
	return messages, nil
}

// DeleteByCharacter clears the dialog history of a character.
func (r *pgMessageRepository) DeleteByCharacter(ctx context.Context, characterID uuid.UUID) error {
	_, err := r.db.Exec(ctx, deleteMessagesByCharacterQuery, characterID)
	if err != nil {
		r.logger.Error("Failed to delete messages by character", zap.String("characterID", characterID.String()), zap.Error(err))
		return fmt.Errorf("ошибка очистки истории диалога %s: %w", characterID, err)
	}
	r.logger.Info("Chat history cleared", zap.String("characterID", characterID.String()))
	return nil
}
