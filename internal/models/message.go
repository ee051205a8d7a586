package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли сообщений чата; совпадают с ролями completion-сервиса.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage - одно сообщение диалога с персонажем.
type ChatMessage struct {
	ID               uuid.UUID `db:"id" json:"id"`
	CharacterID      uuid.UUID `db:"character_id" json:"characterId"`
	UserID           uuid.UUID `db:"user_id" json:"userId"`
	Role             string    `db:"role" json:"role"`
	Content          string    `db:"content" json:"content"`
	ImageURLs        []string  `db:"image_urls" json:"imageUrls,omitempty"`
	TokensUsed       int       `db:"tokens_used" json:"tokensUsed"`
	GenerationTimeMS int64     `db:"generation_time_ms" json:"generationTimeMs"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
