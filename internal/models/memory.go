package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы долговременной памяти персонажа.
const (
	MemoryKindEpisodic  = "episodic"
	MemoryKindSemantic  = "semantic"
	MemoryKindEmotional = "emotional"
)

// MemoryEntry - запись долговременной памяти персонажа. Вектор хранится во
// внешнем semantic store, здесь только метаданные и ссылка EmbeddingID.
type MemoryEntry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CharacterID uuid.UUID `db:"character_id" json:"characterId"`
	Kind        string    `db:"kind" json:"kind"`
	Content     string    `db:"content" json:"content"`
	Importance  float64   `db:"importance" json:"importance"`
	EmbeddingID string    `db:"embedding_id" json:"embeddingId,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	AccessedAt  time.Time `db:"accessed_at" json:"accessedAt"`
	AccessCount int       `db:"access_count" json:"accessCount"`
}
