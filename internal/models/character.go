package models

import (
	"time"

	"github.com/google/uuid"
)

// Character - ИИ-персонаж для чата. Поля персоны складываются в системный
// промпт completion-сервиса; AppearanceDescription используется для промптов
// генерации изображений.
type Character struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	UserID                uuid.UUID `db:"user_id" json:"userId"`
	Name                  string    `db:"name" json:"name"`
	PersonaType           string    `db:"persona_type" json:"personaType"`
	Personality           string    `db:"personality" json:"personality,omitempty"`
	Backstory             string    `db:"backstory" json:"backstory,omitempty"`
	Interests             []string  `db:"interests" json:"interests,omitempty"`
	SpeakingStyle         string    `db:"speaking_style" json:"speakingStyle,omitempty"`
	AppearanceDescription string    `db:"appearance_description" json:"appearanceDescription,omitempty"`
	AvatarURL             string    `db:"avatar_url" json:"avatarUrl,omitempty"`
	IsActive              bool      `db:"is_active" json:"isActive"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}
