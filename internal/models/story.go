package models

import (
	"time"

	"github.com/google/uuid"
)

// Story описывает визуальную новеллу: метаданные авторской истории,
// сам граф сцен хранится отдельно (см. Scene).
type Story struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Author        string    `db:"author" json:"author"`
	Genre         string    `db:"genre" json:"genre"`
	CoverImageURL string    `db:"cover_image_url" json:"coverImageUrl,omitempty"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
