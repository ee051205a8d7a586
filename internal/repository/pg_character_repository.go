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
var _ CharacterRepository = (*pgCharacterRepository)(nil)

type pgCharacterRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgCharacterRepository(db DBTX, logger *zap.Logger) CharacterRepository {
	return &pgCharacterRepository{
		db:     db,
		logger: logger.Named("PgCharacterRepo"),
	}
}

const characterColumns = `
id, user_id, name, persona_type, personality, backstory, interests,
speaking_style, appearance_description, avatar_url, is_active, created_at, updated_at`

const createCharacterQuery = `
INSERT INTO characters (` + characterColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const getCharacterByIDQuery = `
SELECT ` + characterColumns + `
FROM characters
WHERE id = $1`

const listCharactersByUserQuery = `
SELECT ` + characterColumns + `
FROM characters
WHERE user_id = $1 AND is_active = TRUE
ORDER BY created_at ASC`

const updateCharacterQuery = `
UPDATE characters
SET name                   = $2,
    persona_type           = $3,
    personality            = $4,
    backstory              = $5,
    interests              = $6,
    speaking_style         = $7,
    appearance_description = $8,
    avatar_url             = $9,
    is_active              = $10,
    updated_at             = $11
WHERE id = $1`

const deleteCharacterQuery = `
DELETE FROM characters
WHERE id = $1`

// Create inserts a new companion character.
func (r *pgCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	if character.ID == uuid.Nil {
		character.ID = uuid.New()
	}
	now := time.Now().UTC()
	if character.CreatedAt.IsZero() {
		character.CreatedAt = now
	}
	if character.UpdatedAt.IsZero() {
		character.UpdatedAt = now
	}
	if character.Interests == nil {
		character.Interests = []string{}
	}

	_, err := r.db.Exec(ctx, createCharacterQuery,
		character.ID,
		character.UserID,
		character.Name,
		character.PersonaType,
		character.Personality,
		character.Backstory,
		character.Interests,
		character.SpeakingStyle,
		character.AppearanceDescription,
		character.AvatarURL,
		character.IsActive,
		character.CreatedAt,
		character.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create character", zap.String("name", character.Name), zap.Error(err))
		return fmt.Errorf("ошибка создания персонажа: %w", err)
	}
	r.logger.Info("Character created", zap.String("characterID", character.ID.String()), zap.String("name", character.Name))
	return nil
}

// GetByID retrieves a character by its unique ID.
func (r *pgCharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	character := &models.Character{}
	err := pgxscan.Get(ctx, r.db, character, getCharacterByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Character not found by ID", zap.String("characterID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get character by ID", zap.String("characterID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения персонажа %s: %w", id, err)
	}
	return character, nil
}

// ListByUser returns the active characters of a user.
func (r *pgCharacterRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Character, error) {
	var characters []models.Character
	err := pgxscan.Select(ctx, r.db, &characters, listCharactersByUserQuery, userID)
	if err != nil {
		r.logger.Error("Failed to list characters by user", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения персонажей пользователя %s: %w", userID, err)
	}
	return characters, nil
}

// Update persists the editable fields of a character.
func (r *pgCharacterRepository) Update(ctx context.Context, character *models.Character) error {
	character.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx, updateCharacterQuery,
		character.ID,
		character.Name,
		character.PersonaType,
		character.Personality,
		character.Backstory,
		character.Interests,
		character.SpeakingStyle,
		character.AppearanceDescription,
		character.AvatarURL,
		character.IsActive,
		character.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update character", zap.String("characterID", character.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления персонажа %s: %w", character.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a character and, via cascades, its dialog history.
func (r *pgCharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteCharacterQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete character", zap.String("characterID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка удаления персонажа %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Character deleted", zap.String("characterID", id.String()))
	return nil
}
