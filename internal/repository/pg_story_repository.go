package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"companion-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgStoryRepository(db DBTX, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

const getStoryByIDQuery = `
SELECT id, title, description, author, genre, cover_image_url, is_active, created_at
FROM stories
WHERE id = $1`

const listActiveStoriesQuery = `
SELECT id, title, description, author, genre, cover_image_url, is_active, created_at
FROM stories
WHERE is_active = TRUE
ORDER BY created_at DESC`

// GetByID retrieves a story by its unique ID.
func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	story := &models.Story{}
	err := pgxscan.Get(ctx, r.db, story, getStoryByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story not found by ID", zap.String("storyID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story by ID", zap.String("storyID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения истории %s: %w", id, err)
	}
	return story, nil
}

// ListActive returns all stories available for new playthroughs.
func (r *pgStoryRepository) ListActive(ctx context.Context) ([]models.Story, error) {
	var stories []models.Story
	err := pgxscan.Select(ctx, r.db, &stories, listActiveStoriesQuery)
	if err != nil {
		r.logger.Error("Failed to list active stories", zap.Error(err))
		return nil, fmt.Errorf("ошибка получения списка историй: %w", err)
	}
	return stories, nil
}
