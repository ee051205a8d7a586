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
var _ SceneRepository = (*pgSceneRepository)(nil)

type pgSceneRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgSceneRepository(db DBTX, logger *zap.Logger) SceneRepository {
	return &pgSceneRepository{
		db:     db,
		logger: logger.Named("PgSceneRepo"),
	}
}

const sceneColumns = `
id, story_id, sequence_number, kind, title, narrative_text, dialogue_text,
speaker_name, background_prompt, character_prompt, background_music,
next_scene_id, choices, ending_label, created_at`

const getSceneByIDQuery = `
SELECT ` + sceneColumns + `
FROM scenes
WHERE id = $1`

// Стартовая сцена - сцена с минимальным порядковым номером в истории.
const getStartSceneQuery = `
SELECT ` + sceneColumns + `
FROM scenes
WHERE story_id = $1
ORDER BY sequence_number ASC
LIMIT 1`

const listScenesByStoryQuery = `
SELECT ` + sceneColumns + `
FROM scenes
WHERE story_id = $1
ORDER BY sequence_number ASC`

// GetByID retrieves a scene by its unique ID.
func (r *pgSceneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	scene := &models.Scene{}
	err := pgxscan.Get(ctx, r.db, scene, getSceneByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Scene not found by ID", zap.String("sceneID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get scene by ID", zap.String("sceneID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сцены %s: %w", id, err)
	}
	return scene, nil
}

// GetStartScene returns the entry scene of a story.
func (r *pgSceneRepository) GetStartScene(ctx context.Context, storyID uuid.UUID) (*models.Scene, error) {
	scene := &models.Scene{}
	err := pgxscan.Get(ctx, r.db, scene, getStartSceneQuery, storyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story has no scenes", zap.String("storyID", storyID.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get start scene", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения стартовой сцены истории %s: %w", storyID, err)
	}
	return scene, nil
}

// ListByStory returns all scenes of a story in sequence order.
func (r *pgSceneRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Scene, error) {
	var scenes []models.Scene
	err := pgxscan.Select(ctx, r.db, &scenes, listScenesByStoryQuery, storyID)
	if err != nil {
		r.logger.Error("Failed to list scenes by story", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сцен истории %s: %w", storyID, err)
	}
	return scenes, nil
}
