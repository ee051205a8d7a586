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
var _ SessionRepository = (*pgSessionRepository)(nil)

type pgSessionRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgSessionRepository(db DBTX, logger *zap.Logger) SessionRepository {
	return &pgSessionRepository{
		db:     db,
		logger: logger.Named("PgSessionRepo"),
	}
}

const sessionColumns = `
id, story_id, user_id, current_scene_id, choice_history, flags,
is_complete, ending_label, playtime_seconds, created_at, updated_at`

const createSessionQuery = `
INSERT INTO vn_sessions (` + sessionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const getSessionByIDQuery = `
SELECT ` + sessionColumns + `
FROM vn_sessions
WHERE id = $1`

const updateSessionQuery = `
UPDATE vn_sessions
SET current_scene_id = $2,
    choice_history   = $3,
    flags            = $4,
    is_complete      = $5,
    ending_label     = $6,
    playtime_seconds = $7,
    updated_at       = $8
WHERE id = $1`

const listSessionsByUserQuery = `
SELECT ` + sessionColumns + `
FROM vn_sessions
WHERE user_id = $1
ORDER BY updated_at DESC`

const deleteSessionQuery = `
DELETE FROM vn_sessions
WHERE id = $1`

// Create inserts a new playthrough session.
func (r *pgSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}
	if session.ChoiceHistory == nil {
		session.ChoiceHistory = []models.ChoiceRecord{}
	}
	if session.Flags == nil {
		session.Flags = models.FlagMap{}
	}

	_, err := r.db.Exec(ctx, createSessionQuery,
		session.ID,
		session.StoryID,
		session.UserID,
		session.CurrentSceneID,
		session.ChoiceHistory,
		session.Flags,
		session.IsComplete,
		session.EndingLabel,
		session.PlaytimeSeconds,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create session", zap.String("storyID", session.StoryID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}
	r.logger.Info("Session created", zap.String("sessionID", session.ID.String()), zap.String("storyID", session.StoryID.String()))
	return nil
}

// GetByID retrieves a session by its unique ID.
func (r *pgSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session := &models.Session{}
	err := pgxscan.Get(ctx, r.db, session, getSessionByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Session not found by ID", zap.String("sessionID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get session by ID", zap.String("sessionID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сессии %s: %w", id, err)
	}
	return session, nil
}

// Update persists the mutable state of a session.
func (r *pgSessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx, updateSessionQuery,
		session.ID,
		session.CurrentSceneID,
		session.ChoiceHistory,
		session.Flags,
		session.IsComplete,
		session.EndingLabel,
		session.PlaytimeSeconds,
		session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update session", zap.String("sessionID", session.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления сессии %s: %w", session.ID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Session not found for update", zap.String("sessionID", session.ID.String()))
		return models.ErrNotFound
	}
	return nil
}

// ListByUser returns all sessions of a user, most recently updated first.
func (r *pgSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := pgxscan.Select(ctx, r.db, &sessions, listSessionsByUserQuery, userID)
	if err != nil {
		r.logger.Error("Failed to list sessions by user", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сессий пользователя %s: %w", userID, err)
	}
	return sessions, nil
}

// Delete removes a session permanently.
func (r *pgSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteSessionQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete session", zap.String("sessionID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка удаления сессии %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Session deleted", zap.String("sessionID", id.String()))
	return nil
}
