package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-server/internal/messaging"
	"companion-server/internal/models"
	"companion-server/internal/repository"
)

// Шаг длиннее этого порога считается паузой игрока и не учитывается
// в наигранном времени.
const maxPlaytimeStep = 30 * time.Minute

// Routing keys публикуемых событий прогрессии.
const (
	eventSessionStarted  = "vn.session.started"
	eventSceneAdvanced   = "vn.scene.advanced"
	eventChoiceMade      = "vn.choice.made"
	eventSessionFinished = "vn.session.finished"
)

// SessionView - состояние сессии вместе с текущей сценой и актуальными
// ассетами, то, что клиент рендерит.
type SessionView struct {
	Session       *models.Session `json:"session"`
	Scene         *models.Scene   `json:"scene"`
	BackgroundURL string          `json:"backgroundUrl,omitempty"`
	CharacterURL  string          `json:"characterUrl,omitempty"`
}

// StoryDetail - история вместе с ее графом сцен, ответ карточки истории.
type StoryDetail struct {
	Story  *models.Story  `json:"story"`
	Scenes []models.Scene `json:"scenes"`
}

// AssetTrigger запускает фоновую генерацию ассетов для сцены при входе в нее.
type AssetTrigger interface {
	TriggerScene(scene *models.Scene)
	LatestURL(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) string
}

// ProgressionService - движок прохождения визуальных новелл: жизненный цикл
// сессии и переходы по графу сцен.
type ProgressionService interface {
	ListStories(ctx context.Context) ([]models.Story, error)
	GetStory(ctx context.Context, storyID uuid.UUID) (*StoryDetail, error)
	StartSession(ctx context.Context, userID, storyID uuid.UUID) (*SessionView, error)
	GetSessionView(ctx context.Context, sessionID uuid.UUID) (*SessionView, error)
	Advance(ctx context.Context, sessionID uuid.UUID) (*SessionView, error)
	MakeChoice(ctx context.Context, sessionID uuid.UUID, choiceIndex int) (*SessionView, error)
	ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// Compile-time check to ensure implementation satisfies the interface.
var _ ProgressionService = (*progressionService)(nil)

type progressionService struct {
	stories   repository.StoryRepository
	scenes    repository.SceneRepository
	sessions  repository.SessionRepository
	assets    AssetTrigger
	publisher messaging.EventPublisher
	locks     *sessionLocks
	logger    *zap.Logger
}

// NewProgressionService создает движок прогрессии.
func NewProgressionService(
	stories repository.StoryRepository,
	scenes repository.SceneRepository,
	sessions repository.SessionRepository,
	assets AssetTrigger,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) ProgressionService {
	return &progressionService{
		stories:   stories,
		scenes:    scenes,
		sessions:  sessions,
		assets:    assets,
		publisher: publisher,
		locks:     newSessionLocks(),
		logger:    logger.Named("ProgressionService"),
	}
}

// ListStories returns the catalog of playable stories.
func (s *progressionService) ListStories(ctx context.Context) ([]models.Story, error) {
	return s.stories.ListActive(ctx)
}

// GetStory returns a story together with its scene graph.
func (s *progressionService) GetStory(ctx context.Context, storyID uuid.UUID) (*StoryDetail, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}

	scenes, err := s.scenes.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return &StoryDetail{Story: story, Scenes: scenes}, nil
}

// StartSession creates a fresh playthrough positioned at the story's entry scene.
func (s *progressionService) StartSession(ctx context.Context, userID, storyID uuid.UUID) (*SessionView, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	if !story.IsActive {
		return nil, ErrStoryNotFound
	}

	startScene, err := s.scenes.GetStartScene(ctx, storyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSceneNotFound
		}
		return nil, err
	}
	if err := startScene.Validate(); err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:             uuid.New(),
		StoryID:        storyID,
		UserID:         userID,
		CurrentSceneID: startScene.ID,
		ChoiceHistory:  []models.ChoiceRecord{},
		Flags:          models.FlagMap{},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Session started",
		zap.String("sessionID", session.ID.String()),
		zap.String("storyID", storyID.String()),
		zap.String("userID", userID.String()))

	s.publisher.Publish(ctx, eventSessionStarted, map[string]interface{}{
		"session_id": session.ID,
		"story_id":   storyID,
		"user_id":    userID,
	})
	s.assets.TriggerScene(startScene)

	return s.buildView(ctx, session, startScene), nil
}

// GetSessionView returns the renderable state of a session.
func (s *progressionService) GetSessionView(ctx context.Context, sessionID uuid.UUID) (*SessionView, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	scene, err := s.scenes.GetByID(ctx, session.CurrentSceneID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSceneNotFound
		}
		return nil, err
	}
	return s.buildView(ctx, session, scene), nil
}

// Advance moves a session from a narrative scene to its single successor.
func (s *progressionService) Advance(ctx context.Context, sessionID uuid.UUID) (*SessionView, error) {
	if !s.locks.TryLock(sessionID) {
		return nil, ErrSessionBusy
	}
	defer s.locks.Unlock(sessionID)

	session, current, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if current.Kind != models.SceneKindNarrative {
		s.logger.Warn("Advance rejected for non-narrative scene",
			zap.String("sessionID", sessionID.String()),
			zap.String("kind", string(current.Kind)))
		return nil, ErrInvalidTransition
	}
	if current.NextSceneID == nil {
		return nil, fmt.Errorf("narrative scene %s has no successor: %w", current.ID, models.ErrInvalidSceneData)
	}

	next, err := s.loadScene(ctx, *current.NextSceneID)
	if err != nil {
		return nil, err
	}

	s.applyTransition(session, next)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, eventSceneAdvanced, map[string]interface{}{
		"session_id": session.ID,
		"scene_id":   next.ID,
	})
	s.publishIfFinished(ctx, session)
	s.assets.TriggerScene(next)

	return s.buildView(ctx, session, next), nil
}

// MakeChoice resolves one option of a choice scene and moves the session.
func (s *progressionService) MakeChoice(ctx context.Context, sessionID uuid.UUID, choiceIndex int) (*SessionView, error) {
	if !s.locks.TryLock(sessionID) {
		return nil, ErrSessionBusy
	}
	defer s.locks.Unlock(sessionID)

	session, current, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if current.Kind != models.SceneKindChoice {
		s.logger.Warn("Choice rejected for non-choice scene",
			zap.String("sessionID", sessionID.String()),
			zap.String("kind", string(current.Kind)))
		return nil, ErrInvalidTransition
	}
	if choiceIndex < 0 || choiceIndex >= len(current.Choices) {
		return nil, ErrInvalidChoice
	}

	choice := current.Choices[choiceIndex]
	next, err := s.loadScene(ctx, choice.NextSceneID)
	if err != nil {
		return nil, err
	}

	// Журнал выборов append-only, флаги сливаются с приоритетом позднего.
	session.ChoiceHistory = append(session.ChoiceHistory, models.ChoiceRecord{
		SceneID:     current.ID,
		ChoiceIndex: choiceIndex,
		ChoiceText:  choice.Text,
		Timestamp:   time.Now().UTC(),
	})
	if session.Flags == nil {
		session.Flags = models.FlagMap{}
	}
	session.Flags.Merge(choice.FlagUpdates)

	s.applyTransition(session, next)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, eventChoiceMade, map[string]interface{}{
		"session_id":   session.ID,
		"scene_id":     current.ID,
		"choice_index": choiceIndex,
	})
	s.publishIfFinished(ctx, session)
	s.assets.TriggerScene(next)

	return s.buildView(ctx, session, next), nil
}

// ListUserSessions returns all playthroughs of a user.
func (s *progressionService) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// DeleteSession removes a playthrough permanently.
func (s *progressionService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	err := s.sessions.Delete(ctx, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// loadActiveSession loads a session with its current scene and rejects
// completed sessions: ending scenes are absorbing.
func (s *progressionService) loadActiveSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, *models.Scene, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}
	if session.IsComplete {
		return nil, nil, ErrInvalidTransition
	}

	scene, err := s.loadScene(ctx, session.CurrentSceneID)
	if err != nil {
		return nil, nil, err
	}
	return session, scene, nil
}

// loadScene loads a scene referenced by the graph and re-checks its
// invariants. A dangling reference or a broken scene is authored-content
// corruption, not a client error.
func (s *progressionService) loadScene(ctx context.Context, sceneID uuid.UUID) (*models.Scene, error) {
	scene, err := s.scenes.GetByID(ctx, sceneID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: scene %s is referenced but missing", models.ErrInvalidSceneData, sceneID)
		}
		return nil, err
	}
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return scene, nil
}

// applyTransition moves the session to the next scene, accumulates playtime
// and finalizes the session when the destination is an ending.
func (s *progressionService) applyTransition(session *models.Session, next *models.Scene) {
	step := time.Since(session.UpdatedAt)
	if step < 0 {
		step = 0
	}
	if step > maxPlaytimeStep {
		step = maxPlaytimeStep
	}
	session.PlaytimeSeconds += int64(step.Seconds())

	session.CurrentSceneID = next.ID
	if next.Kind == models.SceneKindEnding {
		session.IsComplete = true
		session.EndingLabel = next.EndingLabel
		s.logger.Info("Session reached an ending",
			zap.String("sessionID", session.ID.String()),
			zap.Stringp("ending", next.EndingLabel))
	}
}

func (s *progressionService) publishIfFinished(ctx context.Context, session *models.Session) {
	if !session.IsComplete {
		return
	}
	s.publisher.Publish(ctx, eventSessionFinished, map[string]interface{}{
		"session_id": session.ID,
		"ending":     session.EndingLabel,
	})
}

func (s *progressionService) buildView(ctx context.Context, session *models.Session, scene *models.Scene) *SessionView {
	return &SessionView{
		Session:       session,
		Scene:         scene,
		BackgroundURL: s.assets.LatestURL(ctx, scene.ID, models.AssetKindBackground),
		CharacterURL:  s.assets.LatestURL(ctx, scene.ID, models.AssetKindCharacter),
	}
}
