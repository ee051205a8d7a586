package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"companion-server/internal/database"
	"companion-server/internal/models"
)

// Интеграционные тесты репозиториев на реальном PostgreSQL.
// Запуск: INTEGRATION_TESTS=1 go test ./internal/repository/...
type RepositoriesIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool

	stories  StoryRepository
	scenes   SceneRepository
	sessions SessionRepository
	assets   AssetRepository
}

func TestRepositoriesIntegrationSuite(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration tests: INTEGRATION_TESTS is not set")
	}
	suite.Run(t, new(RepositoriesIntegrationSuite))
}

func (s *RepositoriesIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	pgContainer, err := postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("companion-test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err)
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.pool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err)

	require.NoError(s.T(), database.ApplyMigrations(s.pool))

	log := zap.NewNop()
	s.stories = NewPgStoryRepository(s.pool, log)
	s.scenes = NewPgSceneRepository(s.pool, log)
	s.sessions = NewPgSessionRepository(s.pool, log)
	s.assets = NewPgAssetRepository(s.pool, log)
}

func (s *RepositoriesIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
}

// demoStoryID - идентификатор истории из seed-миграции.
var demoStoryID = uuid.MustParse("a1b2c3d4-0000-4000-8000-000000000001")

func (s *RepositoriesIntegrationSuite) TestSeededStoryIsReadable() {
	story, err := s.stories.GetByID(s.ctx, demoStoryID)
	s.Require().NoError(err)
	s.Equal("Echoes of Time", story.Title)
	s.True(story.IsActive)

	active, err := s.stories.ListActive(s.ctx)
	s.Require().NoError(err)
	s.NotEmpty(active)
}

func (s *RepositoriesIntegrationSuite) TestSceneGraphRoundTrip() {
	start, err := s.scenes.GetStartScene(s.ctx, demoStoryID)
	s.Require().NoError(err)
	s.Equal(1, start.SequenceNumber)
	s.Equal(models.SceneKindNarrative, start.Kind)
	s.Require().NoError(start.Validate())

	all, err := s.scenes.ListByStory(s.ctx, demoStoryID)
	s.Require().NoError(err)
	s.Len(all, 5)
	for i := range all {
		s.NoError(all[i].Validate(), "scene %s", all[i].ID)
	}

	// Choice-сцена должна нести опции с валидными преемниками.
	var choiceFound bool
	for i := range all {
		if all[i].Kind == models.SceneKindChoice {
			choiceFound = true
			s.Len(all[i].Choices, 2)
			s.NotEmpty(all[i].Choices[0].FlagUpdates)
		}
	}
	s.True(choiceFound)
}

func (s *RepositoriesIntegrationSuite) TestSessionLifecycle() {
	start, err := s.scenes.GetStartScene(s.ctx, demoStoryID)
	s.Require().NoError(err)

	session := &models.Session{
		StoryID:        demoStoryID,
		UserID:         uuid.New(),
		CurrentSceneID: start.ID,
	}
	s.Require().NoError(s.sessions.Create(s.ctx, session))

	loaded, err := s.sessions.GetByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(start.ID, loaded.CurrentSceneID)
	s.Empty(loaded.ChoiceHistory)
	s.Empty(loaded.Flags)

	loaded.ChoiceHistory = append(loaded.ChoiceHistory, models.ChoiceRecord{
		SceneID:     start.ID,
		ChoiceIndex: 0,
		ChoiceText:  "Rush to the rooftop immediately",
		Timestamp:   time.Now().UTC(),
	})
	loaded.Flags = models.FlagMap{"rushed": true}
	loaded.PlaytimeSeconds = 90
	s.Require().NoError(s.sessions.Update(s.ctx, loaded))

	reloaded, err := s.sessions.GetByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Len(reloaded.ChoiceHistory, 1)
	s.Equal("Rush to the rooftop immediately", reloaded.ChoiceHistory[0].ChoiceText)
	s.Equal(true, reloaded.Flags["rushed"])
	s.EqualValues(90, reloaded.PlaytimeSeconds)

	byUser, err := s.sessions.ListByUser(s.ctx, session.UserID)
	s.Require().NoError(err)
	s.Len(byUser, 1)

	s.Require().NoError(s.sessions.Delete(s.ctx, session.ID))
	_, err = s.sessions.GetByID(s.ctx, session.ID)
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *RepositoriesIntegrationSuite) TestLatestAssetWins() {
	start, err := s.scenes.GetStartScene(s.ctx, demoStoryID)
	s.Require().NoError(err)

	older := &models.Asset{
		SceneID:   start.ID,
		Kind:      models.AssetKindBackground,
		Prompt:    "first render",
		FileURL:   "http://x/old.png",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	newer := &models.Asset{
		SceneID: start.ID,
		Kind:    models.AssetKindBackground,
		Prompt:  "second render",
		FileURL: "http://x/new.png",
	}
	s.Require().NoError(s.assets.Create(s.ctx, older))
	s.Require().NoError(s.assets.Create(s.ctx, newer))

	latest, err := s.assets.GetLatest(s.ctx, start.ID, models.AssetKindBackground)
	s.Require().NoError(err)
	s.Equal(newer.ID, latest.ID)

	all, err := s.assets.ListByScene(s.ctx, start.ID)
	s.Require().NoError(err)
	s.Len(all, 2)
}
