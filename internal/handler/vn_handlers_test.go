package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"companion-server/internal/models"
	"companion-server/internal/service"
)

// Mock ProgressionService
type mockProgression struct {
	mock.Mock
}

func (m *mockProgression) ListStories(ctx context.Context) ([]models.Story, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Story), args.Error(1)
}

func (m *mockProgression) GetStory(ctx context.Context, storyID uuid.UUID) (*service.StoryDetail, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StoryDetail), args.Error(1)
}

func (m *mockProgression) StartSession(ctx context.Context, userID, storyID uuid.UUID) (*service.SessionView, error) {
	args := m.Called(ctx, userID, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}

func (m *mockProgression) GetSessionView(ctx context.Context, sessionID uuid.UUID) (*service.SessionView, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}

func (m *mockProgression) Advance(ctx context.Context, sessionID uuid.UUID) (*service.SessionView, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}

func (m *mockProgression) MakeChoice(ctx context.Context, sessionID uuid.UUID, choiceIndex int) (*service.SessionView, error) {
	args := m.Called(ctx, sessionID, choiceIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}

func (m *mockProgression) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *mockProgression) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// Mock AssetService
type mockAssets struct {
	mock.Mock
}

func (m *mockAssets) TriggerScene(scene *models.Scene) {
	m.Called(scene)
}

func (m *mockAssets) LatestURL(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) string {
	args := m.Called(ctx, sceneID, kind)
	return args.String(0)
}

func (m *mockAssets) GenerateAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	args := m.Called(ctx, sceneID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *mockAssets) GetLatestAsset(ctx context.Context, sceneID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	args := m.Called(ctx, sceneID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

func (m *mockAssets) ListSceneAssets(ctx context.Context, sceneID uuid.UUID) ([]models.Asset, error) {
	args := m.Called(ctx, sceneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Asset), args.Error(1)
}

// Mock ImageService
type mockImages struct {
	mock.Mock
}

func (m *mockImages) Generate(ctx context.Context, prompt string, width, height int) (*service.GeneratedImageInfo, error) {
	args := m.Called(ctx, prompt, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GeneratedImageInfo), args.Error(1)
}

func (m *mockImages) ListGallery(ctx context.Context) ([]service.GalleryImage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.GalleryImage), args.Error(1)
}

// Mock MemoryService
type mockMemory struct {
	mock.Mock
}

func (m *mockMemory) Remember(ctx context.Context, characterID uuid.UUID, kind, content string, importance float64) (*models.MemoryEntry, error) {
	args := m.Called(ctx, characterID, kind, content, importance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MemoryEntry), args.Error(1)
}

func (m *mockMemory) Recall(ctx context.Context, characterID uuid.UUID, query string, limit int) ([]models.MemoryEntry, error) {
	args := m.Called(ctx, characterID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MemoryEntry), args.Error(1)
}

func (m *mockMemory) ListMemories(ctx context.Context, characterID uuid.UUID, limit int) ([]models.MemoryEntry, error) {
	args := m.Called(ctx, characterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MemoryEntry), args.Error(1)
}

func (m *mockMemory) ForgetCharacter(ctx context.Context, characterID uuid.UUID) error {
	args := m.Called(ctx, characterID)
	return args.Error(0)
}

func newTestRouter(t *testing.T, progression *mockProgression, assets *mockAssets) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(progression, assets, nil, nil, nil, nil, nil, zap.NewNop())
	h.RegisterRoutes(router, t.TempDir())
	return router
}

func newImageRouter(t *testing.T, images *mockImages) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(nil, nil, nil, nil, nil, images, nil, zap.NewNop())
	h.RegisterRoutes(router, t.TempDir())
	return router
}

func newMemoryRouter(t *testing.T, memory *mockMemory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(nil, nil, nil, nil, memory, nil, nil, zap.NewNop())
	h.RegisterRoutes(router, t.TempDir())
	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartSessionEndpoint_Created(t *testing.T) {
	progression := new(mockProgression)
	assets := new(mockAssets)
	router := newTestRouter(t, progression, assets)

	storyID := uuid.New()
	userID := uuid.New()
	view := &service.SessionView{
		Session: &models.Session{ID: uuid.New(), StoryID: storyID, UserID: userID},
		Scene:   &models.Scene{ID: uuid.New(), Kind: models.SceneKindNarrative},
	}
	progression.On("StartSession", mock.Anything, userID, storyID).Return(view, nil)

	w := performRequest(router, http.MethodPost, "/api/vn/sessions", gin.H{
		"storyId": storyID,
		"userId":  userID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var got service.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, view.Session.ID, got.Session.ID)
}

func TestStartSessionEndpoint_MissingBody(t *testing.T) {
	router := newTestRouter(t, new(mockProgression), new(mockAssets))

	w := performRequest(router, http.MethodPost, "/api/vn/sessions", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSessionEndpoint_NotFound(t *testing.T) {
	progression := new(mockProgression)
	router := newTestRouter(t, progression, new(mockAssets))

	sessionID := uuid.New()
	progression.On("GetSessionView", mock.Anything, sessionID).Return(nil, service.ErrSessionNotFound)

	w := performRequest(router, http.MethodGet, "/api/vn/sessions/"+sessionID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdvanceEndpoint_InvalidTransition(t *testing.T) {
	progression := new(mockProgression)
	router := newTestRouter(t, progression, new(mockAssets))

	sessionID := uuid.New()
	progression.On("Advance", mock.Anything, sessionID).Return(nil, service.ErrInvalidTransition)

	w := performRequest(router, http.MethodPost, fmt.Sprintf("/api/vn/sessions/%s/advance", sessionID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChoiceEndpoint_SessionBusy(t *testing.T) {
	progression := new(mockProgression)
	router := newTestRouter(t, progression, new(mockAssets))

	sessionID := uuid.New()
	progression.On("MakeChoice", mock.Anything, sessionID, 1).Return(nil, service.ErrSessionBusy)

	w := performRequest(router, http.MethodPost, fmt.Sprintf("/api/vn/sessions/%s/choice", sessionID), gin.H{"choiceIndex": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChoiceEndpoint_MissingIndex(t *testing.T) {
	router := newTestRouter(t, new(mockProgression), new(mockAssets))

	w := performRequest(router, http.MethodPost, fmt.Sprintf("/api/vn/sessions/%s/choice", uuid.New()), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateAssetEndpoint_NoPrompt(t *testing.T) {
	assets := new(mockAssets)
	router := newTestRouter(t, new(mockProgression), assets)

	sceneID := uuid.New()
	assets.On("GenerateAsset", mock.Anything, sceneID, models.AssetKindCharacter).
		Return(nil, service.ErrNoPromptAvailable)

	w := performRequest(router, http.MethodPost, fmt.Sprintf("/api/vn/scenes/%s/assets", sceneID), gin.H{"kind": "character"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGenerateAssetEndpoint_RendererDown(t *testing.T) {
	assets := new(mockAssets)
	router := newTestRouter(t, new(mockProgression), assets)

	sceneID := uuid.New()
	assets.On("GenerateAsset", mock.Anything, sceneID, models.AssetKindBackground).
		Return(nil, service.ErrAssetGenerationFailed)

	w := performRequest(router, http.MethodPost, fmt.Sprintf("/api/vn/scenes/%s/assets", sceneID), gin.H{"kind": "background"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerateAssetEndpoint_BadKind(t *testing.T) {
	router := newTestRouter(t, new(mockProgression), new(mockAssets))

	w := performRequest(router, http.MethodPost, fmt.Sprintf("/api/vn/scenes/%s/assets", uuid.New()), gin.H{"kind": "music"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLatestAssetEndpoint(t *testing.T) {
	assets := new(mockAssets)
	router := newTestRouter(t, new(mockProgression), assets)

	sceneID := uuid.New()
	asset := &models.Asset{ID: uuid.New(), SceneID: sceneID, Kind: models.AssetKindBackground, FileURL: "http://x/a.png"}
	assets.On("GetLatestAsset", mock.Anything, sceneID, models.AssetKindBackground).Return(asset, nil)

	w := performRequest(router, http.MethodGet, fmt.Sprintf("/api/vn/scenes/%s/assets/latest?kind=background", sceneID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, asset.ID, got.ID)
}

func TestGetStoryEndpoint_ReturnsGraph(t *testing.T) {
	progression := new(mockProgression)
	router := newTestRouter(t, progression, new(mockAssets))

	storyID := uuid.New()
	detail := &service.StoryDetail{
		Story:  &models.Story{ID: storyID, Title: "Echoes of Time"},
		Scenes: []models.Scene{{ID: uuid.New(), StoryID: storyID, Kind: models.SceneKindNarrative}},
	}
	progression.On("GetStory", mock.Anything, storyID).Return(detail, nil)

	w := performRequest(router, http.MethodGet, "/api/stories/"+storyID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got service.StoryDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, storyID, got.Story.ID)
	assert.Len(t, got.Scenes, 1)
}

func TestGetStoryEndpoint_NotFound(t *testing.T) {
	progression := new(mockProgression)
	router := newTestRouter(t, progression, new(mockAssets))

	storyID := uuid.New()
	progression.On("GetStory", mock.Anything, storyID).Return(nil, service.ErrStoryNotFound)

	w := performRequest(router, http.MethodGet, "/api/stories/"+storyID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChoiceEndpoint_CorruptedContentIsServerError(t *testing.T) {
	progression := new(mockProgression)
	router := newTestRouter(t, progression, new(mockAssets))

	sessionID := uuid.New()
	progression.On("MakeChoice", mock.Anything, sessionID, 0).Return(nil, models.ErrInvalidSceneData)

	w := performRequest(router, http.MethodPost, fmt.Sprintf("/api/vn/sessions/%s/choice", sessionID), gin.H{"choiceIndex": 0})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeleteSessionEndpoint_NoContent(t *testing.T) {
	progression := new(mockProgression)
	router := newTestRouter(t, progression, new(mockAssets))

	sessionID := uuid.New()
	progression.On("DeleteSession", mock.Anything, sessionID).Return(nil)

	w := performRequest(router, http.MethodDelete, "/api/vn/sessions/"+sessionID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
