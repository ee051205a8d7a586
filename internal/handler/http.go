package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/models"
	"companion-server/internal/service"
)

// APIError - стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// Handler обрабатывает все HTTP запросы приложения.
type Handler struct {
	progression service.ProgressionService
	assets      service.AssetService
	characters  service.CharacterService
	chat        service.ChatService
	memory      service.MemoryService
	images      service.ImageService
	search      clients.SearchClient
	logger      *zap.Logger
}

// NewHandler создает Handler.
func NewHandler(
	progression service.ProgressionService,
	assets service.AssetService,
	characters service.CharacterService,
	chat service.ChatService,
	memory service.MemoryService,
	images service.ImageService,
	search clients.SearchClient,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		progression: progression,
		assets:      assets,
		characters:  characters,
		chat:        chat,
		memory:      memory,
		images:      images,
		search:      search,
		logger:      logger.Named("Handler"),
	}
}

// RegisterRoutes регистрирует маршруты приложения.
func (h *Handler) RegisterRoutes(router *gin.Engine, staticDir string) {
	router.GET("/health", h.health)
	router.Static("/static/images", staticDir)

	api := router.Group("/api")
	{
		api.GET("/stories", h.listStories)
		api.GET("/stories/:id", h.getStory)
		api.GET("/search", h.webSearch)

		images := api.Group("/images")
		{
			images.POST("/generate", h.generateImage)
			images.GET("", h.listGallery)
		}

		vn := api.Group("/vn")
		{
			vn.POST("/sessions", h.startSession)
			vn.GET("/sessions/:id", h.getSession)
			vn.POST("/sessions/:id/advance", h.advance)
			vn.POST("/sessions/:id/choice", h.makeChoice)
			vn.DELETE("/sessions/:id", h.deleteSession)
			vn.GET("/users/:userId/sessions", h.listUserSessions)

			vn.POST("/scenes/:id/assets", h.generateAsset)
			vn.GET("/scenes/:id/assets", h.listSceneAssets)
			vn.GET("/scenes/:id/assets/latest", h.getLatestAsset)
		}

		characters := api.Group("/characters")
		{
			characters.POST("", h.createCharacter)
			characters.GET("", h.listCharacters)
			characters.GET("/:id", h.getCharacter)
			characters.PUT("/:id", h.updateCharacter)
			characters.DELETE("/:id", h.deleteCharacter)
			characters.POST("/:id/avatar", h.generateAvatar)

			characters.POST("/:id/chat", h.sendMessage)
			characters.GET("/:id/messages", h.getHistory)
			characters.DELETE("/:id/messages", h.clearHistory)

			characters.GET("/:id/memories", h.listMemories)
			characters.POST("/:id/memories", h.createMemory)
			characters.GET("/:id/memories/recall", h.recallMemories)
		}
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) webSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, APIError{Message: "q query parameter is required"})
		return
	}

	results, err := h.search.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, APIError{Message: "search proxy unavailable"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// handleServiceError сопоставляет сентинельные ошибки сервисного слоя
// с HTTP статус-кодами.
func (h *Handler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoryNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSceneNotFound),
		errors.Is(err, service.ErrCharacterNotFound),
		errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, APIError{Message: err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidChoice),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidCharacterData):
		c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	case errors.Is(err, service.ErrSessionBusy):
		c.JSON(http.StatusConflict, APIError{Message: err.Error()})
	case errors.Is(err, service.ErrNoPromptAvailable):
		c.JSON(http.StatusUnprocessableEntity, APIError{Message: err.Error()})
	case errors.Is(err, service.ErrAssetGenerationFailed):
		c.JSON(http.StatusBadGateway, APIError{Message: err.Error()})
	case errors.Is(err, models.ErrInvalidSceneData):
		h.logger.Error("Story content is corrupted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, APIError{Message: "story content is corrupted"})
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, APIError{Message: "internal server error"})
	}
}
