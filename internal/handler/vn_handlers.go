package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"companion-server/internal/models"
)

type startSessionRequest struct {
	StoryID uuid.UUID `json:"storyId" binding:"required"`
	UserID  uuid.UUID `json:"userId" binding:"required"`
}

type makeChoiceRequest struct {
	ChoiceIndex *int `json:"choiceIndex" binding:"required"`
}

type generateAssetRequest struct {
	Kind models.AssetKind `json:"kind" binding:"required"`
}

func (h *Handler) listStories(c *gin.Context) {
	stories, err := h.progression.ListStories(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) getStory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.progression.GetStory(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}

	view, err := h.progression.StartSession(c.Request.Context(), req.UserID, req.StoryID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) getSession(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.progression.GetSessionView(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) advance(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.progression.Advance(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) makeChoice(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req makeChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ChoiceIndex == nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "choiceIndex is required"})
		return
	}

	view, err := h.progression.MakeChoice(c.Request.Context(), id, *req.ChoiceIndex)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) deleteSession(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.progression.DeleteSession(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listUserSessions(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}

	sessions, err := h.progression.ListUserSessions(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) generateAsset(c *gin.Context) {
	sceneID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req generateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Kind.IsValid() {
		c.JSON(http.StatusBadRequest, APIError{Message: "kind must be 'background' or 'character'"})
		return
	}

	asset, err := h.assets.GenerateAsset(c.Request.Context(), sceneID, req.Kind)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

func (h *Handler) listSceneAssets(c *gin.Context) {
	sceneID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	assets, err := h.assets.ListSceneAssets(c.Request.Context(), sceneID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

func (h *Handler) getLatestAsset(c *gin.Context) {
	sceneID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	kind := models.AssetKind(c.Query("kind"))
	if !kind.IsValid() {
		c.JSON(http.StatusBadRequest, APIError{Message: "kind query parameter must be 'background' or 'character'"})
		return
	}

	asset, err := h.assets.GetLatestAsset(c.Request.Context(), sceneID, kind)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid " + name + " parameter"})
		return uuid.Nil, false
	}
	return id, true
}
