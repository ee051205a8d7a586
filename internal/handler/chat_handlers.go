package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"companion-server/internal/models"
)

type sendMessageRequest struct {
	UserID  uuid.UUID `json:"userId" binding:"required"`
	Content string    `json:"content" binding:"required"`
}

type createMemoryRequest struct {
	Kind       string  `json:"kind"`
	Content    string  `json:"content" binding:"required"`
	Importance float64 `json:"importance"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	characterID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}

	reply, err := h.chat.SendMessage(c.Request.Context(), characterID, req.UserID, req.Content)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) getHistory(c *gin.Context) {
	characterID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.chat.GetHistory(c.Request.Context(), characterID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handler) clearHistory(c *gin.Context) {
	characterID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.chat.ClearHistory(c.Request.Context(), characterID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listMemories(c *gin.Context) {
	characterID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	memories, err := h.memory.ListMemories(c.Request.Context(), characterID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, memories)
}

func (h *Handler) recallMemories(c *gin.Context) {
	characterID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, APIError{Message: "q query parameter is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	memories, err := h.memory.Recall(c.Request.Context(), characterID, query, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, memories)
}

func (h *Handler) createMemory(c *gin.Context) {
	characterID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req createMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}
	if req.Kind == "" {
		req.Kind = models.MemoryKindSemantic
	}
	if req.Importance <= 0 {
		req.Importance = 1.0
	}

	entry, err := h.memory.Remember(c.Request.Context(), characterID, req.Kind, req.Content, req.Importance)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
