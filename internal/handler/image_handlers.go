package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type generateImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (h *Handler) generateImage(c *gin.Context) {
	var req generateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}

	info, err := h.images.Generate(c.Request.Context(), req.Prompt, req.Width, req.Height)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (h *Handler) listGallery(c *gin.Context) {
	gallery, err := h.images.ListGallery(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gallery)
}
