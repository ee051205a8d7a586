package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"companion-server/internal/models"
)

type characterRequest struct {
	UserID                uuid.UUID `json:"userId" binding:"required"`
	Name                  string    `json:"name" binding:"required"`
	PersonaType           string    `json:"personaType"`
	Personality           string    `json:"personality"`
	Backstory             string    `json:"backstory"`
	Interests             []string  `json:"interests"`
	SpeakingStyle         string    `json:"speakingStyle"`
	AppearanceDescription string    `json:"appearanceDescription"`
}

func (h *Handler) createCharacter(c *gin.Context) {
	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}

	character := &models.Character{
		UserID:                req.UserID,
		Name:                  req.Name,
		PersonaType:           req.PersonaType,
		Personality:           req.Personality,
		Backstory:             req.Backstory,
		Interests:             req.Interests,
		SpeakingStyle:         req.SpeakingStyle,
		AppearanceDescription: req.AppearanceDescription,
	}
	if character.PersonaType == "" {
		character.PersonaType = "custom"
	}

	if err := h.characters.CreateCharacter(c.Request.Context(), character); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

func (h *Handler) listCharacters(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "userId query parameter is required"})
		return
	}

	characters, err := h.characters.ListCharacters(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

func (h *Handler) getCharacter(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	character, err := h.characters.GetCharacter(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *Handler) updateCharacter(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid request body: " + err.Error()})
		return
	}

	character, err := h.characters.GetCharacter(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	character.Name = req.Name
	character.PersonaType = req.PersonaType
	character.Personality = req.Personality
	character.Backstory = req.Backstory
	character.Interests = req.Interests
	character.SpeakingStyle = req.SpeakingStyle
	character.AppearanceDescription = req.AppearanceDescription

	if err := h.characters.UpdateCharacter(c.Request.Context(), character); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *Handler) deleteCharacter(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.characters.DeleteCharacter(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) generateAvatar(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	character, err := h.characters.GenerateAvatar(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}
