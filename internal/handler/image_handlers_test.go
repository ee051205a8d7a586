package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"companion-server/internal/service"
)

func TestGenerateImageEndpoint_Created(t *testing.T) {
	images := new(mockImages)
	router := newImageRouter(t, images)

	info := &service.GeneratedImageInfo{
		ID:     uuid.New(),
		Prompt: "night city rooftop, anime style",
		URL:    "http://localhost:8080/static/images/image-x.png",
		Width:  768,
		Height: 768,
	}
	images.On("Generate", mock.Anything, "night city rooftop", 0, 0).Return(info, nil)

	w := performRequest(router, http.MethodPost, "/api/images/generate", gin.H{"prompt": "night city rooftop"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var got service.GeneratedImageInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, info.URL, got.URL)
}

func TestGenerateImageEndpoint_MissingPrompt(t *testing.T) {
	router := newImageRouter(t, new(mockImages))

	w := performRequest(router, http.MethodPost, "/api/images/generate", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateImageEndpoint_RendererDown(t *testing.T) {
	images := new(mockImages)
	router := newImageRouter(t, images)

	images.On("Generate", mock.Anything, "a cat", 0, 0).Return(nil, service.ErrAssetGenerationFailed)

	w := performRequest(router, http.MethodPost, "/api/images/generate", gin.H{"prompt": "a cat"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGalleryEndpoint_ListsImages(t *testing.T) {
	images := new(mockImages)
	router := newImageRouter(t, images)

	gallery := []service.GalleryImage{
		{FileName: "image-a.png", URL: "http://x/image-a.png", SizeBytes: 42, ModifiedAt: time.Now()},
	}
	images.On("ListGallery", mock.Anything).Return(gallery, nil)

	w := performRequest(router, http.MethodGet, "/api/images", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got []service.GalleryImage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "image-a.png", got[0].FileName)
}
