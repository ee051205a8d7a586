package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"companion-server/internal/config"
)

// ImageClient - клиент локального Stable Diffusion WebUI (txt2img API).
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string, width, height int) (*GeneratedImage, error)
}

// GeneratedImage - декодированное изображение и параметры его генерации.
type GeneratedImage struct {
	Data   []byte
	Params map[string]interface{}
}

// Compile-time check to ensure implementation satisfies the interface.
var _ ImageClient = (*sdClient)(nil)

type sdClient struct {
	baseURL    string
	httpClient *http.Client
	cfg        config.SDConfig
	logger     *zap.Logger
}

// NewImageClient создает клиент локального сервера генерации изображений.
func NewImageClient(cfg config.SDConfig, logger *zap.Logger) ImageClient {
	return &sdClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		cfg:    cfg,
		logger: logger.Named("SDClient"),
	}
}

type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg_scale"`
	SamplerName    string  `json:"sampler_name"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	BatchSize      int     `json:"batch_size"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

// GenerateImage renders a single image for the given prompt.
func (c *sdClient) GenerateImage(ctx context.Context, prompt string, width, height int) (*GeneratedImage, error) {
	reqBody := txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: c.cfg.NegativePrompt,
		Steps:          c.cfg.Steps,
		CFGScale:       c.cfg.CFGScale,
		SamplerName:    c.cfg.Sampler,
		Width:          width,
		Height:         height,
		BatchSize:      1,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса txt2img: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sdapi/v1/txt2img", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса txt2img: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("txt2img request failed", zap.Error(err))
		return nil, fmt.Errorf("ошибка запроса генерации изображения: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("txt2img returned non-200 status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("сервер генерации изображений вернул статус %d", resp.StatusCode)
	}

	var parsed txt2imgResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа txt2img: %w", err)
	}
	if len(parsed.Images) == 0 {
		return nil, fmt.Errorf("сервер генерации изображений не вернул ни одного изображения")
	}

	data, err := base64.StdEncoding.DecodeString(parsed.Images[0])
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования изображения: %w", err)
	}

	c.logger.Info("Image generated",
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return &GeneratedImage{
		Data: data,
		Params: map[string]interface{}{
			"steps":     c.cfg.Steps,
			"cfg_scale": c.cfg.CFGScale,
			"sampler":   c.cfg.Sampler,
			"width":     width,
			"height":    height,
		},
	}, nil
}
