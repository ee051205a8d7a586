package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	ollama "github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"companion-server/internal/config"
)

// EmbeddingClient - клиент локального сервера эмбеддингов.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ EmbeddingClient = (*ollamaEmbeddingClient)(nil)

type ollamaEmbeddingClient struct {
	client *ollama.Client
	model  string
	logger *zap.Logger
}

// NewEmbeddingClient создает клиент эмбеддингов поверх Ollama API.
func NewEmbeddingClient(cfg config.OllamaConfig, logger *zap.Logger) (EmbeddingClient, error) {
	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("некорректный адрес сервера эмбеддингов: %w", err)
	}

	return &ollamaEmbeddingClient{
		client: ollama.NewClient(base, http.DefaultClient),
		model:  cfg.EmbeddingModel,
		logger: logger.Named("EmbeddingClient"),
	}, nil
}

// Embed returns the embedding vector for a single text.
func (c *ollamaEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embed(ctx, &ollama.EmbedRequest{
		Model: c.model,
		Input: text,
	})
	if err != nil {
		c.logger.Error("Embedding request failed", zap.Error(err))
		return nil, fmt.Errorf("ошибка запроса эмбеддинга: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("сервер эмбеддингов вернул пустой результат")
	}
	return resp.Embeddings[0], nil
}
