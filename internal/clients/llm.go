package clients

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"companion-server/internal/config"
)

// LLMClient - клиент локального OpenAI-совместимого сервера генерации текста.
// Вся генерация идет через chat completions, стриминг не используется.
type LLMClient interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*CompletionResult, error)
}

// CompletionResult - результат генерации вместе с учетом токенов.
type CompletionResult struct {
	Content        string
	PromptTokens   int
	TotalTokens    int
	GenerationTime time.Duration
}

// Compile-time check to ensure implementation satisfies the interface.
var _ LLMClient = (*llmClient)(nil)

type llmClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewLLMClient создает клиент по конфигурации локального сервера.
func NewLLMClient(cfg config.LLMConfig, logger *zap.Logger) LLMClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &llmClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger.Named("LLMClient"),
	}
}

// Complete sends the assembled dialog context and returns the generated reply.
func (c *llmClient) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*CompletionResult, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		c.logger.Error("Chat completion request failed", zap.Error(err))
		return nil, fmt.Errorf("ошибка запроса генерации текста: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("Chat completion returned no choices")
		return nil, fmt.Errorf("сервер генерации не вернул ни одного варианта ответа")
	}

	result := &CompletionResult{
		Content:        resp.Choices[0].Message.Content,
		PromptTokens:   resp.Usage.PromptTokens,
		TotalTokens:    resp.Usage.TotalTokens,
		GenerationTime: time.Since(start),
	}
	c.logger.Debug("Chat completion finished",
		zap.Int("totalTokens", result.TotalTokens),
		zap.Duration("elapsed", result.GenerationTime))
	return result, nil
}
