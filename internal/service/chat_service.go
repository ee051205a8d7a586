package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/config"
	"companion-server/internal/models"
	"companion-server/internal/repository"
)

// Сколько последних сообщений поднимается из базы до обрезки по токенам.
const historyFetchLimit = 50

// ChatService - диалог с персонажем: сборка контекста (персона, память,
// веб-поиск, история в пределах токенового бюджета) и генерация ответа.
type ChatService interface {
	SendMessage(ctx context.Context, characterID, userID uuid.UUID, content string) (*models.ChatMessage, error)
	GetHistory(ctx context.Context, characterID uuid.UUID, limit int) ([]models.ChatMessage, error)
	ClearHistory(ctx context.Context, characterID uuid.UUID) error
}

// Compile-time check to ensure implementation satisfies the interface.
var _ ChatService = (*chatService)(nil)

type chatService struct {
	characters repository.CharacterRepository
	messages   repository.MessageRepository
	llm        clients.LLMClient
	search     clients.SearchClient
	memory     MemoryService
	trigger    *searchTrigger
	encoder    *tiktoken.Tiktoken
	cfg        config.ChatConfig
	searchCfg  config.SearchConfig
	logger     *zap.Logger
}

// NewChatService создает сервис диалогов.
func NewChatService(
	characters repository.CharacterRepository,
	messages repository.MessageRepository,
	llm clients.LLMClient,
	search clients.SearchClient,
	memory MemoryService,
	cfg config.ChatConfig,
	searchCfg config.SearchConfig,
	logger *zap.Logger,
) (ChatService, error) {
	trigger, err := newSearchTrigger()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки автомата поисковых триггеров: %w", err)
	}

	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации токенизатора: %w", err)
	}

	return &chatService{
		characters: characters,
		messages:   messages,
		llm:        llm,
		search:     search,
		memory:     memory,
		trigger:    trigger,
		encoder:    encoder,
		cfg:        cfg,
		searchCfg:  searchCfg,
		logger:     logger.Named("ChatService"),
	}, nil
}

// SendMessage persists the user message, assembles the dialog context and
// returns the generated character reply.
func (s *chatService) SendMessage(ctx context.Context, characterID, userID uuid.UUID, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	character, err := s.characters.GetByID(ctx, characterID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}

	userMessage := &models.ChatMessage{
		ID:          uuid.New(),
		CharacterID: characterID,
		UserID:      userID,
		Role:        models.RoleUser,
		Content:     content,
	}
	if err := s.messages.Create(ctx, userMessage); err != nil {
		return nil, err
	}

	systemPrompt := s.buildSystemPrompt(ctx, character, content)
	history, err := s.budgetedHistory(ctx, characterID)
	if err != nil {
		return nil, err
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	chatMessages = append(chatMessages, history...)

	result, err := s.llm.Complete(ctx, chatMessages)
	if err != nil {
		return nil, err
	}

	reply := &models.ChatMessage{
		ID:               uuid.New(),
		CharacterID:      characterID,
		UserID:           userID,
		Role:             models.RoleAssistant,
		Content:          result.Content,
		TokensUsed:       result.TotalTokens,
		GenerationTimeMS: result.GenerationTime.Milliseconds(),
	}
	if err := s.messages.Create(ctx, reply); err != nil {
		return nil, err
	}

	if s.cfg.MemoryEnabled {
		s.rememberExchange(characterID, content, result.Content)
	}
	return reply, nil
}

// GetHistory returns the dialog history in chronological order.
func (s *chatService) GetHistory(ctx context.Context, characterID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = historyFetchLimit
	}
	messages, err := s.messages.ListRecent(ctx, characterID, limit)
	if err != nil {
		return nil, err
	}
	reverseMessages(messages)
	return messages, nil
}

// ClearHistory wipes the dialog of a character.
func (s *chatService) ClearHistory(ctx context.Context, characterID uuid.UUID) error {
	return s.messages.DeleteByCharacter(ctx, characterID)
}

// buildSystemPrompt складывает персону, релевантную память и результаты
// веб-поиска в один системный промпт.
func (s *chatService) buildSystemPrompt(ctx context.Context, character *models.Character, userMessage string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s.", character.Name)
	if character.Personality != "" {
		fmt.Fprintf(&sb, " Personality: %s.", character.Personality)
	}
	if character.Backstory != "" {
		fmt.Fprintf(&sb, " Backstory: %s.", character.Backstory)
	}
	if len(character.Interests) > 0 {
		fmt.Fprintf(&sb, " Interests: %s.", strings.Join(character.Interests, ", "))
	}
	if character.SpeakingStyle != "" {
		fmt.Fprintf(&sb, " Speaking style: %s.", character.SpeakingStyle)
	}
	sb.WriteString(" Stay in character and keep replies conversational.")

	if s.cfg.MemoryEnabled {
		memories, err := s.memory.Recall(ctx, character.ID, userMessage, s.cfg.MemoryLimit)
		if err != nil {
			s.logger.Warn("Memory recall failed", zap.String("characterID", character.ID.String()), zap.Error(err))
		} else if len(memories) > 0 {
			sb.WriteString("\n\nThings you remember about this user:\n")
			for _, m := range memories {
				sb.WriteString("- ")
				sb.WriteString(m.Content)
				sb.WriteString("\n")
			}
		}
	}

	if s.searchCfg.Enabled {
		if query, ok := s.trigger.Detect(userMessage); ok {
			results, err := s.search.Search(ctx, query)
			if err != nil {
				s.logger.Warn("Web search failed", zap.String("query", query), zap.Error(err))
			} else if block := clients.FormatSearchResults(results); block != "" {
				sb.WriteString("\n\n")
				sb.WriteString(block)
			}
		}
	}
	return sb.String()
}

// budgetedHistory returns the newest dialog messages that fit the token
// budget, oldest first.
func (s *chatService) budgetedHistory(ctx context.Context, characterID uuid.UUID) ([]openai.ChatCompletionMessage, error) {
	recent, err := s.messages.ListRecent(ctx, characterID, historyFetchLimit)
	if err != nil {
		return nil, err
	}

	// recent идет от новых к старым: набираем с конца диалога, пока
	// влезает в бюджет.
	budget := s.cfg.HistoryTokenBudget
	picked := make([]openai.ChatCompletionMessage, 0, len(recent))
	for _, msg := range recent {
		cost := len(s.encoder.Encode(msg.Content, nil, nil))
		if cost > budget && len(picked) > 0 {
			break
		}
		budget -= cost
		picked = append(picked, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
		if budget <= 0 {
			break
		}
	}

	// Разворачиваем в хронологический порядок.
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked, nil
}

// rememberExchange stores the exchange as episodic memory in the background.
func (s *chatService) rememberExchange(characterID uuid.UUID, userText, replyText string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		content := fmt.Sprintf("User said: %s. You replied: %s", userText, replyText)
		if _, err := s.memory.Remember(ctx, characterID, models.MemoryKindEpisodic, content, 1.0); err != nil {
			s.logger.Warn("Failed to store episodic memory", zap.String("characterID", characterID.String()), zap.Error(err))
		}
	}()
}

func reverseMessages(messages []models.ChatMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
