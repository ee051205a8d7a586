package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/models"
	"companion-server/internal/repository"
)

// MemoryService - долговременная память персонажей: записи в PostgreSQL,
// векторы в локальном векторном хранилище, семантический поиск по эмбеддингам.
type MemoryService interface {
	Remember(ctx context.Context, characterID uuid.UUID, kind, content string, importance float64) (*models.MemoryEntry, error)
	Recall(ctx context.Context, characterID uuid.UUID, query string, limit int) ([]models.MemoryEntry, error)
	ListMemories(ctx context.Context, characterID uuid.UUID, limit int) ([]models.MemoryEntry, error)
	ForgetCharacter(ctx context.Context, characterID uuid.UUID) error
}

// Compile-time check to ensure implementation satisfies the interface.
var _ MemoryService = (*memoryService)(nil)

type memoryService struct {
	memories repository.MemoryRepository
	embedder clients.EmbeddingClient
	vectors  clients.VectorStoreClient
	logger   *zap.Logger
}

// NewMemoryService создает сервис памяти.
func NewMemoryService(
	memories repository.MemoryRepository,
	embedder clients.EmbeddingClient,
	vectors clients.VectorStoreClient,
	logger *zap.Logger,
) MemoryService {
	return &memoryService{
		memories: memories,
		embedder: embedder,
		vectors:  vectors,
		logger:   logger.Named("MemoryService"),
	}
}

// Remember stores one memory entry and indexes its embedding.
func (s *memoryService) Remember(ctx context.Context, characterID uuid.UUID, kind, content string, importance float64) (*models.MemoryEntry, error) {
	entry := &models.MemoryEntry{
		ID:          uuid.New(),
		CharacterID: characterID,
		Kind:        kind,
		Content:     content,
		Importance:  importance,
	}

	vector, err := s.embedder.Embed(ctx, content)
	if err != nil {
		// Память сохраняется и без вектора: семантический поиск ее не найдет,
		// но ListMemories вернет.
		s.logger.Warn("Failed to embed memory, storing without vector",
			zap.String("characterID", characterID.String()),
			zap.Error(err))
	} else {
		if err := s.vectors.EnsureCollection(ctx, characterID, len(vector)); err != nil {
			s.logger.Warn("Failed to ensure memory collection", zap.Error(err))
		} else if err := s.vectors.UpsertPoint(ctx, characterID, entry.ID, vector, map[string]interface{}{
			"kind":    kind,
			"content": content,
		}); err != nil {
			s.logger.Warn("Failed to index memory vector", zap.Error(err))
		} else {
			entry.EmbeddingID = entry.ID.String()
		}
	}

	if err := s.memories.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Recall returns the memories semantically closest to the query.
func (s *memoryService) Recall(ctx context.Context, characterID uuid.UUID, query string, limit int) ([]models.MemoryEntry, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("Failed to embed recall query, falling back to recency",
			zap.String("characterID", characterID.String()),
			zap.Error(err))
		return s.memories.ListByCharacter(ctx, characterID, limit)
	}

	points, err := s.vectors.SearchPoints(ctx, characterID, vector, limit)
	if err != nil {
		s.logger.Warn("Vector search failed, falling back to recency", zap.Error(err))
		return s.memories.ListByCharacter(ctx, characterID, limit)
	}

	now := time.Now().UTC()
	entries := make([]models.MemoryEntry, 0, len(points))
	for _, p := range points {
		entry, err := s.memories.GetByID(ctx, p.ID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if err := s.memories.TouchAccess(ctx, entry.ID, now); err != nil {
			s.logger.Warn("Failed to touch memory access", zap.Error(err))
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// ListMemories returns the most important memories of a character.
func (s *memoryService) ListMemories(ctx context.Context, characterID uuid.UUID, limit int) ([]models.MemoryEntry, error) {
	return s.memories.ListByCharacter(ctx, characterID, limit)
}

// ForgetCharacter drops the vector collection of a character. The rows in
// PostgreSQL go away with the character via FK cascade.
func (s *memoryService) ForgetCharacter(ctx context.Context, characterID uuid.UUID) error {
	if err := s.vectors.DeleteCollection(ctx, characterID); err != nil {
		s.logger.Warn("Failed to delete memory collection", zap.String("characterID", characterID.String()), zap.Error(err))
	}
	return nil
}
