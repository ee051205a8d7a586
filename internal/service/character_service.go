package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/config"
	"companion-server/internal/models"
	"companion-server/internal/repository"
)

// Размер генерируемого аватара.
const (
	avatarWidth  = 512
	avatarHeight = 512
)

// CharacterService - управление персонажами-компаньонами.
type CharacterService interface {
	CreateCharacter(ctx context.Context, character *models.Character) error
	GetCharacter(ctx context.Context, id uuid.UUID) (*models.Character, error)
	ListCharacters(ctx context.Context, userID uuid.UUID) ([]models.Character, error)
	UpdateCharacter(ctx context.Context, character *models.Character) error
	DeleteCharacter(ctx context.Context, id uuid.UUID) error
	GenerateAvatar(ctx context.Context, id uuid.UUID) (*models.Character, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ CharacterService = (*characterService)(nil)

type characterService struct {
	characters repository.CharacterRepository
	images     clients.ImageClient
	memory     MemoryService
	cfg        config.AssetsConfig
	logger     *zap.Logger
}

// NewCharacterService создает сервис персонажей.
func NewCharacterService(
	characters repository.CharacterRepository,
	images clients.ImageClient,
	memory MemoryService,
	cfg config.AssetsConfig,
	logger *zap.Logger,
) CharacterService {
	return &characterService{
		characters: characters,
		images:     images,
		memory:     memory,
		cfg:        cfg,
		logger:     logger.Named("CharacterService"),
	}
}

// CreateCharacter persists a new companion character.
func (s *characterService) CreateCharacter(ctx context.Context, character *models.Character) error {
	if character.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCharacterData)
	}
	character.IsActive = true
	return s.characters.Create(ctx, character)
}

// GetCharacter returns a character by ID.
func (s *characterService) GetCharacter(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	character, err := s.characters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}
	return character, nil
}

// ListCharacters returns the active characters of a user.
func (s *characterService) ListCharacters(ctx context.Context, userID uuid.UUID) ([]models.Character, error) {
	return s.characters.ListByUser(ctx, userID)
}

// UpdateCharacter persists the editable fields of a character.
func (s *characterService) UpdateCharacter(ctx context.Context, character *models.Character) error {
	err := s.characters.Update(ctx, character)
	if errors.Is(err, models.ErrNotFound) {
		return ErrCharacterNotFound
	}
	return err
}

// DeleteCharacter removes a character together with its vector memory.
func (s *characterService) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	if err := s.memory.ForgetCharacter(ctx, id); err != nil {
		s.logger.Warn("Failed to forget character memories", zap.String("characterID", id.String()), zap.Error(err))
	}

	err := s.characters.Delete(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return ErrCharacterNotFound
	}
	return err
}

// GenerateAvatar renders an avatar from the appearance description and stores
// its URL on the character.
func (s *characterService) GenerateAvatar(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	character, err := s.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if character.AppearanceDescription == "" {
		return nil, ErrNoPromptAvailable
	}

	prompt := fmt.Sprintf("portrait of %s, %s%s", character.Name, character.AppearanceDescription, s.cfg.StyleSuffix)
	image, err := s.images.GenerateImage(ctx, prompt, avatarWidth, avatarHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetGenerationFailed, err)
	}

	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetGenerationFailed, err)
	}
	fileName := fmt.Sprintf("avatar-%s.png", uuid.New())
	if err := os.WriteFile(filepath.Join(s.cfg.StoragePath, fileName), image.Data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetGenerationFailed, err)
	}

	character.AvatarURL = s.cfg.PublicBaseURL + "/" + fileName
	if err := s.UpdateCharacter(ctx, character); err != nil {
		return nil, err
	}
	s.logger.Info("Avatar generated", zap.String("characterID", id.String()))
	return character, nil
}
