package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/config"
	"companion-server/internal/models"
	"companion-server/internal/repository/mocks"
)

type characterFixture struct {
	characters *mocks.CharacterRepository
	images     *mockImageClient
	memory     *mockMemoryService
	svc        CharacterService
}

func newCharacterFixture(t *testing.T) *characterFixture {
	t.Helper()
	f := &characterFixture{
		characters: new(mocks.CharacterRepository),
		images:     new(mockImageClient),
		memory:     new(mockMemoryService),
	}
	cfg := config.AssetsConfig{
		StyleSuffix:   ", anime style",
		StoragePath:   t.TempDir(),
		PublicBaseURL: "http://localhost:8080/static/images",
	}
	f.svc = NewCharacterService(f.characters, f.images, f.memory, cfg, zap.NewNop())
	return f
}

func TestCreateCharacter_RequiresName(t *testing.T) {
	f := newCharacterFixture(t)

	err := f.svc.CreateCharacter(context.Background(), &models.Character{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidCharacterData)
	f.characters.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeleteCharacter_ForgetsMemories(t *testing.T) {
	f := newCharacterFixture(t)

	id := uuid.New()
	f.memory.On("ForgetCharacter", mock.Anything, id).Return(nil)
	f.characters.On("Delete", mock.Anything, id).Return(nil)

	require.NoError(t, f.svc.DeleteCharacter(context.Background(), id))
	f.memory.AssertExpectations(t)
}

func TestGenerateAvatar_RequiresAppearance(t *testing.T) {
	f := newCharacterFixture(t)

	character := &models.Character{ID: uuid.New(), Name: "Yuki"}
	f.characters.On("GetByID", mock.Anything, character.ID).Return(character, nil)

	_, err := f.svc.GenerateAvatar(context.Background(), character.ID)
	assert.ErrorIs(t, err, ErrNoPromptAvailable)
}

func TestGenerateAvatar_StoresURL(t *testing.T) {
	f := newCharacterFixture(t)

	character := &models.Character{
		ID:                    uuid.New(),
		Name:                  "Yuki",
		AppearanceDescription: "short dark hair, lab coat",
	}
	f.characters.On("GetByID", mock.Anything, character.ID).Return(character, nil)
	f.images.On("GenerateImage", mock.Anything, mock.Anything, avatarWidth, avatarHeight).
		Return(&clients.GeneratedImage{Data: []byte("png")}, nil)
	f.characters.On("Update", mock.Anything, character).Return(nil)

	updated, err := f.svc.GenerateAvatar(context.Background(), character.ID)
	require.NoError(t, err)
	assert.Contains(t, updated.AvatarURL, "http://localhost:8080/static/images/avatar-")
}
