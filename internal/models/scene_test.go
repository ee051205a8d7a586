package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSceneValidate(t *testing.T) {
	next := uuid.New()
	label := "good_ending"
	emptyLabel := ""

	tests := []struct {
		name    string
		scene   Scene
		wantErr bool
	}{
		{
			name:  "valid narrative",
			scene: Scene{ID: uuid.New(), Kind: SceneKindNarrative, NextSceneID: &next},
		},
		{
			name:    "narrative without successor",
			scene:   Scene{ID: uuid.New(), Kind: SceneKindNarrative},
			wantErr: true,
		},
		{
			name: "narrative with choices",
			scene: Scene{
				ID: uuid.New(), Kind: SceneKindNarrative, NextSceneID: &next,
				Choices: []Choice{{Text: "x", NextSceneID: next}},
			},
			wantErr: true,
		},
		{
			name: "valid choice",
			scene: Scene{
				ID: uuid.New(), Kind: SceneKindChoice,
				Choices: []Choice{{Text: "go", NextSceneID: next}},
			},
		},
		{
			name:    "choice without options",
			scene:   Scene{ID: uuid.New(), Kind: SceneKindChoice},
			wantErr: true,
		},
		{
			name: "choice option without successor",
			scene: Scene{
				ID: uuid.New(), Kind: SceneKindChoice,
				Choices: []Choice{{Text: "dead end"}},
			},
			wantErr: true,
		},
		{
			name:  "valid ending",
			scene: Scene{ID: uuid.New(), Kind: SceneKindEnding, EndingLabel: &label},
		},
		{
			name:    "ending without label",
			scene:   Scene{ID: uuid.New(), Kind: SceneKindEnding},
			wantErr: true,
		},
		{
			name:    "ending with empty label",
			scene:   Scene{ID: uuid.New(), Kind: SceneKindEnding, EndingLabel: &emptyLabel},
			wantErr: true,
		},
		{
			name:    "ending with successor",
			scene:   Scene{ID: uuid.New(), Kind: SceneKindEnding, EndingLabel: &label, NextSceneID: &next},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			scene:   Scene{ID: uuid.New(), Kind: SceneKind("cutscene")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSceneData)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScenePromptFor(t *testing.T) {
	scene := Scene{BackgroundPrompt: "castle hall", CharacterPrompt: ""}
	assert.Equal(t, "castle hall", scene.PromptFor(AssetKindBackground))
	assert.Equal(t, "", scene.PromptFor(AssetKindCharacter))
}

func TestFlagMapMerge_LaterWins(t *testing.T) {
	flags := FlagMap{"trust": 1, "rushed": false}
	flags.Merge(map[string]interface{}{"rushed": true, "met_yuki": true})

	assert.Equal(t, true, flags["rushed"])
	assert.Equal(t, true, flags["met_yuki"])
	assert.Equal(t, 1, flags["trust"])
}
