package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SceneKind определяет тип сцены. Закрытое множество: движок прогрессии
// сопоставляет операции (advance/choice) именно по этому полю.
type SceneKind string

const (
	SceneKindNarrative SceneKind = "narrative"
	SceneKindChoice    SceneKind = "choice"
	SceneKindEnding    SceneKind = "ending"
)

// IsValid проверяет, что значение принадлежит закрытому множеству типов.
func (k SceneKind) IsValid() bool {
	switch k {
	case SceneKindNarrative, SceneKindChoice, SceneKindEnding:
		return true
	}
	return false
}

// AssetKind определяет тип генерируемого ассета сцены.
type AssetKind string

const (
	AssetKindBackground AssetKind = "background"
	AssetKindCharacter  AssetKind = "character"
)

// IsValid проверяет допустимость типа ассета.
func (k AssetKind) IsValid() bool {
	return k == AssetKindBackground || k == AssetKindCharacter
}

// Choice описывает одну опцию в сцене типа choice. Порядок опций значим:
// игрок выбирает по индексу.
type Choice struct {
	Text        string                 `json:"text"`
	NextSceneID uuid.UUID              `json:"next_scene_id"`
	FlagUpdates map[string]interface{} `json:"flag_updates,omitempty"`
}

// Scene - неизменяемая авторская единица истории. Поля, относящиеся к
// конкретному типу (NextSceneID, Choices, EndingLabel), валидируются
// методом Validate при импорте контента и защитно перепроверяются движком.
type Scene struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	StoryID          uuid.UUID  `db:"story_id" json:"storyId"`
	SequenceNumber   int        `db:"sequence_number" json:"sequenceNumber"`
	Kind             SceneKind  `db:"kind" json:"kind"`
	Title            string     `db:"title" json:"title,omitempty"`
	NarrativeText    string     `db:"narrative_text" json:"narrativeText,omitempty"`
	DialogueText     string     `db:"dialogue_text" json:"dialogueText,omitempty"`
	SpeakerName      string     `db:"speaker_name" json:"speakerName,omitempty"`
	BackgroundPrompt string     `db:"background_prompt" json:"backgroundPrompt,omitempty"`
	CharacterPrompt  string     `db:"character_prompt" json:"characterPrompt,omitempty"`
	BackgroundMusic  string     `db:"background_music" json:"backgroundMusic,omitempty"`
	NextSceneID      *uuid.UUID `db:"next_scene_id" json:"nextSceneId,omitempty"`
	Choices          []Choice   `db:"choices" json:"choices,omitempty"`
	EndingLabel      *string    `db:"ending_label" json:"endingLabel,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}

// PromptFor возвращает авторский промпт для заданного типа ассета.
// Пустая строка означает, что генерация для этой пары (сцена, тип) невозможна.
func (s *Scene) PromptFor(kind AssetKind) string {
	switch kind {
	case AssetKindBackground:
		return s.BackgroundPrompt
	case AssetKindCharacter:
		return s.CharacterPrompt
	}
	return ""
}

// Validate проверяет инварианты графа для сцены:
// narrative - ровно один преемник, choice - минимум одна опция с преемником,
// ending - метка концовки и отсутствие преемника.
func (s *Scene) Validate() error {
	if !s.Kind.IsValid() {
		return fmt.Errorf("%w: scene %s has unknown kind %q", ErrInvalidSceneData, s.ID, s.Kind)
	}

	switch s.Kind {
	case SceneKindNarrative:
		if s.NextSceneID == nil || *s.NextSceneID == uuid.Nil {
			return fmt.Errorf("%w: narrative scene %s has no next_scene_id", ErrInvalidSceneData, s.ID)
		}
		if len(s.Choices) > 0 {
			return fmt.Errorf("%w: narrative scene %s carries choices", ErrInvalidSceneData, s.ID)
		}
	case SceneKindChoice:
		if len(s.Choices) == 0 {
			return fmt.Errorf("%w: choice scene %s has no options", ErrInvalidSceneData, s.ID)
		}
		for i, ch := range s.Choices {
			if ch.NextSceneID == uuid.Nil {
				return fmt.Errorf("%w: choice scene %s option %d has no next_scene_id", ErrInvalidSceneData, s.ID, i)
			}
		}
	case SceneKindEnding:
		if s.EndingLabel == nil || *s.EndingLabel == "" {
			return fmt.Errorf("%w: ending scene %s has no ending_label", ErrInvalidSceneData, s.ID)
		}
		if s.NextSceneID != nil || len(s.Choices) > 0 {
			return fmt.Errorf("%w: ending scene %s has a successor", ErrInvalidSceneData, s.ID)
		}
	}
	return nil
}
