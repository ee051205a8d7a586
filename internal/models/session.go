package models

import (
	"time"

	"github.com/google/uuid"
)

// ChoiceRecord - одна запись в журнале выборов сессии. Журнал append-only:
// записи никогда не изменяются и не удаляются.
type ChoiceRecord struct {
	SceneID     uuid.UUID `json:"scene_id"`
	ChoiceIndex int       `json:"choice_index"`
	ChoiceText  string    `json:"choice_text,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// FlagMap - накопленные сюжетные флаги сессии. Ключ может быть перезаписан
// более поздним выбором, но никогда не удаляется.
type FlagMap map[string]interface{}

// Merge вносит обновления флагов; поздняя запись по тому же ключу побеждает.
func (f FlagMap) Merge(updates map[string]interface{}) {
	for k, v := range updates {
		f[k] = v
	}
}

// Session - прохождение одной истории одним игроком (сейв-файл).
// Мутируется исключительно движком прогрессии.
type Session struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	StoryID         uuid.UUID      `db:"story_id" json:"storyId"`
	UserID          uuid.UUID      `db:"user_id" json:"userId"`
	CurrentSceneID  uuid.UUID      `db:"current_scene_id" json:"currentSceneId"`
	ChoiceHistory   []ChoiceRecord `db:"choice_history" json:"choiceHistory"`
	Flags           FlagMap        `db:"flags" json:"flags"`
	IsComplete      bool           `db:"is_complete" json:"isComplete"`
	EndingLabel     *string        `db:"ending_label" json:"endingLabel,omitempty"`
	PlaytimeSeconds int64          `db:"playtime_seconds" json:"playtimeSeconds"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}
