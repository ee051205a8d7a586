package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Asset - сгенерированный медиа-артефакт сцены. Для пары (scene_id, kind)
// актуальной считается самая свежая запись; перегенерация добавляет новую
// строку, которая вытесняет предыдущую из выдачи.
type Asset struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	SceneID          uuid.UUID       `db:"scene_id" json:"sceneId"`
	Kind             AssetKind       `db:"kind" json:"kind"`
	Prompt           string          `db:"prompt" json:"prompt"`
	FileURL          string          `db:"file_url" json:"fileUrl"`
	FilePath         string          `db:"file_path" json:"-"`
	GenerationParams json.RawMessage `db:"generation_params" json:"generationParams,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}
