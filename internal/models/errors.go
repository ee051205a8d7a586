package models

import "errors"

// Общие ошибки уровня данных, используются репозиториями и сервисами.
var (
	// ErrNotFound возвращается, когда запрошенная запись отсутствует в БД.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidSceneData возвращается, когда авторский контент сцены нарушает
	// инварианты графа (narrative без next_scene_id, choice без опций и т.п.).
	ErrInvalidSceneData = errors.New("invalid scene data")
)
