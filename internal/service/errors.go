package service

import "errors"

// Сентинельные ошибки сервисного слоя. HTTP-обработчик сопоставляет их
// со статус-кодами.
var (
	ErrStoryNotFound         = errors.New("story not found")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSceneNotFound         = errors.New("scene not found")
	ErrCharacterNotFound     = errors.New("character not found")
	ErrInvalidTransition     = errors.New("operation is not valid for the current scene")
	ErrInvalidChoice         = errors.New("choice index is out of range")
	ErrSessionBusy           = errors.New("session is processing another request")
	ErrNoPromptAvailable     = errors.New("scene has no prompt for the requested asset kind")
	ErrAssetGenerationFailed = errors.New("asset generation failed")
	ErrEmptyMessage          = errors.New("message content is empty")
	ErrInvalidCharacterData  = errors.New("character data is invalid")
)
