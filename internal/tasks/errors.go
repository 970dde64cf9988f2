package tasks

import "errors"

// Ошибки задач развёртывания.
var (
	// ErrEndpointNotReady — эндпоинт ещё не вышел в InService.
	// Переходная ошибка: задача повторяется по своей политике.
	ErrEndpointNotReady = errors.New("endpoint is not in service")

	// ErrEndpointBroken — эндпоинт в терминально нерабочем состоянии.
	ErrEndpointBroken = errors.New("endpoint is in failed state")

	// ErrLatestModelMissing — нет указателя последней версии модели.
	// ModelDeploy для этой модели не выполнялся или не дошёл до публикации.
	ErrLatestModelMissing = errors.New("latest model pointer not found")

	// ErrMissingModel — задаче фазы развёртывания не передана модель.
	ErrMissingModel = errors.New("task has no model")

	// ErrMissingEdge — задаче обновления зависимостей не передан edge.
	ErrMissingEdge = errors.New("task has no edge")
)
