package executor

import "errors"

// Ошибки выполнения задач.
var (
	// ErrUnknownTaskKind — нет executor'а для данного вида задачи.
	ErrUnknownTaskKind = errors.New("unknown task kind")

	// ErrRetryExhausted — все попытки retry исчерпаны.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrCallTimeout — один вызов задачи превысил таймаут политики.
	ErrCallTimeout = errors.New("task call timeout")
)
