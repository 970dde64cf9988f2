package engine

import (
	"errors"
	"strings"
)

// Ошибки валидации документа развёртывания.
var (
	// ErrEmptyModels — документ не содержит моделей.
	ErrEmptyModels = errors.New("deployment spec has no models")

	// ErrEmptyModelName — модель без имени.
	ErrEmptyModelName = errors.New("model has empty name")

	// ErrDuplicateModelName — несколько моделей с одинаковым именем.
	ErrDuplicateModelName = errors.New("duplicate model name")

	// ErrDuplicateEndpointName — несколько моделей с одинаковым эндпоинтом.
	ErrDuplicateEndpointName = errors.New("duplicate endpoint name")

	// ErrUnknownEndpointType — тип эндпоинта не real-time и не async.
	ErrUnknownEndpointType = errors.New("unknown endpoint type")

	// ErrEmptyContainers — модель без контейнеров.
	ErrEmptyContainers = errors.New("model has no containers")

	// ErrDanglingDependencyKey — контейнер ссылается на ключ, отсутствующий в графе.
	ErrDanglingDependencyKey = errors.New("dependency key not found in execution graph")

	// ErrUnknownEdgeEndpoint — edge ссылается на эндпоинт, отсутствующий среди моделей.
	ErrUnknownEdgeEndpoint = errors.New("edge references unknown endpoint")

	// ErrEndpointTypeMismatch — тип эндпоинта в edge не совпадает с ModelSpec.
	ErrEndpointTypeMismatch = errors.New("edge endpoint type does not match model")

	// ErrCapacityRange — min_capacity больше max_capacity.
	ErrCapacityRange = errors.New("min_capacity greater than max_capacity")

	// ErrRealTimeCapacity — real-time эндпоинт с min_capacity < 1.
	ErrRealTimeCapacity = errors.New("real-time endpoint requires min_capacity >= 1")

	// ErrVariantCount — недопустимое количество вариантов для типа эндпоинта.
	ErrVariantCount = errors.New("invalid variant count for endpoint type")

	// ErrDuplicateGraphKey — один dependency_key объявлен в нескольких графах.
	ErrDuplicateGraphKey = errors.New("dependency key declared in multiple graphs")

	// ErrCyclicDependency — обнаружен цикл между ключами зависимостей.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
)

// ValidationError — ошибка валидации с контекстом поля.
type ValidationError struct {
	Model   string // имя модели (пустое для ошибок уровня графа)
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Model != "" {
		return "model " + e.Model + ": " + e.Field + ": " + e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(model, field, message string, err error) *ValidationError {
	return &ValidationError{
		Model:   model,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// ValidationErrors — полный список проблем документа.
//
// Валидация тотальна: проверяются все записи, и вызывающая сторона
// получает каждую найденную проблему, а не только первую.
type ValidationErrors []*ValidationError

// Error реализует интерфейс error.
func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "invalid deployment spec: " + strings.Join(msgs, "; ")
}

// Unwrap открывает вложенные ошибки для errors.Is/As.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, ve := range e {
		errs[i] = ve
	}
	return errs
}

// CyclicDependencyError — цикл между ключами зависимостей.
type CyclicDependencyError struct {
	// Keys — ключи, образующие цикл, в порядке обхода.
	Keys []string
}

// Error реализует интерфейс error.
func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Keys, " -> ")
}

// Unwrap возвращает сентинельную ошибку цикла.
func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependency
}
