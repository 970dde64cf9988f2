package domain

import (
	"time"

	"github.com/google/uuid"
)

// EndpointType — тип эндпоинта инференса.
type EndpointType string

const (
	// EndpointRealTime — синхронный real-time эндпоинт.
	EndpointRealTime EndpointType = "real-time"

	// EndpointAsync — асинхронный эндпоинт (инференс через очередь).
	EndpointAsync EndpointType = "async"
)

// IsValid проверяет, что тип эндпоинта известен.
func (t EndpointType) IsValid() bool {
	return t == EndpointRealTime || t == EndpointAsync
}

// DependencyNone — sentinel-значение dependency_key для контейнеров,
// не входящих ни в одну группу зависимостей.
const DependencyNone = "none"

// Container — контейнер внутри модели.
//
// Контейнеры развёртываются в порядке объявления. DependencyKey связывает
// контейнер с группой зависимостей в ExecutionGraph: под этим ключом
// публикуются параметры эндпоинта для downstream-потребителей.
type Container struct {
	// ContainerName — имя контейнера (hostname внутри модели).
	ContainerName string `json:"container_name"`

	// Image — ссылка на образ контейнера.
	Image string `json:"image"`

	// DependencyKey — ключ группы зависимостей, к которой относится контейнер.
	// DependencyNone, если контейнер вне графа.
	DependencyKey string `json:"dependency_key"`
}

// Variant — production-вариант эндпоинта.
type Variant struct {
	// VariantName — имя варианта.
	VariantName string `json:"variant_name"`

	// InstanceCount — начальное количество инстансов.
	InstanceCount int `json:"instance_count"`

	// InstanceWeight — вес варианта при распределении трафика.
	InstanceWeight float64 `json:"instance_weight"`

	// InstanceType — тип инстанса (например, "ml.m5.large").
	InstanceType string `json:"instance_type"`

	// MaxConcurrency — максимум одновременных инвокаций на инстанс.
	MaxConcurrency int `json:"max_concurrency"`
}

// ModelSpec — декларативное описание одной единицы развёртывания:
// модель плюс обслуживающий её эндпоинт.
//
// ModelSpec неизменяем на протяжении одного run.
type ModelSpec struct {
	// ModelName — уникальное имя модели.
	ModelName string `json:"model_name"`

	// ModelCardKey — локатор model card (ключ объекта в хранилище метаданных).
	ModelCardKey string `json:"model_card_key,omitempty"`

	// EndpointName — уникальное имя эндпоинта.
	EndpointName string `json:"endpoint_name"`

	// EndpointType — тип эндпоинта: real-time или async.
	EndpointType EndpointType `json:"endpoint_type"`

	// Containers — упорядоченный список контейнеров модели.
	Containers []Container `json:"containers"`

	// Variants — упорядоченный список production-вариантов.
	// Async-эндпоинт имеет ровно один вариант, real-time — от 1 до 10.
	Variants []Variant `json:"variants"`

	// MinCapacity — минимальное количество инстансов для автоскейлинга.
	MinCapacity int `json:"min_capacity"`

	// MaxCapacity — максимальное количество инстансов для автоскейлинга.
	MaxCapacity int `json:"max_capacity"`
}

// IsMultiContainer возвращает true, если модель состоит из нескольких контейнеров.
func (m *ModelSpec) IsMultiContainer() bool {
	return len(m.Containers) > 1
}

// DependencyKeys возвращает ключи зависимостей всех контейнеров модели
// (без sentinel-значения DependencyNone, без дубликатов, в порядке объявления).
func (m *ModelSpec) DependencyKeys() []string {
	seen := make(map[string]bool, len(m.Containers))
	keys := make([]string, 0, len(m.Containers))
	for _, c := range m.Containers {
		if c.DependencyKey == DependencyNone || c.DependencyKey == "" {
			continue
		}
		if seen[c.DependencyKey] {
			continue
		}
		seen[c.DependencyKey] = true
		keys = append(keys, c.DependencyKey)
	}
	return keys
}

// DeploymentSpec — документ развёртывания: набор моделей и графы выполнения.
//
// Документ загружается один раз на run и неизменяем до его завершения.
type DeploymentSpec struct {
	// Models — модели для развёртывания.
	Models []ModelSpec `json:"models"`

	// ExecutionGraphs — графы выполнения (dependency_key → edges).
	ExecutionGraphs []ExecutionGraph `json:"execution_graphs"`
}

// ModelByEndpoint возвращает модель по имени эндпоинта.
func (s *DeploymentSpec) ModelByEndpoint(endpointName string) *ModelSpec {
	for i := range s.Models {
		if s.Models[i].EndpointName == endpointName {
			return &s.Models[i]
		}
	}
	return nil
}

// ModelByName возвращает модель по имени.
func (s *DeploymentSpec) ModelByName(modelName string) *ModelSpec {
	for i := range s.Models {
		if s.Models[i].ModelName == modelName {
			return &s.Models[i]
		}
	}
	return nil
}

// StoredSpec — сохранённый документ развёртывания.
//
// Один StoredSpec может иметь множество версий (SpecVersion).
// Каждый run выполняет конкретную версию документа.
type StoredSpec struct {
	// ID — уникальный идентификатор документа.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя документа (например, "inference-pipeline").
	Name string `json:"name"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// SpecVersion — версия документа развёртывания.
type SpecVersion struct {
	// SpecID — ссылка на родительский StoredSpec.
	SpecID uuid.UUID `json:"spec_id"`

	// Version — номер версии (1, 2, 3, ...).
	Version int `json:"version"`

	// Document — сам документ развёртывания.
	Document DeploymentSpec `json:"document"`

	// CreatedAt — время создания версии.
	CreatedAt time.Time `json:"created_at"`
}
