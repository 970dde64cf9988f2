package tasks

import (
	"context"

	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/params"
	"log/slog"
)

// EndpointState — состояние эндпоинта в control plane.
type EndpointState string

const (
	// EndpointInService — эндпоинт готов принимать запросы.
	EndpointInService EndpointState = "InService"

	// EndpointCreating — эндпоинт создаётся.
	EndpointCreating EndpointState = "Creating"

	// EndpointUpdating — эндпоинт обновляется на новую конфигурацию.
	EndpointUpdating EndpointState = "Updating"

	// EndpointFailed — создание или обновление эндпоинта провалилось.
	EndpointFailed EndpointState = "Failed"

	// EndpointNotFound — эндпоинта не существует.
	EndpointNotFound EndpointState = "NotFound"
)

// VariantConfig — production-вариант в конфигурации эндпоинта.
// ModelName указывает на конкретную timestamped-версию модели.
type VariantConfig struct {
	VariantName    string
	ModelName      string
	InstanceCount  int
	InstanceWeight float64
	InstanceType   string
}

// ControlPlane — узкий интерфейс к control plane модельного сервинга.
//
// Все операции идемпотентны или безопасны для повтора с точки зрения
// вызывающих задач: конфигурации и модели создаются под уникальными
// timestamped-именами, Register/Deregister переживают повторный вызов.
type ControlPlane interface {
	// CreateModel регистрирует модель под уникальным именем.
	CreateModel(ctx context.Context, uniqueName string, m *domain.ModelSpec) error

	// PutModelCard создаёт или обновляет model card, привязывая её
	// к конкретной timestamped-версии модели.
	PutModelCard(ctx context.Context, cardName, cardKey, uniqueModelName string) error

	// CreateEndpointConfig создаёт конфигурацию эндпоинта.
	CreateEndpointConfig(ctx context.Context, configName string, m *domain.ModelSpec, variants []VariantConfig) error

	// EndpointState возвращает текущее состояние эндпоинта.
	EndpointState(ctx context.Context, endpointName string) (EndpointState, error)

	// CreateEndpoint создаёт эндпоинт из конфигурации.
	CreateEndpoint(ctx context.Context, endpointName, configName string) error

	// UpdateEndpoint переводит существующий эндпоинт на новую конфигурацию.
	UpdateEndpoint(ctx context.Context, endpointName, configName string) error

	// RegisterScaling регистрирует автоскейлинг эндпоинта по ёмкости модели.
	// Для async-эндпоинтов включает политику масштабирования с нуля.
	RegisterScaling(ctx context.Context, m *domain.ModelSpec) error

	// DeregisterScaling снимает автоскейлинг с варианта эндпоинта.
	// Обязателен перед обновлением эндпоинта.
	DeregisterScaling(ctx context.Context, endpointName, variantName string) error
}

// NewRegistry собирает реестр executor'ов со всеми видами задач.
func NewRegistry(cloud ControlPlane, dir params.Directory, logger *slog.Logger) *executor.Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := executor.NewRegistry()
	r.Register(domain.TaskModelDeploy, &ModelDeploy{cloud: cloud, dir: dir, logger: logger})
	r.Register(domain.TaskEndpointDeploy, &EndpointDeploy{cloud: cloud, dir: dir, logger: logger})
	r.Register(domain.TaskEndpointScalingAndParameterPublish, &ScalingPublish{cloud: cloud, dir: dir, logger: logger})
	r.Register(domain.TaskUpdateDependencyParameters, &DAGUpdate{dir: dir, logger: logger})
	return r
}
