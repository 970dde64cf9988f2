package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/shaiso/Cascade/internal/domain"
)

// Sim — control plane в памяти процесса.
//
// Используется в локальном режиме orchestrator'а и в тестах: полный
// жизненный цикл моделей и эндпоинтов без внешних API. Эндпоинт после
// CreateEndpoint/UpdateEndpoint проводит TransitionDelay в состоянии
// Creating/Updating и затем выходит в InService, что позволяет
// наблюдать retry-поведение EndpointDeploy и ScalingPublish.
type Sim struct {
	// TransitionDelay — длительность состояний Creating/Updating.
	// Ноль — эндпоинты выходят в InService мгновенно.
	TransitionDelay time.Duration

	mu        sync.Mutex
	models    map[string]bool
	cards     map[string]string
	configs   map[string]bool
	endpoints map[string]simEndpoint
	scaling   map[string]bool
}

type simEndpoint struct {
	state   EndpointState
	readyAt time.Time
}

// NewSim создаёт пустой симулятор control plane.
func NewSim() *Sim {
	return &Sim{
		models:    make(map[string]bool),
		cards:     make(map[string]string),
		configs:   make(map[string]bool),
		endpoints: make(map[string]simEndpoint),
		scaling:   make(map[string]bool),
	}
}

// CreateModel регистрирует модель под уникальным именем.
func (s *Sim) CreateModel(_ context.Context, uniqueName string, _ *domain.ModelSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[uniqueName] = true
	return nil
}

// PutModelCard привязывает model card к версии модели.
func (s *Sim) PutModelCard(_ context.Context, cardName, _, uniqueModelName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[cardName] = uniqueModelName
	return nil
}

// CreateEndpointConfig создаёт конфигурацию эндпоинта.
func (s *Sim) CreateEndpointConfig(_ context.Context, configName string, _ *domain.ModelSpec, _ []VariantConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[configName] = true
	return nil
}

// EndpointState возвращает состояние эндпоинта, продвигая
// Creating/Updating в InService после истечения TransitionDelay.
func (s *Sim) EndpointState(_ context.Context, endpointName string) (EndpointState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ep, ok := s.endpoints[endpointName]
	if !ok {
		return EndpointNotFound, nil
	}
	if (ep.state == EndpointCreating || ep.state == EndpointUpdating) && !time.Now().Before(ep.readyAt) {
		ep.state = EndpointInService
		s.endpoints[endpointName] = ep
	}
	return ep.state, nil
}

// CreateEndpoint создаёт эндпоинт из конфигурации.
func (s *Sim) CreateEndpoint(_ context.Context, endpointName, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[endpointName] = simEndpoint{
		state:   EndpointCreating,
		readyAt: time.Now().Add(s.TransitionDelay),
	}
	return nil
}

// UpdateEndpoint переводит эндпоинт на новую конфигурацию.
func (s *Sim) UpdateEndpoint(_ context.Context, endpointName, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[endpointName] = simEndpoint{
		state:   EndpointUpdating,
		readyAt: time.Now().Add(s.TransitionDelay),
	}
	return nil
}

// RegisterScaling регистрирует автоскейлинг эндпоинта.
func (s *Sim) RegisterScaling(_ context.Context, m *domain.ModelSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range m.Variants {
		s.scaling[m.EndpointName+"/"+v.VariantName] = true
	}
	return nil
}

// DeregisterScaling снимает автоскейлинг с варианта. Повторный
// вызов для незарегистрированного варианта безвреден.
func (s *Sim) DeregisterScaling(_ context.Context, endpointName, variantName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scaling, endpointName+"/"+variantName)
	return nil
}
