package executor

import (
	"context"
	"fmt"

	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
)

// Task — единица работы, передаваемая executor'у.
//
// Задачи фазы развёртывания несут Model, задачи фазы обновления
// зависимостей — Group. Spec заполнен всегда.
type Task struct {
	// Kind — вид задачи.
	Kind domain.TaskKind

	// Spec — документ развёртывания, в рамках которого идёт run.
	Spec *domain.DeploymentSpec

	// Model — модель ветки (фаза развёртывания), иначе nil.
	Model *domain.ModelSpec

	// Group — группа зависимостей ветки (фаза обновления DAG), иначе nil.
	Group *engine.Group

	// Edge — конкретный edge группы для UpdateDependencyParameters, иначе nil.
	Edge *domain.Edge
}

// Executor — интерфейс выполнения одного вида задачи.
//
// Реализации: tasks.ModelDeploy, tasks.EndpointDeploy,
// tasks.ScalingPublish, tasks.DAGUpdate.
//
// Execute возвращает ошибку и для переходных сбоев: решает,
// повторять ли вызов, не executor, а Invoker по своей политике.
type Executor interface {
	Execute(ctx context.Context, task *Task) error
}

// Registry — реестр executor'ов по виду задачи.
type Registry struct {
	executors map[domain.TaskKind]Executor
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[domain.TaskKind]Executor)}
}

// Register добавляет executor для вида задачи.
func (r *Registry) Register(kind domain.TaskKind, executor Executor) {
	r.executors[kind] = executor
}

// Get возвращает executor для вида задачи.
func (r *Registry) Get(kind domain.TaskKind) (Executor, error) {
	executor, ok := r.executors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskKind, kind)
	}
	return executor, nil
}
