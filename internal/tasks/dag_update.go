package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Cascade/internal/engine"
	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/params"
)

// DAGUpdate актуализирует каталог параметров группы зависимостей.
//
// Execute обрабатывает один edge группы: гарантирует параметр
// обнаружения для него. PruneStale вызывается веткой после всех
// edges и удаляет параметры эндпоинтов, убранных из графа.
type DAGUpdate struct {
	dir    params.Directory
	logger *slog.Logger
}

// NewDAGUpdate создаёт executor обновления зависимостей.
func NewDAGUpdate(dir params.Directory, logger *slog.Logger) *DAGUpdate {
	if logger == nil {
		logger = slog.Default()
	}
	return &DAGUpdate{dir: dir, logger: logger}
}

// Execute гарантирует параметр обнаружения для edge задачи.
func (e *DAGUpdate) Execute(ctx context.Context, task *executor.Task) error {
	if task.Group == nil || task.Edge == nil {
		return ErrMissingEdge
	}

	path := params.EdgePath(task.Group.Key, *task.Edge)

	if _, err := e.dir.Get(ctx, path); err == nil {
		return nil
	} else if !errors.Is(err, params.ErrParamNotFound) {
		return fmt.Errorf("check parameter %s: %w", path, err)
	}

	e.logger.Info("restoring dependency parameter",
		"dependency_key", task.Group.Key,
		"path", path,
	)
	if err := e.dir.Put(ctx, path, task.Edge.EndpointName); err != nil {
		return fmt.Errorf("put parameter %s: %w", path, err)
	}
	return nil
}

// PruneStale удаляет параметры группы, не соответствующие ни одному
// edge текущего графа. Вычищает эндпоинты, удалённые из документа.
func (e *DAGUpdate) PruneStale(ctx context.Context, group *engine.Group) error {
	expected := make(map[string]bool, len(group.Edges))
	for _, edge := range group.Edges {
		expected[params.EdgePath(group.Key, edge)] = true
	}

	existing, err := e.dir.List(ctx, params.GroupPrefix(group.Key))
	if err != nil {
		return fmt.Errorf("list parameters %s: %w", group.Key, err)
	}

	for _, p := range existing {
		if expected[p.Path] {
			continue
		}

		e.logger.Info("removing stale dependency parameter",
			"dependency_key", group.Key,
			"path", p.Path,
		)
		if err := e.dir.Delete(ctx, p.Path); err != nil && !errors.Is(err, params.ErrParamNotFound) {
			return fmt.Errorf("delete parameter %s: %w", p.Path, err)
		}
	}
	return nil
}
