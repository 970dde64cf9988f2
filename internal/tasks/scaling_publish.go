package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/params"
)

// ScalingPublish публикует параметры обнаружения эндпоинта
// и регистрирует его автоскейлинг.
//
// Задача выполняется сразу после EndpointDeploy, когда эндпоинт может
// ещё выходить в InService. До готовности эндпоинта возвращается
// ErrEndpointNotReady, и retry-политика повторяет вызов.
type ScalingPublish struct {
	cloud  ControlPlane
	dir    params.Directory
	logger *slog.Logger
}

// Execute выполняет публикацию параметров и регистрацию скейлинга.
func (e *ScalingPublish) Execute(ctx context.Context, task *executor.Task) error {
	if task.Model == nil {
		return ErrMissingModel
	}
	m := task.Model

	state, err := e.cloud.EndpointState(ctx, m.EndpointName)
	if err != nil {
		return fmt.Errorf("describe endpoint %s: %w", m.EndpointName, err)
	}
	if state != EndpointInService {
		return fmt.Errorf("%w: %s is %s", ErrEndpointNotReady, m.EndpointName, state)
	}

	for _, c := range m.Containers {
		// Контейнеры вне графа выполнения не публикуются.
		if c.DependencyKey == domain.DependencyNone {
			continue
		}

		path := params.EndpointPath(c.DependencyKey, m.EndpointType, m.EndpointName, c.ContainerName, m.IsMultiContainer())
		if _, err := e.dir.Get(ctx, path); err == nil {
			continue
		} else if !errors.Is(err, params.ErrParamNotFound) {
			return fmt.Errorf("check parameter %s: %w", path, err)
		}

		e.logger.Info("publishing endpoint parameter",
			"endpoint", m.EndpointName,
			"path", path,
		)
		if err := e.dir.Put(ctx, path, m.EndpointName); err != nil {
			return fmt.Errorf("put parameter %s: %w", path, err)
		}
	}

	if err := e.cloud.RegisterScaling(ctx, m); err != nil {
		return fmt.Errorf("register scaling %s: %w", m.EndpointName, err)
	}

	e.logger.Info("endpoint scaling registered",
		"endpoint", m.EndpointName,
		"min_capacity", m.MinCapacity,
		"max_capacity", m.MaxCapacity,
	)
	return nil
}
