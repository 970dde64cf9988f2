package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/params"
)

// EndpointDeploy создаёт или обновляет эндпоинт модели.
//
// Конфигурация эндпоинта создаётся под уникальным timestamped-именем
// и ссылается на последнюю версию модели из каталога параметров.
// Эндпоинт в состоянии Creating или Updating — переходная ошибка:
// retry-политика задачи дождётся, пока он освободится.
type EndpointDeploy struct {
	cloud  ControlPlane
	dir    params.Directory
	logger *slog.Logger

	now func() time.Time
}

// Execute выполняет развёртывание эндпоинта.
func (e *EndpointDeploy) Execute(ctx context.Context, task *executor.Task) error {
	if task.Model == nil {
		return ErrMissingModel
	}
	m := task.Model

	latest, err := e.dir.Get(ctx, params.LatestModelPath(m.ModelName))
	if err != nil {
		if errors.Is(err, params.ErrParamNotFound) {
			return fmt.Errorf("%w: %s", ErrLatestModelMissing, m.ModelName)
		}
		return fmt.Errorf("get latest model pointer: %w", err)
	}

	nowFn := e.now
	if nowFn == nil {
		nowFn = time.Now
	}
	configName := m.EndpointName + "-" + nowFn().UTC().Format(uniqueNameLayout)

	variants := make([]VariantConfig, 0, len(m.Variants))
	for _, v := range m.Variants {
		variants = append(variants, VariantConfig{
			VariantName:    v.VariantName,
			ModelName:      latest,
			InstanceCount:  v.InstanceCount,
			InstanceWeight: v.InstanceWeight,
			InstanceType:   v.InstanceType,
		})
	}

	if err := e.cloud.CreateEndpointConfig(ctx, configName, m, variants); err != nil {
		return fmt.Errorf("create endpoint config %s: %w", configName, err)
	}

	state, err := e.cloud.EndpointState(ctx, m.EndpointName)
	if err != nil {
		return fmt.Errorf("describe endpoint %s: %w", m.EndpointName, err)
	}

	switch state {
	case EndpointNotFound:
		e.logger.Info("creating endpoint", "endpoint", m.EndpointName, "config", configName)
		if err := e.cloud.CreateEndpoint(ctx, m.EndpointName, configName); err != nil {
			return fmt.Errorf("create endpoint %s: %w", m.EndpointName, err)
		}
		return nil

	case EndpointInService:
		// Перед обновлением снимаем автоскейлинг: control plane
		// отклоняет update эндпоинта с активными scalable targets.
		for _, v := range m.Variants {
			if err := e.cloud.DeregisterScaling(ctx, m.EndpointName, v.VariantName); err != nil {
				return fmt.Errorf("deregister scaling %s/%s: %w", m.EndpointName, v.VariantName, err)
			}
		}

		e.logger.Info("updating endpoint", "endpoint", m.EndpointName, "config", configName)
		if err := e.cloud.UpdateEndpoint(ctx, m.EndpointName, configName); err != nil {
			return fmt.Errorf("update endpoint %s: %w", m.EndpointName, err)
		}
		return nil

	case EndpointCreating, EndpointUpdating:
		return fmt.Errorf("%w: %s is %s", ErrEndpointNotReady, m.EndpointName, state)

	default:
		return fmt.Errorf("%w: %s is %s", ErrEndpointBroken, m.EndpointName, state)
	}
}
