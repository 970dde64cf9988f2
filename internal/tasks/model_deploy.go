package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/params"
)

// uniqueNameLayout — формат временной метки в уникальных именах
// моделей и конфигураций эндпоинтов.
const uniqueNameLayout = "2006-01-02-15-04-05"

// ModelDeploy регистрирует модель под timestamped-именем.
//
// После регистрации обновляет указатель последней версии в каталоге
// параметров: EndpointDeploy находит по нему конкретное имя модели.
type ModelDeploy struct {
	cloud  ControlPlane
	dir    params.Directory
	logger *slog.Logger

	// now подменяется в тестах.
	now func() time.Time
}

// Execute выполняет регистрацию модели.
func (e *ModelDeploy) Execute(ctx context.Context, task *executor.Task) error {
	if task.Model == nil {
		return ErrMissingModel
	}
	m := task.Model

	nowFn := e.now
	if nowFn == nil {
		nowFn = time.Now
	}
	uniqueName := m.ModelName + "-" + nowFn().UTC().Format(uniqueNameLayout)

	if err := e.cloud.CreateModel(ctx, uniqueName, m); err != nil {
		return fmt.Errorf("create model %s: %w", uniqueName, err)
	}

	e.logger.Info("model created",
		"model", m.ModelName,
		"unique_name", uniqueName,
	)

	if m.ModelCardKey != "" {
		if err := e.cloud.PutModelCard(ctx, m.ModelName, m.ModelCardKey, uniqueName); err != nil {
			return fmt.Errorf("put model card %s: %w", m.ModelName, err)
		}
	}

	if err := e.dir.Put(ctx, params.LatestModelPath(m.ModelName), uniqueName); err != nil {
		return fmt.Errorf("update latest model pointer: %w", err)
	}

	return nil
}
