package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/telemetry"
)

// DefaultDeadline — дедлайн одного run workflow.
const DefaultDeadline = 180 * time.Minute

// deployTaskOrder — фиксированная последовательность задач ветки фазы 1.
var deployTaskOrder = []domain.TaskKind{
	domain.TaskModelDeploy,
	domain.TaskEndpointDeploy,
	domain.TaskEndpointScalingAndParameterPublish,
}

// StalePruner вычищает устаревшие параметры группы после обновления
// её edges. Реализуется tasks.DAGUpdate.
type StalePruner interface {
	PruneStale(ctx context.Context, group *engine.Group) error
}

// Runner выполняет двухфазный workflow одного run.
//
// Runner не знает про БД и очереди: на вход документ, на выход отчёт.
// Оркестратор оборачивает его жизненным циклом run.
type Runner struct {
	invoker  *executor.Invoker
	pruner   StalePruner
	deadline time.Duration
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// NewRunner создаёт Runner. Нулевой deadline заменяется DefaultDeadline.
func NewRunner(invoker *executor.Invoker, pruner StalePruner, deadline time.Duration, metrics *telemetry.Metrics, logger *slog.Logger) *Runner {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		invoker:  invoker,
		pruner:   pruner,
		deadline: deadline,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute прогоняет документ через обе фазы workflow.
//
// Ошибки до начала выполнения (валидация, цикл в графе) возвращаются
// как error без отчёта: ни одна задача при этом не вызывается и никаких
// частичных side effects не остаётся. После старта фазы 1 результат
// всегда структурный отчёт.
func (r *Runner) Execute(ctx context.Context, spec *domain.DeploymentSpec) (*domain.Report, error) {
	if err := engine.Validate(spec); err != nil {
		return nil, err
	}
	plan, err := engine.Resolve(spec)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	r.logger.Info("workflow started",
		"models", len(spec.Models),
		"dependency_groups", len(plan.Groups),
		"deadline", r.deadline,
	)

	branches := r.fanOutDeploy(runCtx, spec)

	// Жёсткий барьер: фаза 2 стартует только после терминального
	// статуса каждой ветки фазы 1, независимо от их исходов.
	branches = append(branches, r.fanOutUpdate(runCtx, spec, plan)...)

	report := aggregate(branches)
	r.logger.Info("workflow finished",
		"status", report.Status,
		"branches", len(report.Branches),
		"failed_branches", len(report.FailedBranches),
	)
	return report, nil
}

// fanOutDeploy запускает по ветке на модель и ждёт их все.
func (r *Runner) fanOutDeploy(ctx context.Context, spec *domain.DeploymentSpec) []domain.BranchResult {
	branches := make([]domain.BranchResult, len(spec.Models))

	var wg sync.WaitGroup
	for i := range spec.Models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			branches[i] = r.runDeployBranch(ctx, spec, &spec.Models[i])
		}(i)
	}
	wg.Wait()

	return branches
}

// runDeployBranch выполняет последовательность задач одной модели.
// После первой терминальной ошибки остальные задачи ветки помечаются
// SKIPPED: внутри ветки порядок строгий.
func (r *Runner) runDeployBranch(ctx context.Context, spec *domain.DeploymentSpec, model *domain.ModelSpec) domain.BranchResult {
	branch := domain.BranchResult{
		BranchID:  "deploy/" + model.ModelName,
		Phase:     domain.PhaseDeploy,
		Subject:   model.ModelName,
		Status:    domain.BranchStatusRunning,
		StartedAt: time.Now(),
	}

	r.logger.Info("branch started", "branch", branch.BranchID)

	for _, kind := range deployTaskOrder {
		if branch.Status != domain.BranchStatusRunning {
			branch.Tasks = append(branch.Tasks, domain.TaskResult{
				Kind:   kind,
				Status: domain.TaskStatusSkipped,
			})
			continue
		}

		result := r.invoker.Run(ctx, &executor.Task{
			Kind:  kind,
			Spec:  spec,
			Model: model,
		})
		branch.Tasks = append(branch.Tasks, result)
		r.metrics.ObserveTask(result)

		switch result.Status {
		case domain.TaskStatusCancelled:
			branch.Status = domain.BranchStatusCancelled
			branch.Error = result.Error
		case domain.TaskStatusFailed:
			branch.Status = domain.BranchStatusFailed
			branch.Error = result.Error
		}
	}

	if branch.Status == domain.BranchStatusRunning {
		branch.Status = domain.BranchStatusSucceeded
	}
	branch.FinishedAt = time.Now()

	r.metrics.ObserveBranch(branch)
	r.logger.Info("branch finished",
		"branch", branch.BranchID,
		"status", branch.Status,
		"duration", branch.Duration(),
	)
	return branch
}

// fanOutUpdate запускает по ветке на группу зависимостей и ждёт их все.
func (r *Runner) fanOutUpdate(ctx context.Context, spec *domain.DeploymentSpec, plan *engine.Plan) []domain.BranchResult {
	branches := make([]domain.BranchResult, len(plan.Groups))

	var wg sync.WaitGroup
	for i := range plan.Groups {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			branches[i] = r.runUpdateBranch(ctx, spec, &plan.Groups[i])
		}(i)
	}
	wg.Wait()

	return branches
}

// runUpdateBranch актуализирует параметры одной группы зависимостей.
//
// Только эта ветка пишет параметры под префиксом своего ключа, поэтому
// конкурентных записей одного логического ключа не бывает. Edges
// обрабатываются в порядке документа.
func (r *Runner) runUpdateBranch(ctx context.Context, spec *domain.DeploymentSpec, group *engine.Group) domain.BranchResult {
	branch := domain.BranchResult{
		BranchID:  "dag-update/" + group.Key,
		Phase:     domain.PhaseDAGUpdate,
		Subject:   group.Key,
		Status:    domain.BranchStatusRunning,
		StartedAt: time.Now(),
	}

	r.logger.Info("branch started", "branch", branch.BranchID, "edges", len(group.Edges))

	for i := range group.Edges {
		if branch.Status != domain.BranchStatusRunning {
			branch.Tasks = append(branch.Tasks, domain.TaskResult{
				Kind:   domain.TaskUpdateDependencyParameters,
				Status: domain.TaskStatusSkipped,
			})
			continue
		}

		result := r.invoker.Run(ctx, &executor.Task{
			Kind:  domain.TaskUpdateDependencyParameters,
			Spec:  spec,
			Group: group,
			Edge:  &group.Edges[i],
		})
		branch.Tasks = append(branch.Tasks, result)
		r.metrics.ObserveTask(result)

		switch result.Status {
		case domain.TaskStatusCancelled:
			branch.Status = domain.BranchStatusCancelled
			branch.Error = result.Error
		case domain.TaskStatusFailed:
			branch.Status = domain.BranchStatusFailed
			branch.Error = result.Error
		}
	}

	// Устаревшие параметры вычищаются только когда все edges группы
	// обновлены: иначе можно удалить параметр живого эндпоинта.
	if branch.Status == domain.BranchStatusRunning && r.pruner != nil {
		if err := r.pruner.PruneStale(ctx, group); err != nil {
			branch.Status = domain.BranchStatusFailed
			branch.Error = err.Error()
		}
	}

	if branch.Status == domain.BranchStatusRunning {
		branch.Status = domain.BranchStatusSucceeded
	}
	branch.FinishedAt = time.Now()

	r.metrics.ObserveBranch(branch)
	r.logger.Info("branch finished",
		"branch", branch.BranchID,
		"status", branch.Status,
		"duration", branch.Duration(),
	)
	return branch
}
