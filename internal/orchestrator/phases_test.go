package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/params"
	"github.com/shaiso/Cascade/internal/tasks"
)

// fakeCloud — fake control plane: эндпоинт становится InService
// сразу после создания или обновления.
type fakeCloud struct {
	mu    sync.Mutex
	calls int
	state map[string]tasks.EndpointState

	// failModels — модели, для которых CreateModel возвращает ошибку.
	failModels map[string]bool

	// block — CreateModel висит до отмены контекста.
	block bool
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		state:      make(map[string]tasks.EndpointState),
		failModels: make(map[string]bool),
	}
}

func (f *fakeCloud) record() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeCloud) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCloud) CreateModel(ctx context.Context, uniqueName string, m *domain.ModelSpec) error {
	f.record()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	failed := f.failModels[m.ModelName]
	f.mu.Unlock()
	if failed {
		return errors.New("image pull failed")
	}
	return nil
}

func (f *fakeCloud) PutModelCard(context.Context, string, string, string) error {
	f.record()
	return nil
}

func (f *fakeCloud) CreateEndpointConfig(context.Context, string, *domain.ModelSpec, []tasks.VariantConfig) error {
	f.record()
	return nil
}

func (f *fakeCloud) EndpointState(_ context.Context, endpointName string) (tasks.EndpointState, error) {
	f.record()
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.state[endpointName]; ok {
		return s, nil
	}
	return tasks.EndpointNotFound, nil
}

func (f *fakeCloud) CreateEndpoint(_ context.Context, endpointName, _ string) error {
	f.record()
	f.mu.Lock()
	f.state[endpointName] = tasks.EndpointInService
	f.mu.Unlock()
	return nil
}

func (f *fakeCloud) UpdateEndpoint(_ context.Context, endpointName, _ string) error {
	f.record()
	f.mu.Lock()
	f.state[endpointName] = tasks.EndpointInService
	f.mu.Unlock()
	return nil
}

func (f *fakeCloud) RegisterScaling(context.Context, *domain.ModelSpec) error {
	f.record()
	return nil
}

func (f *fakeCloud) DeregisterScaling(context.Context, string, string) error {
	f.record()
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestRunner собирает Runner над fake control plane и in-memory
// каталогом параметров.
func newTestRunner(cloud *fakeCloud, deadline time.Duration) (*Runner, *params.Memory) {
	dir := params.NewMemory()
	registry := tasks.NewRegistry(cloud, dir, discard())
	invoker := executor.NewInvoker(registry, executor.DefaultPolicies(), discard())
	pruner := tasks.NewDAGUpdate(dir, discard())
	return NewRunner(invoker, pruner, deadline, nil, discard()), dir
}

func model(name, dependencyKey string, endpointType domain.EndpointType) domain.ModelSpec {
	minCapacity := 1
	if endpointType == domain.EndpointAsync {
		minCapacity = 0
	}
	return domain.ModelSpec{
		ModelName:    name,
		EndpointName: name,
		EndpointType: endpointType,
		Containers: []domain.Container{
			{ContainerName: name + "-ctr", Image: "registry/" + name + ":latest", DependencyKey: dependencyKey},
		},
		Variants: []domain.Variant{
			{VariantName: "main", InstanceCount: 1, InstanceWeight: 1, InstanceType: "ml.m5.large"},
		},
		MinCapacity: minCapacity,
		MaxCapacity: 2,
	}
}

// pipelineSpec — четыре модели классического inference-конвейера.
func pipelineSpec() *domain.DeploymentSpec {
	return &domain.DeploymentSpec{
		Models: []domain.ModelSpec{
			model("data-preprocessing", "raw-data-dependent", domain.EndpointRealTime),
			model("feature-engineering", "data-preprocessing-dependent", domain.EndpointAsync),
			model("inference-1", "feature-engineering-dependent", domain.EndpointRealTime),
			model("inference-2", "feature-engineering-dependent", domain.EndpointRealTime),
		},
		ExecutionGraphs: []domain.ExecutionGraph{
			{
				"raw-data-dependent": {
					{EndpointName: "data-preprocessing", EndpointType: domain.EndpointRealTime},
				},
				"data-preprocessing-dependent": {
					{EndpointName: "feature-engineering", EndpointType: domain.EndpointAsync},
				},
				"feature-engineering-dependent": {
					{EndpointName: "inference-1", EndpointType: domain.EndpointRealTime},
					{EndpointName: "inference-2", EndpointType: domain.EndpointRealTime},
				},
			},
		},
	}
}

func TestRunner_PipelineSuccess(t *testing.T) {
	cloud := newFakeCloud()
	runner, dir := newTestRunner(cloud, time.Minute)

	report, err := runner.Execute(context.Background(), pipelineSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Status != domain.ReportSuccess {
		t.Fatalf("expected success, got %s (failed: %v)", report.Status, report.FailedBranches)
	}

	// 4 ветки фазы 1 + 3 ветки фазы 2.
	if len(report.Branches) != 7 {
		t.Fatalf("expected 7 branches, got %d", len(report.Branches))
	}
	if got := len(report.BranchesOf(domain.PhaseDeploy)); got != 4 {
		t.Errorf("expected 4 deploy branches, got %d", got)
	}
	if got := len(report.BranchesOf(domain.PhaseDAGUpdate)); got != 3 {
		t.Errorf("expected 3 dag-update branches, got %d", got)
	}

	for _, b := range report.Branches {
		if b.Status != domain.BranchStatusSucceeded {
			t.Errorf("branch %s: expected SUCCEEDED, got %s (%s)", b.BranchID, b.Status, b.Error)
		}
	}

	// Каждая ветка фазы 1 выполнила свою тройку задач по порядку.
	for _, b := range report.BranchesOf(domain.PhaseDeploy) {
		if len(b.Tasks) != 3 {
			t.Fatalf("branch %s: expected 3 tasks, got %d", b.BranchID, len(b.Tasks))
		}
		wantKinds := []domain.TaskKind{
			domain.TaskModelDeploy,
			domain.TaskEndpointDeploy,
			domain.TaskEndpointScalingAndParameterPublish,
		}
		for i, kind := range wantKinds {
			if b.Tasks[i].Kind != kind {
				t.Errorf("branch %s task %d: expected %s, got %s", b.BranchID, i, kind, b.Tasks[i].Kind)
			}
		}
	}

	// Параметры обнаружения опубликованы для каждого эндпоинта.
	wantParams := []string{
		"/raw-data-dependent/real-time/data-preprocessing",
		"/data-preprocessing-dependent/async/feature-engineering",
		"/feature-engineering-dependent/real-time/inference-1",
		"/feature-engineering-dependent/real-time/inference-2",
	}
	ctx := context.Background()
	for _, path := range wantParams {
		value, err := dir.Get(ctx, path)
		if err != nil {
			t.Errorf("parameter %s not published: %v", path, err)
			continue
		}
		if value == "" {
			t.Errorf("parameter %s has empty value", path)
		}
	}
}

func TestRunner_CycleRejectedBeforeAnyInvocation(t *testing.T) {
	cloud := newFakeCloud()
	runner, _ := newTestRunner(cloud, time.Minute)

	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{
			model("a", "b-dependent", domain.EndpointRealTime),
			model("b", "a-dependent", domain.EndpointRealTime),
		},
		ExecutionGraphs: []domain.ExecutionGraph{
			{
				"a-dependent": {{EndpointName: "b", EndpointType: domain.EndpointRealTime}},
				"b-dependent": {{EndpointName: "a", EndpointType: domain.EndpointRealTime}},
			},
		},
	}

	report, err := runner.Execute(context.Background(), spec)
	if !errors.Is(err, engine.ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	if report != nil {
		t.Error("no report expected for pre-execution failure")
	}
	if got := cloud.callCount(); got != 0 {
		t.Errorf("cycle must be rejected before any task invocation, got %d calls", got)
	}
}

func TestRunner_ValidationRejectedBeforeAnyInvocation(t *testing.T) {
	cloud := newFakeCloud()
	runner, _ := newTestRunner(cloud, time.Minute)

	report, err := runner.Execute(context.Background(), &domain.DeploymentSpec{})
	if !errors.Is(err, engine.ErrEmptyModels) {
		t.Fatalf("expected ErrEmptyModels, got %v", err)
	}
	if report != nil {
		t.Error("no report expected for pre-execution failure")
	}
	if got := cloud.callCount(); got != 0 {
		t.Errorf("invalid document must not trigger task invocations, got %d calls", got)
	}
}

func TestRunner_BranchFailureDoesNotCancelSiblings(t *testing.T) {
	cloud := newFakeCloud()
	cloud.failModels["feature-engineering"] = true
	runner, _ := newTestRunner(cloud, time.Minute)

	report, err := runner.Execute(context.Background(), pipelineSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Status != domain.ReportPartialFailure {
		t.Fatalf("expected partial_failure, got %s", report.Status)
	}

	var failed *domain.BranchResult
	succeeded := 0
	for i := range report.Branches {
		b := &report.Branches[i]
		if b.Phase != domain.PhaseDeploy {
			continue
		}
		if b.Subject == "feature-engineering" {
			failed = b
			continue
		}
		if b.Status == domain.BranchStatusSucceeded {
			succeeded++
		}
	}

	if failed == nil {
		t.Fatal("no branch for feature-engineering")
	}
	if failed.Status != domain.BranchStatusFailed {
		t.Errorf("expected FAILED, got %s", failed.Status)
	}

	// ModelDeploy не повторяется: ровно одна попытка.
	if failed.Tasks[0].Status != domain.TaskStatusFailed || failed.Tasks[0].Attempts != 1 {
		t.Errorf("expected single failed attempt, got %s after %d attempts",
			failed.Tasks[0].Status, failed.Tasks[0].Attempts)
	}

	// Остальные задачи ветки пропущены.
	for _, task := range failed.Tasks[1:] {
		if task.Status != domain.TaskStatusSkipped {
			t.Errorf("task %s: expected SKIPPED, got %s", task.Kind, task.Status)
		}
	}

	// Соседние ветки дошли до конца.
	if succeeded != 3 {
		t.Errorf("expected 3 sibling branches to succeed, got %d", succeeded)
	}
}

func TestRunner_DeadlineCancelsInFlightBranches(t *testing.T) {
	cloud := newFakeCloud()
	cloud.block = true
	runner, _ := newTestRunner(cloud, 50*time.Millisecond)

	report, err := runner.Execute(context.Background(), pipelineSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Status != domain.ReportCancelled {
		t.Fatalf("expected cancelled, got %s", report.Status)
	}

	for _, b := range report.BranchesOf(domain.PhaseDeploy) {
		if b.Status != domain.BranchStatusCancelled {
			t.Errorf("branch %s: expected CANCELLED, got %s", b.BranchID, b.Status)
		}
	}
}
