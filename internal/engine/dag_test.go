package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/Cascade/internal/domain"
)

// pipelineSpec строит документ классического inference-конвейера:
// data-preprocessing → feature-engineering → {inference-1, inference-2}.
func pipelineSpec() *domain.DeploymentSpec {
	return &domain.DeploymentSpec{
		Models: []domain.ModelSpec{
			realTimeModel("data-preprocessing", "raw-data-dependent"),
			asyncModel("feature-engineering", "data-preprocessing-dependent"),
			realTimeModel("inference-1", "feature-engineering-dependent"),
			realTimeModel("inference-2", "feature-engineering-dependent"),
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

func realTimeModel(name, dependencyKey string) domain.ModelSpec {
	return domain.ModelSpec{
		ModelName:    name,
		EndpointName: name,
		EndpointType: domain.EndpointRealTime,
		Containers: []domain.Container{
			{ContainerName: name + "-ctr", Image: "registry/" + name + ":latest", DependencyKey: dependencyKey},
		},
		Variants: []domain.Variant{
			{VariantName: "main", InstanceCount: 1, InstanceWeight: 1, InstanceType: "ml.m5.large", MaxConcurrency: 4},
		},
		MinCapacity: 1,
		MaxCapacity: 2,
	}
}

func asyncModel(name, dependencyKey string) domain.ModelSpec {
	m := realTimeModel(name, dependencyKey)
	m.EndpointType = domain.EndpointAsync
	m.MinCapacity = 0
	return m
}

func TestResolve_Pipeline(t *testing.T) {
	spec := pipelineSpec()

	plan, err := Resolve(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKeys := []string{
		"raw-data-dependent",
		"data-preprocessing-dependent",
		"feature-engineering-dependent",
	}
	if !reflect.DeepEqual(plan.Keys(), wantKeys) {
		t.Errorf("expected group order %v, got %v", wantKeys, plan.Keys())
	}

	// Корневая группа: "raw-data" не является эндпоинтом.
	root := plan.Group("raw-data-dependent")
	if !root.IsRoot() {
		t.Errorf("raw-data-dependent should be a root group, producer %q", root.Producer)
	}

	// Производители остальных групп.
	if p := plan.Group("data-preprocessing-dependent").Producer; p != "data-preprocessing" {
		t.Errorf("expected producer data-preprocessing, got %q", p)
	}
	if p := plan.Group("feature-engineering-dependent").Producer; p != "feature-engineering" {
		t.Errorf("expected producer feature-engineering, got %q", p)
	}

	// Edges группы сохраняют порядок документа: inference-1 раньше inference-2.
	edges := plan.Group("feature-engineering-dependent").Edges
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if edges[0].EndpointName != "inference-1" || edges[1].EndpointName != "inference-2" {
		t.Errorf("unexpected edge order: %s, %s", edges[0].EndpointName, edges[1].EndpointName)
	}
}

func TestResolve_UpstreamBeforeDownstream(t *testing.T) {
	spec := pipelineSpec()

	plan, err := Resolve(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Группа никогда не стоит раньше группы, под которой её производитель
	// объявлен edge'ом.
	position := make(map[string]int, len(plan.Groups))
	for i, g := range plan.Groups {
		position[g.Key] = i
	}

	for _, g := range plan.Groups {
		if g.IsRoot() {
			continue
		}
		for _, upstream := range plan.Groups {
			for _, e := range upstream.Edges {
				if e.EndpointName == g.Producer && position[upstream.Key] >= position[g.Key] {
					t.Errorf("group %s (pos %d) must come after upstream %s (pos %d)",
						g.Key, position[g.Key], upstream.Key, position[upstream.Key])
				}
			}
		}
	}
}

func TestResolve_Deterministic(t *testing.T) {
	spec := pipelineSpec()

	first, err := Resolve(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Resolve(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("resolving the same document twice must yield identical plans")
	}
}

func TestResolve_IndependentRootsSorted(t *testing.T) {
	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{
			realTimeModel("zeta", "z-input-dependent"),
			realTimeModel("alpha", "a-input-dependent"),
		},
		ExecutionGraphs: []domain.ExecutionGraph{
			{
				"z-input-dependent": {{EndpointName: "zeta", EndpointType: domain.EndpointRealTime}},
				"a-input-dependent": {{EndpointName: "alpha", EndpointType: domain.EndpointRealTime}},
			},
		},
	}

	plan, err := Resolve(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Независимые корни упорядочены лексикографически.
	wantKeys := []string{"a-input-dependent", "z-input-dependent"}
	if !reflect.DeepEqual(plan.Keys(), wantKeys) {
		t.Errorf("expected %v, got %v", wantKeys, plan.Keys())
	}
}

func TestResolve_Cycle(t *testing.T) {
	// a → b → a через производящие эндпоинты.
	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{
			realTimeModel("a", "b-dependent"),
			realTimeModel("b", "a-dependent"),
		},
		ExecutionGraphs: []domain.ExecutionGraph{
			{
				"a-dependent": {{EndpointName: "b", EndpointType: domain.EndpointRealTime}},
				"b-dependent": {{EndpointName: "a", EndpointType: domain.EndpointRealTime}},
			},
		},
	}

	_, err := Resolve(spec)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}

	// Ошибка называет участников цикла.
	var cycleErr *CyclicDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CyclicDependencyError, got %T", err)
	}
	if len(cycleErr.Keys) < 3 {
		t.Errorf("cycle should name its members, got %v", cycleErr.Keys)
	}
}

func TestResolve_SelfCycle(t *testing.T) {
	// Ключ ссылается сам на себя: edge "a" под ключом "a-dependent".
	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{
			realTimeModel("a", "a-dependent"),
		},
		ExecutionGraphs: []domain.ExecutionGraph{
			{
				"a-dependent": {{EndpointName: "a", EndpointType: domain.EndpointRealTime}},
			},
		},
	}

	_, err := Resolve(spec)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}
