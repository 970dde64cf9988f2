package tasks

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/params"
)

// fakeCloud — fake control plane, фиксирующий вызовы.
type fakeCloud struct {
	state EndpointState

	createdModels    []string
	modelCards       []string
	endpointConfigs  []string
	createdEndpoints []string
	updatedEndpoints []string
	scalingRegs      []string
	scalingDeregs    []string
}

func (f *fakeCloud) CreateModel(_ context.Context, uniqueName string, _ *domain.ModelSpec) error {
	f.createdModels = append(f.createdModels, uniqueName)
	return nil
}

func (f *fakeCloud) PutModelCard(_ context.Context, cardName, _, _ string) error {
	f.modelCards = append(f.modelCards, cardName)
	return nil
}

func (f *fakeCloud) CreateEndpointConfig(_ context.Context, configName string, _ *domain.ModelSpec, _ []VariantConfig) error {
	f.endpointConfigs = append(f.endpointConfigs, configName)
	return nil
}

func (f *fakeCloud) EndpointState(_ context.Context, _ string) (EndpointState, error) {
	return f.state, nil
}

func (f *fakeCloud) CreateEndpoint(_ context.Context, endpointName, _ string) error {
	f.createdEndpoints = append(f.createdEndpoints, endpointName)
	return nil
}

func (f *fakeCloud) UpdateEndpoint(_ context.Context, endpointName, _ string) error {
	f.updatedEndpoints = append(f.updatedEndpoints, endpointName)
	return nil
}

func (f *fakeCloud) RegisterScaling(_ context.Context, m *domain.ModelSpec) error {
	f.scalingRegs = append(f.scalingRegs, m.EndpointName)
	return nil
}

func (f *fakeCloud) DeregisterScaling(_ context.Context, endpointName, variantName string) error {
	f.scalingDeregs = append(f.scalingDeregs, endpointName+"/"+variantName)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func testModel() *domain.ModelSpec {
	return &domain.ModelSpec{
		ModelName:    "scorer",
		ModelCardKey: "cards/scorer.json",
		EndpointName: "scorer",
		EndpointType: domain.EndpointRealTime,
		Containers: []domain.Container{
			{ContainerName: "scorer-ctr", Image: "registry/scorer:1", DependencyKey: "input-dependent"},
		},
		Variants: []domain.Variant{
			{VariantName: "main", InstanceCount: 1, InstanceWeight: 1, InstanceType: "ml.m5.large"},
		},
		MinCapacity: 1,
		MaxCapacity: 3,
	}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestModelDeploy(t *testing.T) {
	ctx := context.Background()
	cloud := &fakeCloud{}
	dir := params.NewMemory()

	deploy := &ModelDeploy{cloud: cloud, dir: dir, logger: discard(), now: fixedNow}
	if err := deploy.Execute(ctx, &executor.Task{Model: testModel()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantUnique := "scorer-2024-05-01-12-00-00"
	if len(cloud.createdModels) != 1 || cloud.createdModels[0] != wantUnique {
		t.Errorf("expected created model %q, got %v", wantUnique, cloud.createdModels)
	}
	if len(cloud.modelCards) != 1 || cloud.modelCards[0] != "scorer" {
		t.Errorf("expected model card for scorer, got %v", cloud.modelCards)
	}

	latest, err := dir.Get(ctx, params.LatestModelPath("scorer"))
	if err != nil {
		t.Fatalf("latest pointer: %v", err)
	}
	if latest != wantUnique {
		t.Errorf("expected pointer %q, got %q", wantUnique, latest)
	}
}

func TestModelDeploy_NoModelCard(t *testing.T) {
	cloud := &fakeCloud{}
	m := testModel()
	m.ModelCardKey = ""

	deploy := &ModelDeploy{cloud: cloud, dir: params.NewMemory(), logger: discard(), now: fixedNow}
	if err := deploy.Execute(context.Background(), &executor.Task{Model: m}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cloud.modelCards) != 0 {
		t.Errorf("model card must not be created without a card key, got %v", cloud.modelCards)
	}
}

func TestEndpointDeploy_CreatesWhenMissing(t *testing.T) {
	ctx := context.Background()
	cloud := &fakeCloud{state: EndpointNotFound}
	dir := params.NewMemory()
	_ = dir.Put(ctx, params.LatestModelPath("scorer"), "scorer-2024-05-01-12-00-00")

	deploy := &EndpointDeploy{cloud: cloud, dir: dir, logger: discard(), now: fixedNow}
	if err := deploy.Execute(ctx, &executor.Task{Model: testModel()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cloud.endpointConfigs) != 1 || cloud.endpointConfigs[0] != "scorer-2024-05-01-12-00-00" {
		t.Errorf("unexpected endpoint configs: %v", cloud.endpointConfigs)
	}
	if len(cloud.createdEndpoints) != 1 || cloud.createdEndpoints[0] != "scorer" {
		t.Errorf("expected endpoint scorer created, got %v", cloud.createdEndpoints)
	}
	if len(cloud.updatedEndpoints) != 0 {
		t.Errorf("new endpoint must not be updated, got %v", cloud.updatedEndpoints)
	}
}

func TestEndpointDeploy_UpdatesInService(t *testing.T) {
	ctx := context.Background()
	cloud := &fakeCloud{state: EndpointInService}
	dir := params.NewMemory()
	_ = dir.Put(ctx, params.LatestModelPath("scorer"), "scorer-2024-05-01-12-00-00")

	deploy := &EndpointDeploy{cloud: cloud, dir: dir, logger: discard(), now: fixedNow}
	if err := deploy.Execute(ctx, &executor.Task{Model: testModel()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cloud.updatedEndpoints) != 1 {
		t.Fatalf("expected endpoint update, got %v", cloud.updatedEndpoints)
	}
	// Перед обновлением скейлинг снимается.
	if len(cloud.scalingDeregs) != 1 || cloud.scalingDeregs[0] != "scorer/main" {
		t.Errorf("expected scaling deregistered for scorer/main, got %v", cloud.scalingDeregs)
	}
}

func TestEndpointDeploy_TransientWhileBusy(t *testing.T) {
	ctx := context.Background()
	dir := params.NewMemory()
	_ = dir.Put(ctx, params.LatestModelPath("scorer"), "scorer-2024-05-01-12-00-00")

	for _, state := range []EndpointState{EndpointCreating, EndpointUpdating} {
		deploy := &EndpointDeploy{cloud: &fakeCloud{state: state}, dir: dir, logger: discard(), now: fixedNow}
		err := deploy.Execute(ctx, &executor.Task{Model: testModel()})
		if !errors.Is(err, ErrEndpointNotReady) {
			t.Errorf("state %s: expected ErrEndpointNotReady, got %v", state, err)
		}
	}
}

func TestEndpointDeploy_MissingLatestPointer(t *testing.T) {
	deploy := &EndpointDeploy{cloud: &fakeCloud{state: EndpointNotFound}, dir: params.NewMemory(), logger: discard(), now: fixedNow}
	err := deploy.Execute(context.Background(), &executor.Task{Model: testModel()})
	if !errors.Is(err, ErrLatestModelMissing) {
		t.Errorf("expected ErrLatestModelMissing, got %v", err)
	}
}

func TestScalingPublish_WaitsForInService(t *testing.T) {
	publish := &ScalingPublish{cloud: &fakeCloud{state: EndpointCreating}, dir: params.NewMemory(), logger: discard()}
	err := publish.Execute(context.Background(), &executor.Task{Model: testModel()})
	if !errors.Is(err, ErrEndpointNotReady) {
		t.Errorf("expected ErrEndpointNotReady, got %v", err)
	}
}

func TestScalingPublish_PublishesAndRegisters(t *testing.T) {
	ctx := context.Background()
	cloud := &fakeCloud{state: EndpointInService}
	dir := params.NewMemory()

	m := testModel()
	m.Containers = append(m.Containers, domain.Container{
		ContainerName: "aux-ctr", Image: "registry/aux:1", DependencyKey: domain.DependencyNone,
	})

	publish := &ScalingPublish{cloud: cloud, dir: dir, logger: discard()}
	if err := publish.Execute(ctx, &executor.Task{Model: m}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Два контейнера, но второй вне графа: публикуется один параметр.
	// Multi-container real-time адресуется по имени контейнера.
	published, err := dir.List(ctx, params.GroupPrefix("input-dependent"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(published))
	}
	want := "/input-dependent/real-time/scorer/scorer-ctr"
	if published[0].Path != want || published[0].Value != "scorer" {
		t.Errorf("expected %s=scorer, got %s=%s", want, published[0].Path, published[0].Value)
	}

	if len(cloud.scalingRegs) != 1 || cloud.scalingRegs[0] != "scorer" {
		t.Errorf("expected scaling registered for scorer, got %v", cloud.scalingRegs)
	}
}

func TestScalingPublish_KeepsExistingParameter(t *testing.T) {
	ctx := context.Background()
	dir := params.NewMemory()
	path := "/input-dependent/real-time/scorer"
	_ = dir.Put(ctx, path, "scorer")

	publish := &ScalingPublish{cloud: &fakeCloud{state: EndpointInService}, dir: dir, logger: discard()}
	if err := publish.Execute(ctx, &executor.Task{Model: testModel()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := dir.Get(ctx, path)
	if err != nil || value != "scorer" {
		t.Errorf("existing parameter must survive, got %q, %v", value, err)
	}
}

func TestDAGUpdate_RestoresMissingParameter(t *testing.T) {
	ctx := context.Background()
	dir := params.NewMemory()

	group := &engine.Group{
		Key: "input-dependent",
		Edges: []domain.Edge{
			{EndpointName: "scorer", EndpointType: domain.EndpointRealTime},
		},
	}

	update := NewDAGUpdate(dir, discard())
	task := &executor.Task{Group: group, Edge: &group.Edges[0]}
	if err := update.Execute(ctx, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := dir.Get(ctx, "/input-dependent/real-time/scorer")
	if err != nil {
		t.Fatalf("parameter not restored: %v", err)
	}
	if value != "scorer" {
		t.Errorf("expected scorer, got %q", value)
	}
}

func TestDAGUpdate_PruneStale(t *testing.T) {
	ctx := context.Background()
	dir := params.NewMemory()
	_ = dir.Put(ctx, "/input-dependent/real-time/scorer", "scorer")
	_ = dir.Put(ctx, "/input-dependent/real-time/retired", "retired")

	group := &engine.Group{
		Key: "input-dependent",
		Edges: []domain.Edge{
			{EndpointName: "scorer", EndpointType: domain.EndpointRealTime},
		},
	}

	update := NewDAGUpdate(dir, discard())
	if err := update.PruneStale(ctx, group); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := dir.Get(ctx, "/input-dependent/real-time/scorer"); err != nil {
		t.Errorf("live parameter must survive: %v", err)
	}
	if _, err := dir.Get(ctx, "/input-dependent/real-time/retired"); !errors.Is(err, params.ErrParamNotFound) {
		t.Errorf("stale parameter must be deleted, got %v", err)
	}
}
