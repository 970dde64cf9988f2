package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Cascade/internal/domain"
)

func TestParse_Valid(t *testing.T) {
	data := []byte(`{
		"models": [
			{
				"model_name": "scorer",
				"model_card_key": "scorer-card",
				"endpoint_name": "scorer",
				"endpoint_type": "real-time",
				"containers": [
					{"container_name": "scorer-ctr", "image": "registry/scorer:1", "dependency_key": "input-dependent"}
				],
				"variants": [
					{"variant_name": "main", "instance_count": 1, "instance_weight": 1, "instance_type": "ml.m5.large", "max_concurrency": 4}
				],
				"min_capacity": 1,
				"max_capacity": 3
			}
		],
		"execution_graphs": [
			{"input-dependent": [{"endpoint_name": "scorer", "endpoint_type": "real-time"}]}
		]
	}`)

	spec, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spec.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(spec.Models))
	}
	if spec.Models[0].EndpointType != domain.EndpointRealTime {
		t.Errorf("unexpected endpoint type %q", spec.Models[0].EndpointType)
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"models": [`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestValidate_EmptySpec(t *testing.T) {
	err := Validate(&domain.DeploymentSpec{})
	if !errors.Is(err, ErrEmptyModels) {
		t.Errorf("expected ErrEmptyModels, got %v", err)
	}
}

// TestValidate_CollectsAllProblems проверяет тотальность валидации:
// документ с несколькими нарушениями возвращает их все разом.
func TestValidate_CollectsAllProblems(t *testing.T) {
	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{
			{
				ModelName:    "broken",
				EndpointName: "broken",
				EndpointType: domain.EndpointRealTime,
				Containers: []domain.Container{
					{ContainerName: "ctr", Image: "img", DependencyKey: "missing-dependent"},
				},
				// Пустой список вариантов и min > max одновременно.
				MinCapacity: 5,
				MaxCapacity: 2,
			},
		},
		ExecutionGraphs: []domain.ExecutionGraph{
			{"orphan-dependent": {{EndpointName: "ghost", EndpointType: domain.EndpointRealTime}}},
		},
	}

	err := Validate(spec)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	var errs ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	for _, want := range []error{
		ErrCapacityRange,
		ErrVariantCount,
		ErrDanglingDependencyKey,
		ErrUnknownEdgeEndpoint,
	} {
		if !errors.Is(err, want) {
			t.Errorf("expected %v among collected errors, got: %v", want, err)
		}
	}
	if len(errs) < 4 {
		t.Errorf("expected at least 4 problems, got %d: %v", len(errs), errs)
	}
}

func TestValidate_DuplicateNames(t *testing.T) {
	a := realTimeModel("scorer", "input-dependent")
	b := realTimeModel("scorer", "input-dependent")

	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{a, b},
		ExecutionGraphs: []domain.ExecutionGraph{
			{"input-dependent": {{EndpointName: "scorer", EndpointType: domain.EndpointRealTime}}},
		},
	}

	err := Validate(spec)
	if !errors.Is(err, ErrDuplicateModelName) {
		t.Errorf("expected ErrDuplicateModelName, got %v", err)
	}
	if !errors.Is(err, ErrDuplicateEndpointName) {
		t.Errorf("expected ErrDuplicateEndpointName, got %v", err)
	}
}

func TestValidate_AsyncVariantCount(t *testing.T) {
	m := asyncModel("batcher", "input-dependent")
	m.Variants = append(m.Variants, domain.Variant{
		VariantName: "extra", InstanceCount: 1, InstanceWeight: 1, InstanceType: "ml.m5.large",
	})

	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{m},
		ExecutionGraphs: []domain.ExecutionGraph{
			{"input-dependent": {{EndpointName: "batcher", EndpointType: domain.EndpointAsync}}},
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrVariantCount) {
		t.Errorf("expected ErrVariantCount, got %v", err)
	}
}

func TestValidate_RealTimeCapacity(t *testing.T) {
	m := realTimeModel("scorer", "input-dependent")
	m.MinCapacity = 0

	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{m},
		ExecutionGraphs: []domain.ExecutionGraph{
			{"input-dependent": {{EndpointName: "scorer", EndpointType: domain.EndpointRealTime}}},
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrRealTimeCapacity) {
		t.Errorf("expected ErrRealTimeCapacity, got %v", err)
	}
}

func TestValidate_EndpointTypeMismatch(t *testing.T) {
	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{realTimeModel("scorer", "input-dependent")},
		ExecutionGraphs: []domain.ExecutionGraph{
			// Edge объявляет scorer как async, модель — real-time.
			{"input-dependent": {{EndpointName: "scorer", EndpointType: domain.EndpointAsync}}},
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrEndpointTypeMismatch) {
		t.Errorf("expected ErrEndpointTypeMismatch, got %v", err)
	}
}

func TestValidate_DuplicateGraphKey(t *testing.T) {
	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{realTimeModel("scorer", "input-dependent")},
		ExecutionGraphs: []domain.ExecutionGraph{
			{"input-dependent": {{EndpointName: "scorer", EndpointType: domain.EndpointRealTime}}},
			{"input-dependent": {{EndpointName: "scorer", EndpointType: domain.EndpointRealTime}}},
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrDuplicateGraphKey) {
		t.Errorf("expected ErrDuplicateGraphKey, got %v", err)
	}
}

func TestValidate_UnknownEndpointType(t *testing.T) {
	m := realTimeModel("scorer", "input-dependent")
	m.EndpointType = "serverless"

	spec := &domain.DeploymentSpec{
		Models: []domain.ModelSpec{m},
		ExecutionGraphs: []domain.ExecutionGraph{
			{"input-dependent": {{EndpointName: "scorer", EndpointType: domain.EndpointRealTime}}},
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrUnknownEndpointType) {
		t.Errorf("expected ErrUnknownEndpointType, got %v", err)
	}
}
