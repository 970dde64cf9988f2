package engine

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/Cascade/internal/domain"
)

// Границы количества вариантов для real-time эндпоинтов.
const (
	minRealTimeVariants = 1
	maxRealTimeVariants = 10
)

// Parse разбирает документ развёртывания из JSON и валидирует его.
func Parse(data []byte) (*domain.DeploymentSpec, error) {
	var spec domain.DeploymentSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse deployment spec: %w", err)
	}

	if err := Validate(&spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate выполняет полную валидацию документа развёртывания.
//
// Проверяет:
// - Наличие моделей
// - Уникальность имён моделей и эндпоинтов
// - Корректность типов эндпоинтов и количества вариантов
// - Диапазон min_capacity/max_capacity
// - Привязку каждого dependency_key контейнеров к графу выполнения
// - Согласованность edges с моделями (существование, совпадение типа)
//
// Валидация тотальна: возвращаются все найденные проблемы (ValidationErrors),
// а не только первая. Побочных эффектов нет.
func Validate(spec *domain.DeploymentSpec) error {
	if spec == nil || len(spec.Models) == 0 {
		return ValidationErrors{NewValidationError("", "models", "no models declared", ErrEmptyModels)}
	}

	var errs ValidationErrors

	errs = append(errs, validateModels(spec)...)
	errs = append(errs, validateGraphs(spec)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateModels проверяет модели документа.
func validateModels(spec *domain.DeploymentSpec) ValidationErrors {
	var errs ValidationErrors

	graph := spec.MergedGraph()
	modelNames := make(map[string]bool, len(spec.Models))
	endpointNames := make(map[string]bool, len(spec.Models))

	for i := range spec.Models {
		m := &spec.Models[i]

		if m.ModelName == "" {
			errs = append(errs, NewValidationError("", "model_name",
				fmt.Sprintf("model %d has empty name", i), ErrEmptyModelName))
			continue
		}

		if modelNames[m.ModelName] {
			errs = append(errs, NewValidationError(m.ModelName, "model_name",
				fmt.Sprintf("duplicate model name: %s", m.ModelName), ErrDuplicateModelName))
		}
		modelNames[m.ModelName] = true

		if endpointNames[m.EndpointName] {
			errs = append(errs, NewValidationError(m.ModelName, "endpoint_name",
				fmt.Sprintf("duplicate endpoint name: %s", m.EndpointName), ErrDuplicateEndpointName))
		}
		endpointNames[m.EndpointName] = true

		if !m.EndpointType.IsValid() {
			errs = append(errs, NewValidationError(m.ModelName, "endpoint_type",
				fmt.Sprintf("endpoint_type must be %q or %q, got %q",
					domain.EndpointRealTime, domain.EndpointAsync, m.EndpointType), ErrUnknownEndpointType))
		}

		if len(m.Containers) == 0 {
			errs = append(errs, NewValidationError(m.ModelName, "containers",
				"model has no containers", ErrEmptyContainers))
		}

		errs = append(errs, validateCapacity(m)...)
		errs = append(errs, validateVariants(m)...)

		// Каждый dependency_key контейнера должен существовать в графе
		// (кроме sentinel-значения для контейнеров вне графа).
		for _, key := range m.DependencyKeys() {
			if _, ok := graph[key]; !ok {
				errs = append(errs, NewValidationError(m.ModelName, "containers.dependency_key",
					fmt.Sprintf("dependency key %q has no entry in execution graph", key),
					ErrDanglingDependencyKey))
			}
		}
	}

	return errs
}

// validateCapacity проверяет диапазон ёмкости автоскейлинга.
func validateCapacity(m *domain.ModelSpec) ValidationErrors {
	var errs ValidationErrors

	if m.MinCapacity > m.MaxCapacity {
		errs = append(errs, NewValidationError(m.ModelName, "min_capacity",
			fmt.Sprintf("min_capacity %d greater than max_capacity %d", m.MinCapacity, m.MaxCapacity),
			ErrCapacityRange))
	}

	if m.EndpointType == domain.EndpointRealTime && m.MinCapacity < 1 {
		errs = append(errs, NewValidationError(m.ModelName, "min_capacity",
			"real-time endpoint requires min_capacity >= 1", ErrRealTimeCapacity))
	}

	return errs
}

// validateVariants проверяет количество production-вариантов.
// Async-эндпоинт имеет ровно один вариант, real-time — от 1 до 10.
func validateVariants(m *domain.ModelSpec) ValidationErrors {
	var errs ValidationErrors

	switch m.EndpointType {
	case domain.EndpointAsync:
		if len(m.Variants) != 1 {
			errs = append(errs, NewValidationError(m.ModelName, "variants",
				fmt.Sprintf("async endpoint requires exactly 1 variant, got %d", len(m.Variants)),
				ErrVariantCount))
		}
	case domain.EndpointRealTime:
		if len(m.Variants) < minRealTimeVariants || len(m.Variants) > maxRealTimeVariants {
			errs = append(errs, NewValidationError(m.ModelName, "variants",
				fmt.Sprintf("real-time endpoint requires 1..%d variants, got %d",
					maxRealTimeVariants, len(m.Variants)), ErrVariantCount))
		}
	}

	return errs
}

// validateGraphs проверяет графы выполнения против набора моделей.
func validateGraphs(spec *domain.DeploymentSpec) ValidationErrors {
	var errs ValidationErrors

	seenKeys := make(map[string]bool)

	for _, g := range spec.ExecutionGraphs {
		for key, edges := range g {
			if seenKeys[key] {
				errs = append(errs, NewValidationError("", "execution_graphs",
					fmt.Sprintf("dependency key %q declared in multiple graphs", key),
					ErrDuplicateGraphKey))
			}
			seenKeys[key] = true

			for _, e := range edges {
				model := spec.ModelByEndpoint(e.EndpointName)
				if model == nil {
					errs = append(errs, NewValidationError("", "execution_graphs."+key,
						fmt.Sprintf("edge references unknown endpoint %q", e.EndpointName),
						ErrUnknownEdgeEndpoint))
					continue
				}

				if e.EndpointType != model.EndpointType {
					errs = append(errs, NewValidationError(model.ModelName, "execution_graphs."+key,
						fmt.Sprintf("edge declares endpoint %q as %q, model declares %q",
							e.EndpointName, e.EndpointType, model.EndpointType),
						ErrEndpointTypeMismatch))
				}
			}
		}
	}

	return errs
}
