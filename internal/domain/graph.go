package domain

// Edge — downstream-развёртывание в графе выполнения.
//
// Edge становится «достижимым» когда завершено развёртывание,
// производящее его dependency_key.
type Edge struct {
	// EndpointName — имя downstream-эндпоинта.
	EndpointName string `json:"endpoint_name"`

	// EndpointType — тип эндпоинта (должен совпадать с ModelSpec).
	EndpointType EndpointType `json:"endpoint_type"`

	// MultiContainer — true, если эндпоинт обслуживает несколько контейнеров.
	MultiContainer bool `json:"multi_container,omitempty"`

	// ContainerName — целевой контейнер (для multi-container real-time).
	ContainerName string `json:"container_name,omitempty"`
}

// ExecutionGraph — отображение dependency_key → упорядоченный список Edge.
//
// Порядок edges внутри ключа значим и сохраняется при разрешении плана.
// Порядок самих ключей не определён (JSON-объект); детерминированный
// порядок групп устанавливает engine.Resolve.
type ExecutionGraph map[string][]Edge

// MergedGraph объединяет все ExecutionGraphs документа в один.
// Дубликаты ключей между графами не объединяются — их отлавливает валидация.
func (s *DeploymentSpec) MergedGraph() ExecutionGraph {
	merged := make(ExecutionGraph)
	for _, g := range s.ExecutionGraphs {
		for key, edges := range g {
			if _, exists := merged[key]; exists {
				continue
			}
			merged[key] = edges
		}
	}
	return merged
}
