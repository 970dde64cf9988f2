// Package orchestrator выполняет runs развёртывания.
//
// Orchestrator получает новые runs из очереди RabbitMQ (с polling
// по БД как fallback) и прогоняет каждый через двухфазный workflow:
//
//	Фаза 1 — по ветке на модель: ModelDeploy → EndpointDeploy →
//	         EndpointScalingAndParameterPublish, строго последовательно
//	         внутри ветки, все ветки параллельно.
//	Барьер — фаза 2 начинается только после терминального статуса
//	         каждой ветки фазы 1.
//	Фаза 2 — по ветке на группу зависимостей: UpdateDependencyParameters
//	         для каждого edge группы в порядке документа.
//
// Политика сбоев — best-effort: падение ветки не отменяет соседние,
// все ветки доходят до терминального статуса, и отчёт перечисляет
// каждый исход. Единственное, что отменяет выполняющиеся ветки —
// дедлайн workflow; такие ветки помечаются CANCELLED, не FAILED.
package orchestrator
