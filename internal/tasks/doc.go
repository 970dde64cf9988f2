// Package tasks содержит executor'ы задач развёртывания.
//
// Четыре вида задач покрывают обе фазы workflow:
//
//	ModelDeploy     — регистрирует timestamped-модель и model card,
//	                  обновляет указатель последней версии.
//	EndpointDeploy  — создаёт конфигурацию эндпоинта и сам эндпоинт,
//	                  либо обновляет существующий.
//	ScalingPublish  — регистрирует автоскейлинг и публикует параметры
//	                  обнаружения эндпоинта.
//	DAGUpdate       — актуализирует каталог параметров одной группы
//	                  зависимостей.
//
// Взаимодействие с control plane модельного сервинга идёт через узкий
// интерфейс ControlPlane; в тестах его подменяет fake.
package tasks
