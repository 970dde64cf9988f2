package domain

import "time"

// TaskKind — вид задачи развёртывания.
//
// Набор видов фиксирован: retry-политика и таймаут задаются на вид задачи,
// а не на конкретный документ.
type TaskKind string

const (
	// TaskModelDeploy — создание модели (и model card).
	TaskModelDeploy TaskKind = "ModelDeploy"

	// TaskEndpointDeploy — создание или обновление эндпоинта.
	TaskEndpointDeploy TaskKind = "EndpointDeploy"

	// TaskEndpointScalingAndParameterPublish — регистрация автоскейлинга
	// и публикация параметров эндпоинта.
	TaskEndpointScalingAndParameterPublish TaskKind = "EndpointScalingAndParameterPublish"

	// TaskUpdateDependencyParameters — актуализация каталога параметров
	// для одной группы зависимостей.
	TaskUpdateDependencyParameters TaskKind = "UpdateDependencyParameters"
)

// Phase — фаза workflow, к которой относится ветка.
type Phase string

const (
	// PhaseDeploy — фаза 1: развёртывание моделей и эндпоинтов.
	PhaseDeploy Phase = "deploy"

	// PhaseDAGUpdate — фаза 2: обновление порядка зависимостей.
	PhaseDAGUpdate Phase = "dag-update"
)

// TaskResult — результат одной задачи внутри ветки.
type TaskResult struct {
	// Kind — вид задачи.
	Kind TaskKind `json:"kind"`

	// Status — итоговый статус задачи.
	Status TaskStatus `json:"status"`

	// Attempts — количество выполненных попыток (включая первую).
	Attempts int `json:"attempts"`

	// Error — текст ошибки (для FAILED/CANCELLED).
	Error string `json:"error,omitempty"`
}

// BranchResult — итог одной ветки fan-out.
//
// Ветка фазы 1 — это один ModelSpec (Subject = model_name),
// ветка фазы 2 — одна группа зависимостей (Subject = dependency_key).
type BranchResult struct {
	// BranchID — идентификатор ветки, уникальный в рамках run.
	BranchID string `json:"branch_id"`

	// Phase — фаза, в которой выполнялась ветка.
	Phase Phase `json:"phase"`

	// Subject — предмет ветки: имя модели или ключ группы.
	Subject string `json:"subject"`

	// Status — итоговый статус ветки.
	Status BranchStatus `json:"status"`

	// Error — текст первой терминальной ошибки ветки.
	Error string `json:"error,omitempty"`

	// Tasks — результаты задач ветки в порядке выполнения.
	Tasks []TaskResult `json:"tasks"`

	// StartedAt — время старта ветки.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения ветки.
	FinishedAt time.Time `json:"finished_at"`
}

// Duration возвращает продолжительность выполнения ветки.
func (b *BranchResult) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}

// Report — итоговый отчёт выполнения workflow.
//
// Отчёт всегда структурный: даже при частичном сбое вызывающая сторона
// получает статус и исход каждой ветки, а не непрозрачную ошибку.
type Report struct {
	// Status — итоговый статус: success, partial_failure или cancelled.
	Status ReportStatus `json:"status"`

	// Branches — исходы всех веток обеих фаз.
	Branches []BranchResult `json:"branches"`

	// FailedBranches — идентификаторы веток, завершившихся FAILED или CANCELLED.
	FailedBranches []string `json:"failed_branches,omitempty"`
}

// Succeeded возвращает true, если каждая ветка завершилась успешно.
func (r *Report) Succeeded() bool {
	return r.Status == ReportSuccess
}

// BranchesOf возвращает ветки указанной фазы.
func (r *Report) BranchesOf(phase Phase) []BranchResult {
	var out []BranchResult
	for _, b := range r.Branches {
		if b.Phase == phase {
			out = append(out, b)
		}
	}
	return out
}
