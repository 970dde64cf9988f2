package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — одно выполнение workflow развёртывания.
//
// Run создаётся когда:
// - Пользователь запускает развёртывание вручную (через API/CLI)
// - Scheduler создаёт run по расписанию
//
// Каждый run выполняет конкретную версию документа развёртывания
// и завершается структурным отчётом.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// SpecID — ссылка на документ развёртывания.
	SpecID uuid.UUID `json:"spec_id"`

	// Version — версия документа, которая выполняется.
	Version int `json:"version"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Report — итоговый отчёт. Nil, пока run не завершён.
	Report *Report `json:"report,omitempty"`

	// StartedAt — время начала выполнения (когда статус стал RUNNING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился FAILED до начала
	// выполнения задач (валидация документа, цикл в графе).
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности для предотвращения дубликатов.
	// Для scheduled runs: "{schedule_id}_{next_due_at}".
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED с отчётом.
func (r *Run) MarkSucceeded(report *Report) {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
	r.Report = report
}

// MarkFailed переводит run в статус FAILED.
// Отчёт может быть nil, если run упал до начала выполнения задач.
func (r *Run) MarkFailed(report *Report, err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Report = report
	r.Error = err
}

// MarkCancelled переводит run в статус CANCELLED с отчётом.
func (r *Run) MarkCancelled(report *Report) {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.FinishedAt = &now
	r.Report = report
}
