package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	                  ↘ CANCELLED (по дедлайну workflow или вручную)
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все ветки обеих фаз завершились успешно.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — run завершён, но часть веток упала
	// (или документ не прошёл валидацию до начала выполнения).
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — run отменён (дедлайн workflow или запрос пользователя).
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// BranchStatus — статус одной ветки fan-out.
//
// Жизненный цикл:
//
//	RUNNING → SUCCEEDED
//	        ↘ FAILED    (задача ветки исчерпала retry)
//	        ↘ CANCELLED (дедлайн workflow; отличается от FAILED)
type BranchStatus string

const (
	// BranchStatusRunning — ветка выполняется.
	BranchStatusRunning BranchStatus = "RUNNING"

	// BranchStatusSucceeded — все задачи ветки завершились успешно.
	BranchStatusSucceeded BranchStatus = "SUCCEEDED"

	// BranchStatusFailed — задача ветки завершилась терминальной ошибкой.
	BranchStatusFailed BranchStatus = "FAILED"

	// BranchStatusCancelled — ветка отменена дедлайном workflow.
	BranchStatusCancelled BranchStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s BranchStatus) IsTerminal() bool {
	switch s {
	case BranchStatusSucceeded, BranchStatusFailed, BranchStatusCancelled:
		return true
	default:
		return false
	}
}

// TaskStatus — статус одной задачи внутри ветки.
type TaskStatus string

const (
	// TaskStatusSucceeded — задача завершилась успешно.
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"

	// TaskStatusFailed — задача завершилась ошибкой после всех retry.
	TaskStatusFailed TaskStatus = "FAILED"

	// TaskStatusCancelled — задача прервана отменой workflow.
	TaskStatusCancelled TaskStatus = "CANCELLED"

	// TaskStatusSkipped — задача не запускалась: предыдущая задача ветки упала.
	TaskStatusSkipped TaskStatus = "SKIPPED"
)

// ReportStatus — итоговый статус отчёта run.
type ReportStatus string

const (
	// ReportSuccess — каждая ветка обеих фаз завершилась успешно.
	ReportSuccess ReportStatus = "success"

	// ReportPartialFailure — часть веток упала; отчёт перечисляет их.
	ReportPartialFailure ReportStatus = "partial_failure"

	// ReportCancelled — run прерван дедлайном workflow.
	ReportCancelled ReportStatus = "cancelled"
)
