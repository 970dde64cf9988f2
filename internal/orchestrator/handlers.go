package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/mq"
	"github.com/shaiso/Cascade/internal/repo"
)

// finalizeTimeout — таймаут записи терминального статуса run.
// Финализация идёт на свежем контексте: отмена workflow не должна
// потерять отчёт.
const finalizeTimeout = 30 * time.Second

// handleRunRequested обрабатывает запрос на выполнение run.
func (o *Orchestrator) handleRunRequested(ctx context.Context, delivery *mq.Delivery) error {
	// Парсим payload
	payload, err := mq.ParsePayload[mq.RunRequestedPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse run.requested payload", "error", err)
		return err
	}

	o.logger.Debug("received run.requested event", "run_id", payload.RunID)

	// Проверяем, не обрабатывается ли уже
	if o.isRunActive(payload.RunID) {
		o.logger.Debug("run already active, skipping", "run_id", payload.RunID)
		return nil
	}

	if err := o.processRun(ctx, payload.RunID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrRunNotPending) || errors.Is(err, ErrRunAlreadyActive) {
			o.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
			return nil
		}
		o.logger.Error("failed to process run", "run_id", payload.RunID, "error", err)
		return err
	}

	return nil
}

// handleRunCancel обрабатывает запрос на отмену run.
//
// Для активного run отменяется контекст workflow: ветки в полёте
// завершаются CANCELLED и run финализируется обычным путём. Pending
// run, ещё не взятый в работу, финализируется CANCELLED сразу.
func (o *Orchestrator) handleRunCancel(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunCancelPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse run.cancel payload", "error", err)
		return err
	}

	o.logger.Debug("received run.cancel event", "run_id", payload.RunID)

	if err := o.CancelRun(payload.RunID); err == nil {
		return nil
	}

	run, err := o.runRepo.GetByID(ctx, payload.RunID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			o.logger.Debug("cancel for unknown run, ignoring", "run_id", payload.RunID)
			return nil
		}
		return fmt.Errorf("get run: %w", err)
	}

	if run.Status != domain.RunStatusPending {
		// Уже завершён либо подхвачен другим инстансом.
		o.logger.Debug("cancel for non-pending run, ignoring",
			"run_id", run.ID,
			"status", run.Status,
		)
		return nil
	}

	run.MarkCancelled(nil)
	o.finalizeRun(run)
	return nil
}

// processRun берёт pending run в работу и запускает workflow.
func (o *Orchestrator) processRun(ctx context.Context, runID uuid.UUID) error {
	// 1. Загружаем run из БД
	run, err := o.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	// 2. Проверяем статус
	if run.Status != domain.RunStatusPending {
		return ErrRunNotPending
	}

	// 3. Загружаем версию документа
	version, err := o.specRepo.GetVersion(ctx, run.SpecID, run.Version)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return o.failRun(run, fmt.Sprintf("%s: %s v%d", ErrSpecVersionNotFound, run.SpecID, run.Version))
		}
		return fmt.Errorf("get spec version: %w", err)
	}

	// 4. Создаём RunState и добавляем в активные
	state := NewRunState(run, version)
	if err := o.addActiveRun(state); err != nil {
		return err
	}

	// 5. Переводим run в RUNNING
	run.MarkRunning()
	if err := o.runRepo.Update(ctx, run); err != nil {
		o.removeActiveRun(runID)
		return fmt.Errorf("update run to running: %w", err)
	}

	o.logger.Info("run started",
		"run_id", run.ID,
		"spec_id", run.SpecID,
		"version", run.Version,
		"models", len(version.Document.Models),
	)

	// 6. Выполняем workflow в отдельной горутине: consumer не должен
	// блокироваться на часы выполнения развёртывания.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.executeRun(ctx, state)
	}()

	return nil
}

// executeRun прогоняет run через workflow и финализирует его.
func (o *Orchestrator) executeRun(ctx context.Context, state *RunState) {
	defer o.removeActiveRun(state.RunID())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	state.SetCancel(cancel)

	run := state.Run
	report, err := o.runner.Execute(runCtx, &state.Version.Document)

	switch {
	case err != nil:
		// Ошибка до начала выполнения: валидация или цикл в графе.
		// Задачи не вызывались, side effects отсутствуют.
		run.MarkFailed(nil, err.Error())

	case report.Status == domain.ReportSuccess:
		run.MarkSucceeded(report)

	case report.Status == domain.ReportCancelled:
		run.MarkCancelled(report)

	default:
		run.MarkFailed(report, fmt.Sprintf("%d of %d branches failed",
			len(report.FailedBranches), len(report.Branches)))
	}

	o.finalizeRun(run)
}

// failRun финализирует run ошибкой до начала выполнения.
func (o *Orchestrator) failRun(run *domain.Run, errMsg string) error {
	run.MarkFailed(nil, errMsg)
	o.finalizeRun(run)
	return nil
}

// finalizeRun записывает терминальный статус и публикует событие.
func (o *Orchestrator) finalizeRun(run *domain.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if err := o.runRepo.Update(ctx, run); err != nil {
		o.logger.Error("failed to finalize run",
			"run_id", run.ID,
			"status", run.Status,
			"error", err,
		)
		return
	}

	o.metrics.ObserveRun(run)

	o.logger.Info("run finished",
		"run_id", run.ID,
		"status", run.Status,
		"duration", run.Duration(),
		"error", run.Error,
	)

	o.publishCompletion(ctx, run)
}

// publishCompletion публикует события branch.completed по каждой ветке
// отчёта и затем run.completed.
func (o *Orchestrator) publishCompletion(ctx context.Context, run *domain.Run) {
	if o.publisher == nil {
		return
	}

	if run.Report != nil {
		for _, b := range run.Report.Branches {
			err := o.publisher.PublishBranchCompleted(ctx, mq.BranchCompletedPayload{
				RunID:    run.ID,
				BranchID: b.BranchID,
				Phase:    string(b.Phase),
				Status:   string(b.Status),
				Error:    b.Error,
			})
			if err != nil {
				o.logger.Warn("failed to publish branch.completed",
					"run_id", run.ID,
					"branch_id", b.BranchID,
					"error", err,
				)
			}
		}
	}

	payload := mq.RunCompletedPayload{
		RunID:  run.ID,
		Status: string(run.Status),
		Error:  run.Error,
	}
	if run.Report != nil {
		payload.FailedBranches = run.Report.FailedBranches
	}

	if err := o.publisher.PublishRunCompleted(ctx, payload); err != nil {
		// Не возвращаем ошибку: run финализирован в БД, событие — best effort.
		o.logger.Warn("failed to publish run.completed",
			"run_id", run.ID,
			"error", err,
		)
	}
}
