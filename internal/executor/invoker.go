package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Cascade/internal/domain"
)

// Invoker прогоняет задачу через её retry-политику.
type Invoker struct {
	registry *Registry
	policies map[domain.TaskKind]RetryPolicy
	logger   *slog.Logger
}

// NewInvoker создаёт Invoker с явной картой политик.
func NewInvoker(registry *Registry, policies map[domain.TaskKind]RetryPolicy, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		registry: registry,
		policies: policies,
		logger:   logger,
	}
}

// Run выполняет задачу до успеха, исчерпания попыток или отмены ctx.
//
// Результат всегда структурный: FAILED и CANCELLED возвращаются как
// TaskResult, а не как error. Отмена ctx (дедлайн workflow) прекращает
// retry немедленно и даёт статус CANCELLED; таймаут одного вызова —
// переходная ошибка, которая повторяется в рамках политики.
func (inv *Invoker) Run(ctx context.Context, task *Task) domain.TaskResult {
	executor, err := inv.registry.Get(task.Kind)
	if err != nil {
		return domain.TaskResult{
			Kind:     task.Kind,
			Status:   domain.TaskStatusFailed,
			Attempts: 0,
			Error:    err.Error(),
		}
	}

	policy := policyFor(inv.policies, task.Kind)

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		// Задача, до которой дошла очередь после отмены workflow,
		// не выполняется вовсе.
		if err := ctx.Err(); err != nil {
			return domain.TaskResult{
				Kind:     task.Kind,
				Status:   domain.TaskStatusCancelled,
				Attempts: attempt - 1,
				Error:    err.Error(),
			}
		}

		lastErr = inv.invokeOnce(ctx, executor, task, policy.Timeout)
		if lastErr == nil {
			return domain.TaskResult{
				Kind:     task.Kind,
				Status:   domain.TaskStatusSucceeded,
				Attempts: attempt,
			}
		}

		// Отмена workflow — не сбой задачи: фиксируем CANCELLED и выходим.
		if ctx.Err() != nil {
			return domain.TaskResult{
				Kind:     task.Kind,
				Status:   domain.TaskStatusCancelled,
				Attempts: attempt,
				Error:    ctx.Err().Error(),
			}
		}

		if attempt == policy.MaxAttempts {
			break
		}

		inv.logger.Debug("retrying task",
			"kind", task.Kind,
			"attempt", attempt,
			"interval", policy.Interval,
			"error", lastErr,
		)

		select {
		case <-time.After(policy.Interval):
		case <-ctx.Done():
			return domain.TaskResult{
				Kind:     task.Kind,
				Status:   domain.TaskStatusCancelled,
				Attempts: attempt,
				Error:    ctx.Err().Error(),
			}
		}
	}

	errMsg := lastErr.Error()
	if policy.MaxAttempts > 1 {
		errMsg = fmt.Sprintf("%s after %d attempts: %s", ErrRetryExhausted, policy.MaxAttempts, lastErr)
	}

	inv.logger.Warn("task failed",
		"kind", task.Kind,
		"attempts", policy.MaxAttempts,
		"error", lastErr,
	)

	return domain.TaskResult{
		Kind:     task.Kind,
		Status:   domain.TaskStatusFailed,
		Attempts: policy.MaxAttempts,
		Error:    errMsg,
	}
}

// invokeOnce выполняет один вызов задачи с таймаутом политики.
func (inv *Invoker) invokeOnce(ctx context.Context, executor Executor, task *Task, timeout time.Duration) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := executor.Execute(callCtx, task)
	if err == nil {
		return nil
	}

	// Таймаут вызова при живом родительском контексте — переходный сбой.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s", ErrCallTimeout, task.Kind)
	}
	return err
}
