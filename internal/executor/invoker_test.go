package executor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Cascade/internal/domain"
)

// flakyExecutor падает заданное число раз, затем выполняется успешно.
type flakyExecutor struct {
	failures int32
	calls    atomic.Int32
}

func (e *flakyExecutor) Execute(_ context.Context, _ *Task) error {
	n := e.calls.Add(1)
	if n <= e.failures {
		return errors.New("endpoint is not in service")
	}
	return nil
}

// blockingExecutor висит до отмены контекста.
type blockingExecutor struct{}

func (e *blockingExecutor) Execute(ctx context.Context, _ *Task) error {
	<-ctx.Done()
	return ctx.Err()
}

func testPolicies(maxAttempts int) map[domain.TaskKind]RetryPolicy {
	return map[domain.TaskKind]RetryPolicy{
		domain.TaskEndpointDeploy: {
			MaxAttempts: maxAttempts,
			Interval:    time.Millisecond,
			Timeout:     time.Second,
		},
		domain.TaskModelDeploy: {
			MaxAttempts: 1,
			Timeout:     time.Second,
		},
	}
}

func TestInvoker_RetriesUntilSuccess(t *testing.T) {
	exec := &flakyExecutor{failures: 7}
	registry := NewRegistry()
	registry.Register(domain.TaskEndpointDeploy, exec)

	inv := NewInvoker(registry, testPolicies(8), nil)
	result := inv.Run(context.Background(), &Task{Kind: domain.TaskEndpointDeploy})

	if result.Status != domain.TaskStatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", result.Status, result.Error)
	}
	if result.Attempts != 8 {
		t.Errorf("expected 8 attempts, got %d", result.Attempts)
	}
	if got := exec.calls.Load(); got != 8 {
		t.Errorf("expected 8 calls, got %d", got)
	}
}

func TestInvoker_ExhaustsRetries(t *testing.T) {
	exec := &flakyExecutor{failures: 100}
	registry := NewRegistry()
	registry.Register(domain.TaskEndpointDeploy, exec)

	inv := NewInvoker(registry, testPolicies(3), nil)
	result := inv.Run(context.Background(), &Task{Kind: domain.TaskEndpointDeploy})

	if result.Status != domain.TaskStatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if result.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", result.Attempts)
	}
	if got := exec.calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
	if !strings.Contains(result.Error, ErrRetryExhausted.Error()) {
		t.Errorf("error should mention exhausted retries, got %q", result.Error)
	}
}

func TestInvoker_SingleAttemptFailsImmediately(t *testing.T) {
	exec := &flakyExecutor{failures: 100}
	registry := NewRegistry()
	registry.Register(domain.TaskModelDeploy, exec)

	inv := NewInvoker(registry, testPolicies(8), nil)
	result := inv.Run(context.Background(), &Task{Kind: domain.TaskModelDeploy})

	if result.Status != domain.TaskStatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if result.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", result.Attempts)
	}
	if got := exec.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 call, got %d", got)
	}
}

func TestInvoker_CancelledNotRetried(t *testing.T) {
	registry := NewRegistry()
	registry.Register(domain.TaskEndpointDeploy, &blockingExecutor{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	inv := NewInvoker(registry, testPolicies(8), nil)
	result := inv.Run(ctx, &Task{Kind: domain.TaskEndpointDeploy})

	if result.Status != domain.TaskStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s (%s)", result.Status, result.Error)
	}
	if result.Attempts != 1 {
		t.Errorf("cancelled task must not retry, got %d attempts", result.Attempts)
	}
}

func TestInvoker_CallTimeoutIsRetried(t *testing.T) {
	registry := NewRegistry()
	registry.Register(domain.TaskEndpointDeploy, &blockingExecutor{})

	policies := map[domain.TaskKind]RetryPolicy{
		domain.TaskEndpointDeploy: {
			MaxAttempts: 2,
			Interval:    time.Millisecond,
			Timeout:     10 * time.Millisecond,
		},
	}

	inv := NewInvoker(registry, policies, nil)
	result := inv.Run(context.Background(), &Task{Kind: domain.TaskEndpointDeploy})

	if result.Status != domain.TaskStatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if result.Attempts != 2 {
		t.Errorf("call timeout should be retried, got %d attempts", result.Attempts)
	}
}

func TestInvoker_UnknownKind(t *testing.T) {
	inv := NewInvoker(NewRegistry(), testPolicies(8), nil)
	result := inv.Run(context.Background(), &Task{Kind: "Mystery"})

	if result.Status != domain.TaskStatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if !strings.Contains(result.Error, ErrUnknownTaskKind.Error()) {
		t.Errorf("expected unknown kind error, got %q", result.Error)
	}
}

func TestDefaultPolicies(t *testing.T) {
	policies := DefaultPolicies()

	tests := []struct {
		kind        domain.TaskKind
		maxAttempts int
		interval    time.Duration
	}{
		{domain.TaskModelDeploy, 1, 0},
		{domain.TaskEndpointDeploy, 8, 30 * time.Second},
		{domain.TaskEndpointScalingAndParameterPublish, 8, 30 * time.Second},
		{domain.TaskUpdateDependencyParameters, 1, 0},
	}

	for _, tt := range tests {
		p, ok := policies[tt.kind]
		if !ok {
			t.Errorf("no policy for %s", tt.kind)
			continue
		}
		if p.MaxAttempts != tt.maxAttempts {
			t.Errorf("%s: expected %d attempts, got %d", tt.kind, tt.maxAttempts, p.MaxAttempts)
		}
		if p.Interval != tt.interval {
			t.Errorf("%s: expected interval %s, got %s", tt.kind, tt.interval, p.Interval)
		}
		if p.Timeout != defaultCallTimeout {
			t.Errorf("%s: expected timeout %s, got %s", tt.kind, defaultCallTimeout, p.Timeout)
		}
	}
}
