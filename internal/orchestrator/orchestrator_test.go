package orchestrator

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

func branch(id string, phase domain.Phase, status domain.BranchStatus) domain.BranchResult {
	return domain.BranchResult{
		BranchID: id,
		Phase:    phase,
		Subject:  id,
		Status:   status,
	}
}

func TestAggregate_AllSucceeded(t *testing.T) {
	report := aggregate([]domain.BranchResult{
		branch("deploy/a", domain.PhaseDeploy, domain.BranchStatusSucceeded),
		branch("deploy/b", domain.PhaseDeploy, domain.BranchStatusSucceeded),
		branch("dag-update/a-dependent", domain.PhaseDAGUpdate, domain.BranchStatusSucceeded),
	})

	if report.Status != domain.ReportSuccess {
		t.Errorf("expected success, got %s", report.Status)
	}
	if len(report.FailedBranches) != 0 {
		t.Errorf("expected no failed branches, got %v", report.FailedBranches)
	}
}

func TestAggregate_PartialFailure(t *testing.T) {
	report := aggregate([]domain.BranchResult{
		branch("deploy/a", domain.PhaseDeploy, domain.BranchStatusSucceeded),
		branch("deploy/b", domain.PhaseDeploy, domain.BranchStatusFailed),
	})

	if report.Status != domain.ReportPartialFailure {
		t.Errorf("expected partial_failure, got %s", report.Status)
	}
	if len(report.FailedBranches) != 1 || report.FailedBranches[0] != "deploy/b" {
		t.Errorf("expected [deploy/b], got %v", report.FailedBranches)
	}
}

func TestAggregate_CancelledWinsOverFailed(t *testing.T) {
	report := aggregate([]domain.BranchResult{
		branch("deploy/a", domain.PhaseDeploy, domain.BranchStatusFailed),
		branch("deploy/b", domain.PhaseDeploy, domain.BranchStatusCancelled),
		branch("deploy/c", domain.PhaseDeploy, domain.BranchStatusSucceeded),
	})

	if report.Status != domain.ReportCancelled {
		t.Errorf("expected cancelled, got %s", report.Status)
	}
	if len(report.FailedBranches) != 2 {
		t.Errorf("expected 2 failed branches, got %v", report.FailedBranches)
	}
}

func newRunState() *RunState {
	run := &domain.Run{
		ID:      uuid.New(),
		SpecID:  uuid.New(),
		Version: 1,
		Status:  domain.RunStatusPending,
	}
	version := &domain.SpecVersion{SpecID: run.SpecID, Version: 1}
	return NewRunState(run, version)
}

func TestRunState_Cancel(t *testing.T) {
	state := newRunState()

	ctx, cancel := context.WithCancel(context.Background())
	state.SetCancel(cancel)

	if state.IsCancelled() {
		t.Fatal("fresh state must not be cancelled")
	}

	state.Cancel()

	if !state.IsCancelled() {
		t.Error("expected cancelled state")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("workflow context must be cancelled")
	}
}

// Отмена, пришедшая до SetCancel, не должна теряться: SetCancel
// немедленно отменяет контекст, если run уже отменён.
func TestRunState_CancelBeforeSetCancel(t *testing.T) {
	state := newRunState()
	state.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	state.SetCancel(cancel)

	select {
	case <-ctx.Done():
	default:
		t.Error("context must be cancelled immediately on SetCancel")
	}
}
