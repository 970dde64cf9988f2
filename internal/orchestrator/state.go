package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// RunState — состояние одного выполняющегося run в памяти.
//
// RunState создаётся когда Orchestrator берёт run в работу и удаляется
// из активных при достижении терминального статуса. Хранит функцию
// отмены workflow: CancelRun через неё прерывает выполняющиеся ветки.
type RunState struct {
	// Run — данные run из БД.
	Run *domain.Run

	// Version — версия документа развёртывания, которая выполняется.
	Version *domain.SpecVersion

	// startedAt — время взятия run в работу.
	startedAt time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	cancelled bool
}

// NewRunState создаёт RunState.
func NewRunState(run *domain.Run, version *domain.SpecVersion) *RunState {
	return &RunState{
		Run:       run,
		Version:   version,
		startedAt: time.Now(),
	}
}

// RunID возвращает ID run.
func (s *RunState) RunID() uuid.UUID {
	return s.Run.ID
}

// SetCancel сохраняет функцию отмены workflow.
func (s *RunState) SetCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
	if s.cancelled {
		cancel()
	}
}

// Cancel прерывает выполнение run. Ветки в полёте получают отмену
// контекста и завершаются CANCELLED.
func (s *RunState) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	if s.cancel != nil {
		s.cancel()
	}
}

// IsCancelled возвращает true, если run был отменён вручную.
func (s *RunState) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Elapsed возвращает время с момента взятия run в работу.
func (s *RunState) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}
