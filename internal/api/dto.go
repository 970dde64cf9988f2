package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// Spec DTOs

// CreateSpecRequest — запрос на создание документа развёртывания.
type CreateSpecRequest struct {
	Name string `json:"name"`
}

// SpecResponse — ответ с документом.
type SpecResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SpecFromDomain конвертирует domain.StoredSpec в SpecResponse.
func SpecFromDomain(s domain.StoredSpec) SpecResponse {
	return SpecResponse{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
	}
}

// SpecVersion DTOs

// CreateSpecVersionRequest — запрос на создание версии документа.
// Document хранится сырым JSON: парсинг и валидация идут через engine.
type CreateSpecVersionRequest struct {
	Document json.RawMessage `json:"document"`
}

// SpecVersionResponse — ответ с версией документа.
type SpecVersionResponse struct {
	SpecID    uuid.UUID             `json:"spec_id"`
	Version   int                   `json:"version"`
	Document  domain.DeploymentSpec `json:"document"`
	CreatedAt time.Time             `json:"created_at"`
}

// SpecVersionFromDomain конвертирует domain.SpecVersion в SpecVersionResponse.
func SpecVersionFromDomain(v domain.SpecVersion) SpecVersionResponse {
	return SpecVersionResponse{
		SpecID:    v.SpecID,
		Version:   v.Version,
		Document:  v.Document,
		CreatedAt: v.CreatedAt,
	}
}

// Run DTOs

// CreateRunRequest — запрос на создание run.
type CreateRunRequest struct {
	Version        *int   `json:"version,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// RunResponse — ответ с run.
// Отчёт отдаётся отдельным endpoint'ом /runs/{id}/report.
type RunResponse struct {
	ID             uuid.UUID  `json:"id"`
	SpecID         uuid.UUID  `json:"spec_id"`
	Version        int        `json:"version"`
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Error          string     `json:"error,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:             r.ID,
		SpecID:         r.SpecID,
		Version:        r.Version,
		Status:         string(r.Status),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Error:          r.Error,
		IdempotencyKey: r.IdempotencyKey,
		CreatedAt:      r.CreatedAt,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name        string `json:"name"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Version     int    `json:"version,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string `json:"name,omitempty"`
	CronExpr    *string `json:"cron_expr,omitempty"`
	IntervalSec *int    `json:"interval_sec,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	Version     *int    `json:"version,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID          uuid.UUID  `json:"id"`
	SpecID      uuid.UUID  `json:"spec_id"`
	Name        string     `json:"name"`
	CronExpr    string     `json:"cron_expr,omitempty"`
	IntervalSec int        `json:"interval_sec,omitempty"`
	Timezone    string     `json:"timezone"`
	Version     int        `json:"version,omitempty"`
	Enabled     bool       `json:"enabled"`
	NextDueAt   *time.Time `json:"next_due_at,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	LastRunID   *uuid.UUID `json:"last_run_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:          s.ID,
		SpecID:      s.SpecID,
		Name:        s.Name,
		CronExpr:    s.CronExpr,
		IntervalSec: s.IntervalSec,
		Timezone:    s.Timezone,
		Version:     s.Version,
		Enabled:     s.Enabled,
		NextDueAt:   s.NextDueAt,
		LastRunAt:   s.LastRunAt,
		LastRunID:   s.LastRunID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
