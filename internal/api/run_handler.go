package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?spec_id=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{}

	// Парсим query параметры
	if specIDStr := r.URL.Query().Get("spec_id"); specIDStr != "" {
		specID, err := uuid.Parse(specIDStr)
		if err != nil {
			BadRequest(w, "invalid spec_id")
			return
		}
		filter.SpecID = &specID
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = domain.RunStatus(status)
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		filter.Limit = int(mustParseInt(limitStr, 50))
	} else {
		filter.Limit = 50
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		filter.Offset = int(mustParseInt(offsetStr, 0))
	}

	runs, err := h.runRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// CreateRun создаёт новый run для документа развёртывания.
// POST /api/v1/specs/{id}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	specID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid spec id")
		return
	}

	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	// Проверяем, что документ существует
	spec, err := h.specRepo.GetByID(r.Context(), specID)
	if HandleRepoError(w, h.logger, err, "spec not found") {
		return
	}

	// Определяем версию
	var version int
	if req.Version != nil {
		version = *req.Version
		// Проверяем, что версия существует
		_, err := h.specRepo.GetVersion(r.Context(), specID, version)
		if HandleRepoError(w, h.logger, err, "spec version not found") {
			return
		}
	} else {
		// Используем последнюю версию
		latestVersion, err := h.specRepo.GetLatestVersion(r.Context(), specID)
		if HandleRepoError(w, h.logger, err, "spec has no versions") {
			return
		}
		version = latestVersion.Version
	}

	// Проверяем idempotency key
	if req.IdempotencyKey != "" {
		existingRun, err := h.runRepo.GetByIdempotencyKey(r.Context(), specID, req.IdempotencyKey)
		if err == nil && existingRun != nil {
			// Возвращаем существующий run
			Success(w, RunFromDomain(*existingRun))
			return
		}
	}

	run := &domain.Run{
		ID:             uuid.New(),
		SpecID:         spec.ID,
		Version:        version,
		Status:         domain.RunStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}

	if err := h.runRepo.Create(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// Публикуем событие в очередь
	if h.publisher != nil {
		if err := h.publisher.PublishRunRequested(r.Context(), run.ID); err != nil {
			h.logger.Warn("failed to publish run.requested", "run_id", run.ID, "error", err)
		}
	}

	Created(w, RunFromDomain(*run))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// GetRunReport возвращает структурный отчёт run.
// GET /api/v1/runs/{id}/report
func (h *Handler) GetRunReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	if run.Report == nil {
		NotFound(w, "run has no report yet")
		return
	}

	Success(w, run.Report)
}

// CancelRun отменяет run.
//
// Отмена асинхронная: запрос уходит оркестратору через очередь, тот
// отменяет контекст workflow. Ветки в полёте завершаются CANCELLED
// и попадают в итоговый отчёт.
// POST /api/v1/runs/{id}/cancel
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	if run.IsFinished() {
		InvalidState(w, "run is already finished")
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishRunCancel(r.Context(), run.ID); err != nil {
			InternalError(w, h.logger, err)
			return
		}
		Success(w, RunFromDomain(*run))
		return
	}

	// Без очереди отменить можно только ещё не взятый в работу run.
	if run.Status != domain.RunStatusPending {
		InvalidState(w, "run is already executing")
		return
	}

	run.MarkCancelled(nil)
	if err := h.runRepo.Update(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, RunFromDomain(*run))
}

// mustParseInt парсит строку в int с дефолтным значением.
func mustParseInt(s string, defaultVal int64) int64 {
	if n, err := json.Number(s).Int64(); err == nil {
		return n
	}
	return defaultVal
}
