package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/engine"
)

// ListSpecs возвращает список всех документов развёртывания.
// GET /api/v1/specs
func (h *Handler) ListSpecs(w http.ResponseWriter, r *http.Request) {
	specs, err := h.specRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]SpecResponse, len(specs))
	for i, s := range specs {
		result[i] = SpecFromDomain(s)
	}

	List(w, result, len(result))
}

// CreateSpec создаёт новый документ развёртывания.
// POST /api/v1/specs
func (h *Handler) CreateSpec(w http.ResponseWriter, r *http.Request) {
	var req CreateSpecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	spec := &domain.StoredSpec{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now(),
	}

	if err := h.specRepo.Create(r.Context(), spec); err != nil {
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, SpecFromDomain(*spec))
}

// GetSpec возвращает документ по ID.
// GET /api/v1/specs/{id}
func (h *Handler) GetSpec(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid spec id")
		return
	}

	spec, err := h.specRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "spec not found") {
		return
	}

	Success(w, SpecFromDomain(*spec))
}

// DeleteSpec удаляет документ.
// DELETE /api/v1/specs/{id}
func (h *Handler) DeleteSpec(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid spec id")
		return
	}

	if err := h.specRepo.Delete(r.Context(), id); err != nil {
		if HandleRepoError(w, h.logger, err, "spec not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}

// ListSpecVersions возвращает список версий документа.
// GET /api/v1/specs/{id}/versions
func (h *Handler) ListSpecVersions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid spec id")
		return
	}

	// Проверяем, что документ существует
	_, err = h.specRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "spec not found") {
		return
	}

	versions, err := h.specRepo.ListVersions(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]SpecVersionResponse, len(versions))
	for i, v := range versions {
		result[i] = SpecVersionFromDomain(v)
	}

	List(w, result, len(result))
}

// CreateSpecVersion создаёт новую версию документа.
//
// Документ парсится и полностью валидируется до записи: невалидная
// версия не сохраняется, клиент получает все найденные проблемы.
// POST /api/v1/specs/{id}/versions
func (h *Handler) CreateSpecVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid spec id")
		return
	}

	var req CreateSpecVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	doc, err := engine.Parse(req.Document)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := engine.Validate(doc); err != nil {
		var verrs engine.ValidationErrors
		if errors.As(err, &verrs) {
			ValidationFailed(w, verrs)
			return
		}
		BadRequest(w, err.Error())
		return
	}

	// Цикл в графе — тоже ошибка документа, а не времени выполнения
	if _, err := engine.Resolve(doc); err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Проверяем, что документ существует
	_, err = h.specRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "spec not found") {
		return
	}

	version, err := h.specRepo.CreateVersion(r.Context(), id, *doc)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, SpecVersionFromDomain(*version))
}

// GetSpecVersion возвращает конкретную версию документа.
// GET /api/v1/specs/{id}/versions/{version}
func (h *Handler) GetSpecVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid spec id")
		return
	}

	versionNum, err := strconv.Atoi(r.PathValue("version"))
	if err != nil {
		BadRequest(w, "invalid version number")
		return
	}

	version, err := h.specRepo.GetVersion(r.Context(), id, versionNum)
	if HandleRepoError(w, h.logger, err, "spec version not found") {
		return
	}

	Success(w, SpecVersionFromDomain(*version))
}
