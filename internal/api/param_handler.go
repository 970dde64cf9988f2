package api

import (
	"net/http"
)

// ListParams возвращает параметры обнаружения эндпоинтов.
//
// Параметры — побочный продукт выполнения runs: их публикуют задачи
// развёртывания. API отдаёт их только на чтение, для диагностики.
// GET /api/v1/params?prefix=/feature-engineering-dependent/
func (h *Handler) ListParams(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	values, err := h.params.List(r.Context(), prefix)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	List(w, values, len(values))
}
