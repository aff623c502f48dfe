package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/service"
)

type LevelHandler struct {
	base
	service service.LevelService
}

func NewLevelHandler(svc service.LevelService, v *validator.Validate, logger *slog.Logger) *LevelHandler {
	return &LevelHandler{base: newBase(v, logger), service: svc}
}

func (h *LevelHandler) ListByFiscalYear(w http.ResponseWriter, r *http.Request, rawFiscalYearID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	fiscalYearID, ok := h.parseID(w, rawFiscalYearID, "fiscal year")
	if !ok {
		return
	}

	levels, err := h.service.ListLevels(r.Context(), actor, fiscalYearID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := make([]dto.LevelResponse, len(levels))
	for i := range levels {
		resp[i] = toLevelResponse(&levels[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *LevelHandler) GetByID(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.parseID(w, rawID, "level")
	if !ok {
		return
	}

	level, err := h.service.GetLevel(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toLevelResponse(level))
}

func (h *LevelHandler) Update(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.parseID(w, rawID, "level")
	if !ok {
		return
	}

	var req dto.UpdateLevelRequest
	if !h.decode(w, r, &req) {
		return
	}

	level, err := h.service.SetLevelEnabled(r.Context(), actor, id, *req.IsEnabled)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toLevelResponse(level))
}
