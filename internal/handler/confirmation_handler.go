package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/service"
)

type ConfirmationHandler struct {
	base
	service service.ConfirmationService
}

func NewConfirmationHandler(svc service.ConfirmationService, v *validator.Validate, logger *slog.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{base: newBase(v, logger), service: svc}
}

// Status - GET /fiscal-years/{id}/confirmations
func (h *ConfirmationHandler) Status(w http.ResponseWriter, r *http.Request, rawFiscalYearID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	fiscalYearID, ok := h.parseID(w, rawFiscalYearID, "fiscal year")
	if !ok {
		return
	}

	status, err := h.service.Status(r.Context(), actor, fiscalYearID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toStatusResponse(status))
}

// Confirm - POST /fiscal-years/{id}/confirmations
func (h *ConfirmationHandler) Confirm(w http.ResponseWriter, r *http.Request, rawFiscalYearID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	fiscalYearID, ok := h.parseID(w, rawFiscalYearID, "fiscal year")
	if !ok {
		return
	}

	var req dto.ConfirmStructureRequest
	if !h.decode(w, r, &req) {
		return
	}

	confirmation, err := h.service.Confirm(r.Context(), actor, fiscalYearID, domain.ConfirmationType(req.ConfirmationType))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toConfirmationResponse(confirmation))
}
