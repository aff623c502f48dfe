package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/service"
)

type AssignmentHandler struct {
	base
	service service.AssignmentService
}

func NewAssignmentHandler(svc service.AssignmentService, v *validator.Validate, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{base: newBase(v, logger), service: svc}
}

func (h *AssignmentHandler) ListByOrgUnit(w http.ResponseWriter, r *http.Request, rawUnitID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	unitID, ok := h.parseID(w, rawUnitID, "organizational unit")
	if !ok {
		return
	}

	assignments, err := h.service.ListCurrent(r.Context(), actor, unitID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := make([]dto.AssignmentResponse, len(assignments))
	for i := range assignments {
		resp[i] = toAssignmentResponse(&assignments[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request, rawUnitID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	unitID, ok := h.parseID(w, rawUnitID, "organizational unit")
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.service.Assign(r.Context(), actor, unitID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toAssignmentResponse(assignment))
}

func (h *AssignmentHandler) End(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.parseID(w, rawID, "assignment")
	if !ok {
		return
	}

	if err := h.service.End(r.Context(), actor, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
