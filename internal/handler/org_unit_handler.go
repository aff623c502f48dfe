package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/service"
)

type OrgUnitHandler struct {
	base
	service service.OrgUnitService
}

func NewOrgUnitHandler(svc service.OrgUnitService, v *validator.Validate, logger *slog.Logger) *OrgUnitHandler {
	return &OrgUnitHandler{base: newBase(v, logger), service: svc}
}

func (h *OrgUnitHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req dto.CreateOrgUnitRequest
	if !h.decode(w, r, &req) {
		return
	}

	unit, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toOrgUnitResponse(unit))
}

func (h *OrgUnitHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	query, ok := h.parseListQuery(w, r)
	if !ok {
		return
	}

	units, err := h.service.List(r.Context(), actor, &query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := make([]dto.OrgUnitResponse, len(units))
	for i := range units {
		resp[i] = toOrgUnitResponse(&units[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *OrgUnitHandler) GetByID(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.parseID(w, rawID, "organizational unit")
	if !ok {
		return
	}

	unit, err := h.service.GetByID(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toOrgUnitResponse(unit))
}

func (h *OrgUnitHandler) Update(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.parseID(w, rawID, "organizational unit")
	if !ok {
		return
	}

	var req dto.UpdateOrgUnitRequest
	if !h.decode(w, r, &req) {
		return
	}

	unit, err := h.service.Update(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toOrgUnitResponse(unit))
}

func (h *OrgUnitHandler) Delete(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.parseID(w, rawID, "organizational unit")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrgUnitHandler) parseListQuery(w http.ResponseWriter, r *http.Request) (dto.ListOrgUnitsQuery, bool) {
	values := r.URL.Query()
	query := dto.ListOrgUnitsQuery{
		LevelCode:       values.Get("level_code"),
		IncludeInactive: values.Get("include_inactive") == "true",
	}

	for param, dst := range map[string]**uuid.UUID{
		"parent_id":      &query.ParentID,
		"fiscal_year_id": &query.FiscalYearID,
	} {
		raw := values.Get(param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid "+param, "", err.Error())
			return query, false
		}
		*dst = &id
	}

	if err := h.validator.Struct(&query); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", "", err.Error())
		return query, false
	}
	return query, true
}
