package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/hierarchy"
	"github.com/kpi-hierarchy-api/internal/middleware"
)

// NewValidator создаёт валидатор с правилами orgcode и notblank
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("orgcode", func(fl validator.FieldLevel) bool {
		return hierarchy.ValidCode(fl.Field().String())
	})
	return v
}

// base - общие для всех хендлеров ответы и разбор запросов
type base struct {
	validator *validator.Validate
	logger    *slog.Logger
}

func newBase(v *validator.Validate, logger *slog.Logger) base {
	if v == nil {
		v = NewValidator()
	}
	return base{validator: v, logger: logger}
}

// decode читает тело запроса и проверяет его валидатором
func (h *base) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", "", err.Error())
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", "", err.Error())
		return false
	}
	return true
}

func (h *base) parseID(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid "+what+" id", "", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (h *base) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required", "", "")
	}
	return actor, ok
}

func (h *base) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		h.logger.Error("internal error",
			slog.String("request_id", middleware.RequestID(r.Context())),
			slog.Any("error", err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal server error", "", "")
		return
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateCode),
		errors.Is(err, domain.ErrDuplicateOrgUnit),
		errors.Is(err, domain.ErrCircularReference),
		errors.Is(err, domain.ErrStructureLocked),
		errors.Is(err, domain.ErrAlreadyConfirmed),
		errors.Is(err, domain.ErrHasActiveChildren),
		errors.Is(err, domain.ErrHasActiveAssignments):
		h.respondError(w, http.StatusConflict, domainErr.Message, domainErr.Code, "")
		return
	}

	switch domainErr.Kind {
	case domain.KindValidation:
		h.respondError(w, http.StatusBadRequest, domainErr.Message, domainErr.Code, "")
	case domain.KindAuthorization:
		h.respondError(w, http.StatusForbidden, domainErr.Message, domainErr.Code, "")
	case domain.KindNotFound:
		h.respondError(w, http.StatusNotFound, domainErr.Message, domainErr.Code, "")
	default:
		// Код хранилища только в логах
		h.logger.Error("storage error",
			slog.String("request_id", middleware.RequestID(r.Context())),
			slog.String("code", domainErr.Code),
			slog.Any("error", err),
		)
		h.respondError(w, http.StatusInternalServerError, domainErr.Message, "", "")
	}
}

func (h *base) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *base) respondError(w http.ResponseWriter, status int, errMsg, code, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg, Code: code, Message: details}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
