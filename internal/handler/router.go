package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kpi-hierarchy-api/internal/middleware"
)

const apiPrefix = "/api/v1"

// Handlers - набор хендлеров, которые обслуживает роутер
type Handlers struct {
	OrgUnits      *OrgUnitHandler
	Assignments   *AssignmentHandler
	Levels        *LevelHandler
	Confirmations *ConfirmationHandler
}

// Router настраивает маршруты API
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	verifier *middleware.TokenVerifier
	h        Handlers
}

// NewRouter создаёт новый роутер
func NewRouter(h Handlers, verifier *middleware.TokenVerifier, logger *slog.Logger) *Router {
	return &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		verifier: verifier,
		h:        h,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc(apiPrefix+"/org-units/", r.orgUnitsRouter)
	api.HandleFunc(apiPrefix+"/assignments/", r.assignmentsRouter)
	api.HandleFunc(apiPrefix+"/fiscal-years/", r.fiscalYearsRouter)
	api.HandleFunc(apiPrefix+"/levels/", r.levelsRouter)
	r.mux.Handle(apiPrefix+"/", middleware.Authenticate(r.verifier)(api))

	// Health check
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.mux.Handle("/metrics", promhttp.Handler())

	// Recoverer внутри Logger: паника получает request_id и строку журнала
	handler := middleware.ContentType(r.mux)
	handler = middleware.Recoverer(r.logger)(handler)
	handler = middleware.Logger(r.logger)(handler)

	return handler
}

// pathParts возвращает сегменты пути после префикса ресурса
func pathParts(req *http.Request, resource string) []string {
	path := strings.TrimPrefix(req.URL.Path, apiPrefix+resource)
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
}

func notFound(w http.ResponseWriter) {
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// orgUnitsRouter обрабатывает все запросы к /org-units/
func (r *Router) orgUnitsRouter(w http.ResponseWriter, req *http.Request) {
	parts := pathParts(req, "/org-units")

	switch {
	case len(parts) == 0:
		switch req.Method {
		case http.MethodPost:
			r.h.OrgUnits.Create(w, req)
		case http.MethodGet:
			r.h.OrgUnits.List(w, req)
		default:
			methodNotAllowed(w)
		}

	case len(parts) == 1:
		// /org-units/{id}
		switch req.Method {
		case http.MethodGet:
			r.h.OrgUnits.GetByID(w, req, parts[0])
		case http.MethodPatch:
			r.h.OrgUnits.Update(w, req, parts[0])
		case http.MethodDelete:
			r.h.OrgUnits.Delete(w, req, parts[0])
		default:
			methodNotAllowed(w)
		}

	case len(parts) == 2 && parts[1] == "assignments":
		switch req.Method {
		case http.MethodGet:
			r.h.Assignments.ListByOrgUnit(w, req, parts[0])
		case http.MethodPost:
			r.h.Assignments.Create(w, req, parts[0])
		default:
			methodNotAllowed(w)
		}

	default:
		notFound(w)
	}
}

func (r *Router) assignmentsRouter(w http.ResponseWriter, req *http.Request) {
	parts := pathParts(req, "/assignments")
	if len(parts) != 1 {
		notFound(w)
		return
	}
	if req.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	r.h.Assignments.End(w, req, parts[0])
}

// fiscalYearsRouter: /fiscal-years/{id}/levels и /fiscal-years/{id}/confirmations
func (r *Router) fiscalYearsRouter(w http.ResponseWriter, req *http.Request) {
	parts := pathParts(req, "/fiscal-years")
	if len(parts) != 2 {
		notFound(w)
		return
	}

	switch parts[1] {
	case "levels":
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		r.h.Levels.ListByFiscalYear(w, req, parts[0])
	case "confirmations":
		switch req.Method {
		case http.MethodGet:
			r.h.Confirmations.Status(w, req, parts[0])
		case http.MethodPost:
			r.h.Confirmations.Confirm(w, req, parts[0])
		default:
			methodNotAllowed(w)
		}
	default:
		notFound(w)
	}
}

func (r *Router) levelsRouter(w http.ResponseWriter, req *http.Request) {
	parts := pathParts(req, "/levels")
	if len(parts) != 1 {
		notFound(w)
		return
	}

	switch req.Method {
	case http.MethodGet:
		r.h.Levels.GetByID(w, req, parts[0])
	case http.MethodPatch:
		r.h.Levels.Update(w, req, parts[0])
	default:
		methodNotAllowed(w)
	}
}
