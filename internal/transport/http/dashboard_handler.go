package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"firedays/internal/dataset"
	apierrors "firedays/internal/errors"
	"firedays/internal/services"
)

type contextKey string

const countyKey contextKey = "county"

// StructValidator runs validator-tag validation over a request struct.
// *middleware.ValidationMiddleware satisfies this.
type StructValidator interface {
	ValidateStruct(v interface{}) error
}

// DashboardHandler serves the dataset query endpoints.
type DashboardHandler struct {
	service      *services.DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     StructValidator
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *services.DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, validate StructValidator) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validate:     validate,
	}
}

// Routes returns the dashboard routes, mounted under /api by the app.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes attaches the dashboard routes to an existing router.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/counties", h.ListCounties)
		r.Route("/counties/{county}", func(r chi.Router) {
			r.Use(h.CountyCtx)
			// The incidents list skips the joined-set gate: a county can
			// have raw incident records without closure or enrollment
			// data.
			r.With(h.RequireCounty).Get("/impact", h.CountyImpact)
			r.Get("/incidents", h.CountyIncidents)
		})
		r.Get("/impact", h.StatewideImpact)

		r.Route("/data", func(r chi.Router) {
			r.Get("/status", h.DataStatus)
			r.Post("/reload", h.TriggerReload)
		})
	})
}

// countyParam carries the {county} URL parameter through tag validation.
type countyParam struct {
	County string `json:"county" validate:"required,county"`
}

// CountyCtx cleans the {county} URL parameter, runs it through the county
// validation rule and stores the normalized name in the request context.
func (h *DashboardHandler) CountyCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		county := dataset.NormalizeCounty(chi.URLParam(r, "county"))
		if err := h.validate.ValidateStruct(countyParam{County: county}); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		if !h.service.Loaded() {
			h.errorHandler.HandleError(w, r, apierrors.ErrSnapshotNotReady)
			return
		}

		ctx := context.WithValue(r.Context(), countyKey, county)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCounty rejects counties absent from the joined dataset. Routes
// that also serve raw incident records do not mount it.
func (h *DashboardHandler) RequireCounty(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		county := countyFromContext(r.Context())
		if !h.service.HasCounty(county) {
			h.errorHandler.HandleError(w, r, apierrors.CountyNotFoundError(county))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func countyFromContext(ctx context.Context) string {
	county, _ := ctx.Value(countyKey).(string)
	return county
}

// ListCounties handles GET /api/counties
func (h *DashboardHandler) ListCounties(w http.ResponseWriter, r *http.Request) {
	counties, err := h.service.Counties(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"counties": counties,
			"count":    len(counties),
		},
	})
}

// CountyImpact handles GET /api/counties/{county}/impact
func (h *DashboardHandler) CountyImpact(w http.ResponseWriter, r *http.Request) {
	county := countyFromContext(r.Context())

	q, err := h.bindImpactQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	impact, err := h.service.Impact(r.Context(), county, q.From, q.To)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build county impact",
			slog.String("county", county),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   impact,
	})
}

// CountyIncidents handles GET /api/counties/{county}/incidents
func (h *DashboardHandler) CountyIncidents(w http.ResponseWriter, r *http.Request) {
	county := countyFromContext(r.Context())

	q, err := h.bindIncidentsQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	incidents, err := h.service.TopIncidents(r.Context(), county, q.Limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"county":    county,
			"incidents": incidents,
			"count":     len(incidents),
		},
	})
}

// StatewideImpact handles GET /api/impact
func (h *DashboardHandler) StatewideImpact(w http.ResponseWriter, r *http.Request) {
	impact, err := h.service.Statewide(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   impact,
	})
}

// DataStatus handles GET /api/data/status
func (h *DashboardHandler) DataStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// TriggerReload handles POST /api/data/reload. The reload runs in the
// background; the client learns the outcome over the websocket. Requests
// that land while a load is running coalesce onto it and still get 202.
func (h *DashboardHandler) TriggerReload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "reload requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("remote_addr", r.RemoteAddr))

	message := "reload started"
	if !h.service.ReloadAsync("api") {
		message = "reload already running"
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"message": message,
		},
	})
}
