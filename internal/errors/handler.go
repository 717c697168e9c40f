package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem type URIs (RFC 7807).
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeServiceDown     = "/errors/service-unavailable"
	TypeTimeout         = "/errors/timeout"
	TypeConflict        = "/errors/conflict"
	TypePayloadTooLarge = "/errors/payload-too-large"

	TypeCountyNotFound   = "/errors/county-not-found"
	TypeDatasetNotReady  = "/errors/dataset-not-ready"
	TypeInvalidYearRange = "/errors/invalid-year-range"
	TypeSourceMissing    = "/errors/source-missing"
	TypeReloadInProgress = "/errors/reload-in-progress"
)

// sentinelProblem maps one domain sentinel error to its problem response.
type sentinelProblem struct {
	target     error
	status     int
	problemURI string
	errorCode  string
	title      string
	detail     string
	retryAfter int
}

// Sentinels get exact problem types; every other error collapses to a
// generic 500 so internal messages never leak to clients.
var sentinelProblems = []sentinelProblem{
	{ErrSnapshotNotReady, http.StatusServiceUnavailable, TypeDatasetNotReady, "DATASET_NOT_READY",
		"Dataset Not Ready", "The dataset has not finished loading. Try again shortly.", 5},
	{ErrCountyNotFound, http.StatusNotFound, TypeCountyNotFound, "COUNTY_NOT_FOUND",
		"County Not Found", "The requested county does not appear in the loaded dataset.", 0},
	{ErrInvalidYearRange, http.StatusBadRequest, TypeInvalidYearRange, "INVALID_YEAR_RANGE",
		"Invalid Year Range", "The from year must not be greater than the to year.", 0},
	{ErrSourceMissing, http.StatusServiceUnavailable, TypeSourceMissing, "SOURCE_MISSING",
		"Source File Missing", "One or more source data files could not be found in the data directory.", 0},
	{ErrReloadInProgress, http.StatusConflict, TypeReloadInProgress, "RELOAD_IN_PROGRESS",
		"Reload In Progress", "A dataset reload is already running.", 0},
}

// problem builds the ProblemDetails for one table entry.
func (s sentinelProblem) problem(instance string) *ProblemDetails {
	pd := NewProblemDetails(s.status, s.problemURI, s.title, s.detail, instance).
		WithExtension("error_code", s.errorCode)
	if s.retryAfter > 0 {
		pd.WithExtension("retry_after", s.retryAfter)
	}
	return pd
}

// errorCodeTypes maps APIError codes onto problem type URIs.
var errorCodeTypes = map[string]string{
	"VALIDATION_FAILED":   TypeValidation,
	"INVALID_REQUEST":     TypeValidation,
	"INVALID_JSON":        TypeValidation,
	"NOT_FOUND":           TypeNotFound,
	"COUNTY_NOT_FOUND":    TypeCountyNotFound,
	"RATE_LIMIT_EXCEEDED": TypeRateLimit,
	"SERVICE_UNAVAILABLE": TypeServiceDown,
	"DATASET_NOT_READY":   TypeDatasetNotReady,
	"PAYLOAD_TOO_LARGE":   TypePayloadTooLarge,
}

// ErrorHandler turns errors into RFC 7807 responses. includeStack adds
// stack traces to response bodies and should stay off outside development.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes its problem response. A nil err writes
// nothing.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("stack", currentStack())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem maps an error to problem details without writing anything.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout,
			"Request Timeout", "The request took too long to process and was cancelled", r.URL.Path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	for _, s := range sentinelProblems {
		if errors.Is(err, s.target) {
			return s.problem(r.URL.Path)
		}
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Internal Server Error", "An unexpected error occurred while processing your request", r.URL.Path)
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType, ok := errorCodeTypes[apiErr.ErrorCode]
	if !ok {
		problemType = TypeInternal
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic logs a recovered panic and responds 500. The panic value
// stays out of the body unless includeStack is set.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Internal Server Error", "An unexpected error occurred", r.URL.Path).
		WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", currentStack())
	}

	render.Render(w, r, problem)
}

// NotFound is the router's fallback for unknown API paths.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound,
		"Not Found", "The requested resource was not found", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context()))
	render.Render(w, r, problem)
}

// MethodNotAllowed is the router's fallback for bad verbs on known paths.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(http.StatusMethodNotAllowed, TypeInternal,
		"Method Not Allowed", "Method "+r.Method+" is not allowed for this endpoint", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context()))
	render.Render(w, r, problem)
}

// Middleware catches panics from downstream handlers.
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func currentStack() string {
	buf := make([]byte, 8*1024)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
