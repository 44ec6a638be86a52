package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mongorepo "github.com/Amxn-2/cyber-feed/internal/repository/mongo"
	"github.com/Amxn-2/cyber-feed/internal/service"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

// IncidentHandler handles HTTP requests for incident operations
type IncidentHandler struct {
	incidentService *service.IncidentService
	logger          *zap.Logger
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(incidentService *service.IncidentService, logger *zap.Logger) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
		logger:          logger,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta represents listing metadata
type Meta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// successResponse creates a successful response
func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// errorResponse creates an error response
func errorResponse(err error, message string) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
}

// RegisterRoutes registers all incident routes
func (h *IncidentHandler) RegisterRoutes(router chi.Router) {
	router.Post("/collect", h.TriggerCollection)

	router.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Get("/{incidentID}", h.GetIncident)
		r.Get("/{incidentID}/analysis", h.AnalyzeIncident)
	})

	router.Get("/analytics", h.GetAnalytics)
	router.Get("/map-data", h.GetMapData)
	router.Get("/status", h.GetStatus)
}

// ListIncidents returns incidents matching the query filters
func (h *IncidentHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	q := r.URL.Query()
	filter := mongorepo.Filter{
		Severity:  q.Get("severity"),
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Limit:     parseIntParam(q.Get("limit"), 50),
		Offset:    parseIntParam(q.Get("offset"), 0),
	}
	if q.Get("india_only") != "" {
		indiaOnly, err := strconv.ParseBool(q.Get("india_only"))
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, err, "Invalid india_only value")
			return
		}
		filter.IndiaOnly = indiaOnly
	}

	incidents, err := h.incidentService.ListIncidents(ctx, filter)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to list incidents")
		return
	}

	resp := successResponse(incidents, "Incidents retrieved successfully")
	resp.Meta = &Meta{Count: len(incidents), Limit: int(filter.Limit), Offset: int(filter.Offset)}
	h.respondWithJSON(w, http.StatusOK, resp)
	h.logger.Debug("Incidents listed via HTTP",
		util.Int("count", len(incidents)),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "ListIncidents"),
	)
}

// GetIncident returns a single incident by ID
func (h *IncidentHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	incidentID := chi.URLParam(r, "incidentID")
	incident, err := h.incidentService.GetIncident(ctx, incidentID)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to get incident")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(incident, "Incident retrieved successfully"))
	h.logger.Debug("Incident retrieved via HTTP",
		util.String("incident_id", incidentID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "GetIncident"),
	)
}

// AnalyzeIncident re-runs the classifier against a stored incident
func (h *IncidentHandler) AnalyzeIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	incidentID := chi.URLParam(r, "incidentID")
	incident, err := h.incidentService.AnalyzeIncident(ctx, incidentID, r.RemoteAddr)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to analyze incident")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(incident, "Incident analyzed successfully"))
	h.logger.Info("Incident re-analyzed via HTTP",
		util.String("incident_id", incidentID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "AnalyzeIncident"),
	)
}

// TriggerCollection schedules a collection cycle
func (h *IncidentHandler) TriggerCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.incidentService.TriggerCollection(ctx, r.RemoteAddr); err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to trigger collection")
		return
	}

	h.respondWithJSON(w, http.StatusAccepted, successResponse(nil, "Collection cycle started"))
	h.logger.Info("Collection triggered via HTTP",
		util.String("remote_addr", r.RemoteAddr),
		util.String("method", "TriggerCollection"),
	)
}

// GetAnalytics returns aggregate statistics for the dashboard
func (h *IncidentHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	analytics, err := h.incidentService.GetAnalytics(ctx)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to compute analytics")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(analytics, "Analytics computed successfully"))
	h.logger.Debug("Analytics served via HTTP",
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "GetAnalytics"),
	)
}

// GetMapData returns geolocated incidents for map rendering
func (h *IncidentHandler) GetMapData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	q := r.URL.Query()
	limit := parseIntParam(q.Get("limit"), 200)

	points, err := h.incidentService.GetMapData(ctx, q.Get("severity"), q.Get("category"), limit)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to get map data")
		return
	}

	resp := successResponse(points, "Map data retrieved successfully")
	resp.Meta = &Meta{Count: len(points)}
	h.respondWithJSON(w, http.StatusOK, resp)
	h.logger.Debug("Map data served via HTTP",
		util.Int("count", len(points)),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "GetMapData"),
	)
}

// GetStatus returns the system status snapshot
func (h *IncidentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.incidentService.GetStatus(ctx)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to get system status")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(status, "System status retrieved successfully"))
}

// HealthCheck verifies the service and its store are reachable
func (h *IncidentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.incidentService.HealthCheck(r.Context()); err != nil {
		h.respondWithError(w, http.StatusServiceUnavailable, err, "Service unhealthy")
		return
	}
	h.respondWithJSON(w, http.StatusOK, successResponse(map[string]string{
		"status":  "healthy",
		"service": "cyber-feed",
	}, ""))
}

// parseIntParam parses a non-negative integer query parameter with a default
func parseIntParam(raw string, def int64) int64 {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// respondWithJSON sends a JSON response
func (h *IncidentHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError sends an error response
func (h *IncidentHandler) respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	h.logger.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	h.respondWithJSON(w, statusCode, errorResponse(err, message))
}

// getStatusCode determines the appropriate HTTP status code for an error
func (h *IncidentHandler) getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrIncidentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCollectionInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrClassifierUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
