// Package gateway exposes signing and Google queries over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/af-corp/googleapi/internal/config"
	"github.com/af-corp/googleapi/internal/httputil"
	"github.com/af-corp/googleapi/internal/policy"
	"github.com/af-corp/googleapi/internal/ratelimit"
	"github.com/af-corp/googleapi/internal/service"
	"github.com/af-corp/googleapi/internal/telemetry"
	"github.com/af-corp/googleapi/internal/tenant"
	"github.com/af-corp/googleapi/pkg/transport"
)

// Handler holds dependencies for the gateway HTTP handlers.
type Handler struct {
	svc     *service.Service
	cfg     func() *config.Config
	health  *transport.HealthTracker
	metrics *telemetry.Metrics
	version string
}

func NewHandler(svc *service.Service, cfg func() *config.Config, health *transport.HealthTracker, metrics *telemetry.Metrics, version string) *Handler {
	return &Handler{
		svc:     svc,
		cfg:     cfg,
		health:  health,
		metrics: metrics,
		version: version,
	}
}

// queryResponse wraps a decoded Google response with how it was obtained.
type queryResponse struct {
	RequestID string `json:"request_id"`
	Signed    bool   `json:"signed"`
	Cached    bool   `json:"cached"`
	Result    any    `json:"result"`
}

// Sign handles POST /v1/sign
func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	profile, ok := tenant.ProfileFromContext(r.Context())
	if !ok {
		httputil.WriteAuthError(w, reqID, "Not authenticated")
		return
	}

	var body signBody
	if !h.decode(w, r, reqID, &body) {
		return
	}

	u, signed, err := h.svc.Sign(profile, body.URL)
	if err != nil {
		h.fail(w, reqID, "/v1/sign", err)
		return
	}

	h.metrics.RecordRequest("/v1/sign", http.StatusOK)
	httputil.WriteJSON(w, reqID, http.StatusOK, signResponse{URL: u.String(), Signed: signed})
}

// DistanceMatrix handles POST /v1/maps/distancematrix
func (h *Handler) DistanceMatrix(w http.ResponseWriter, r *http.Request) {
	const route = "/v1/maps/distancematrix"
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	profile, ok := tenant.ProfileFromContext(r.Context())
	if !ok {
		httputil.WriteAuthError(w, reqID, "Not authenticated")
		return
	}
	var body distanceMatrixBody
	if !h.decode(w, r, reqID, &body) {
		return
	}

	resp, meta, err := h.svc.DistanceMatrix(r.Context(), profile, body.request())
	if err != nil {
		h.fail(w, reqID, route, err)
		return
	}
	h.complete(w, reqID, route, profile, receivedAt, meta, resp)
}

// Geocode handles POST /v1/maps/geocode
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	const route = "/v1/maps/geocode"
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	profile, ok := tenant.ProfileFromContext(r.Context())
	if !ok {
		httputil.WriteAuthError(w, reqID, "Not authenticated")
		return
	}
	var body geocodeBody
	if !h.decode(w, r, reqID, &body) {
		return
	}

	resp, meta, err := h.svc.Geocode(r.Context(), profile, body.request())
	if err != nil {
		h.fail(w, reqID, route, err)
		return
	}
	h.complete(w, reqID, route, profile, receivedAt, meta, resp)
}

// Search handles POST /v1/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	const route = "/v1/search"
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	profile, ok := tenant.ProfileFromContext(r.Context())
	if !ok {
		httputil.WriteAuthError(w, reqID, "Not authenticated")
		return
	}
	var body searchBody
	if !h.decode(w, r, reqID, &body) {
		return
	}

	resp, meta, err := h.svc.Search(r.Context(), profile, body.request())
	if err != nil {
		h.fail(w, reqID, route, err)
		return
	}
	h.complete(w, reqID, route, profile, receivedAt, meta, resp)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	circuits := map[string]string{}
	if h.health != nil {
		for api, state := range h.health.States() {
			circuits[api] = state.String()
		}
	}
	httputil.WriteJSON(w, w.Header().Get("X-Request-ID"), http.StatusOK, map[string]any{
		"status":   "healthy",
		"version":  h.version,
		"circuits": circuits,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, reqID string, dst any) bool {
	maxBody := int64(1 << 20)
	if h.cfg != nil && h.cfg().Server.MaxBodyBytes > 0 {
		maxBody = h.cfg().Server.MaxBodyBytes
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, reqID, http.StatusRequestEntityTooLarge, "invalid_request_error", "body_too_large", "Request body too large")
			return false
		}
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return false
	}
	if err := checkBody(dst); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return false
	}
	return true
}

func (h *Handler) complete(w http.ResponseWriter, reqID, route string, p *tenant.Profile, receivedAt time.Time, meta service.Meta, result any) {
	slog.Info("request completed",
		"request_id", reqID,
		"route", route,
		"tenant_id", p.ID,
		"signed", meta.Signed,
		"cached", meta.Cached,
		"duration_ms", time.Since(receivedAt).Milliseconds(),
		"status_code", http.StatusOK,
	)
	h.metrics.RecordRequest(route, http.StatusOK)
	httputil.WriteJSON(w, reqID, http.StatusOK, queryResponse{
		RequestID: reqID,
		Signed:    meta.Signed,
		Cached:    meta.Cached,
		Result:    result,
	})
}

// fail writes err with the status the gateway uses for it and logs the outcome.
func (h *Handler) fail(w http.ResponseWriter, reqID, route string, err error) {
	var (
		exceeded *ratelimit.ExceededError
		status   int
	)
	switch {
	case errors.Is(err, policy.ErrDenied):
		status = http.StatusForbidden
		httputil.WriteForbiddenError(w, reqID, err.Error())
	case errors.As(err, &exceeded):
		status = http.StatusTooManyRequests
		ratelimit.SetHeaders(w, exceeded.Result)
		httputil.WriteRateLimitError(w, reqID, err.Error())
	case errors.Is(err, service.ErrUnknownAPI):
		status = http.StatusNotFound
		httputil.WriteError(w, reqID, status, "invalid_request_error", "api_not_configured", err.Error())
	default:
		rec := &statusRecorder{ResponseWriter: w}
		httputil.WriteRequestError(rec, reqID, err)
		status = rec.status
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(context.Background(), level, "request failed",
		"request_id", reqID,
		"route", route,
		"status_code", status,
		"kind", string(transport.KindOf(err)),
		"error", err,
	)
	h.metrics.RecordRequest(route, status)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
