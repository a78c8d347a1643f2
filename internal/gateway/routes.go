package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/af-corp/googleapi/internal/service"
)

// NewRouter mounts the gateway routes. authn runs before every /v1 route,
// followed by the extra middlewares in order.
func NewRouter(h *Handler, authn func(http.Handler) http.Handler, mws ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestID)

	// Unauthenticated routes
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Use(mws...)
		r.Post("/v1/sign", h.Sign)
		r.Post("/v1/maps/distancematrix", h.DistanceMatrix)
		r.Post("/v1/maps/geocode", h.Geocode)
		r.Post("/v1/search", h.Search)
	})
	return r
}

// RequestID echoes the caller's X-Request-ID or assigns a new one, and makes
// it available to the service for usage records.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = "req_" + uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(service.ContextWithRequestID(r.Context(), reqID)))
	})
}
