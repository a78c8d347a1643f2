package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/af-corp/googleapi/internal/httputil"
	"github.com/af-corp/googleapi/internal/telemetry"
	"github.com/af-corp/googleapi/internal/tenant"
)

const (
	headerLimit     = "X-RateLimit-Limit"
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
	headerRetry     = "Retry-After"
)

// SetHeaders exposes a limit result to the client.
func SetHeaders(w http.ResponseWriter, res LimitResult) {
	if res.Limit <= 0 {
		return
	}
	w.Header().Set(headerLimit, strconv.FormatInt(res.Limit, 10))
	w.Header().Set(headerRemaining, strconv.FormatInt(res.Remaining, 10))
	w.Header().Set(headerReset, res.ResetAt.UTC().Format(time.RFC3339))
	if !res.Allowed {
		w.Header().Set(headerRetry, strconv.Itoa(int(res.RetryAfter.Seconds())))
	}
}

// Middleware enforces a tenant-wide request cap across all APIs for tenants
// whose profile sets RequestsPerMinute. Per-API quotas are applied later, by
// the service, once the API is known.
func Middleware(limiter *Limiter, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := tenant.ProfileFromContext(r.Context())
			if !ok || profile.RequestsPerMinute == nil {
				next.ServeHTTP(w, r)
				return
			}

			rpm := *profile.RequestsPerMinute
			res, _ := limiter.Check(r.Context(), Key("tenant", profile.ID), int64(rpm), time.Minute)
			SetHeaders(w, res)

			if !res.Allowed {
				reqID := w.Header().Get("X-Request-ID")
				slog.Warn("rate limit exceeded",
					"request_id", reqID,
					"tenant_id", profile.ID,
					"scope", "tenant",
					"limit", rpm,
				)
				metrics.RecordRateLimitHit("tenant", "")
				httputil.WriteRateLimitError(w, reqID,
					fmt.Sprintf("Rate limit exceeded: %d requests per minute. Retry after %s", rpm, res.ResetAt.UTC().Format(time.RFC3339)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
