package ratelimit

import (
	"context"
	"time"
)

// Quota enforces per-tenant, per-API request budgets over a fixed window length.
type Quota struct {
	limiter *Limiter
	window  time.Duration
}

func NewQuota(limiter *Limiter, window time.Duration) *Quota {
	if window <= 0 {
		window = time.Minute
	}
	return &Quota{limiter: limiter, window: window}
}

// Allow admits one call of tenantID to api. A nil Quota admits everything.
func (q *Quota) Allow(ctx context.Context, tenantID, api string, limit int) (LimitResult, error) {
	if q == nil {
		return LimitResult{Allowed: true}, nil
	}
	res, err := q.limiter.Check(ctx, Key("api", tenantID, api), int64(limit), q.window)
	if err != nil {
		return res, err
	}
	if !res.Allowed {
		return res, &ExceededError{Scope: "api", API: api, Result: res}
	}
	return res, nil
}
