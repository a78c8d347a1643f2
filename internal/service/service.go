// Package service runs one Google query end to end: access policy, quota,
// credentials, URI assembly, cache, transport, decoding and bookkeeping.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/af-corp/googleapi/internal/cache"
	"github.com/af-corp/googleapi/internal/config"
	"github.com/af-corp/googleapi/internal/policy"
	"github.com/af-corp/googleapi/internal/ratelimit"
	"github.com/af-corp/googleapi/internal/telemetry"
	"github.com/af-corp/googleapi/internal/tenant"
	"github.com/af-corp/googleapi/internal/usage"
	"github.com/af-corp/googleapi/pkg/maps"
	"github.com/af-corp/googleapi/pkg/request"
	"github.com/af-corp/googleapi/pkg/search"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/transport"
	"github.com/af-corp/googleapi/pkg/validation"
)

// ErrUnknownAPI is returned for an API with no entry in the API table.
var ErrUnknownAPI = errors.New("api not configured")

// Deps are the collaborators of a Service. Config and APIs are read on every
// call so that reloaded files take effect immediately. Everything except
// Config, APIs and Transport may be nil.
type Deps struct {
	Config    func() *config.Config
	APIs      func() *config.APIsConfig
	Transport *transport.Client
	Cache     ResponseCache
	Quota     *ratelimit.Quota
	Policy    *policy.Evaluator
	Usage     usage.Recorder
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// ResponseCache is satisfied by *cache.Cache.
type ResponseCache interface {
	Key(tenantID, api, requestURI string) string
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration)
}

type Service struct {
	Deps
}

func New(d Deps) *Service {
	if d.Usage == nil {
		d.Usage = usage.Discard{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Cache == nil {
		d.Cache = cache.New(nil, "")
	}
	return &Service{Deps: d}
}

// Meta describes how a result was obtained.
type Meta struct {
	Signed   bool          `json:"signed"`
	Cached   bool          `json:"cached"`
	Duration time.Duration `json:"-"`
}

// DistanceMatrix runs r for the tenant p. p may be nil for direct callers,
// in which case the request's own or the configured credentials apply.
func (s *Service) DistanceMatrix(ctx context.Context, p *tenant.Profile, r maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, Meta, error) {
	ex, err := s.fetch(ctx, p, r)
	if err != nil {
		return nil, ex.meta(), err
	}
	resp, err := maps.DecodeDistanceMatrix(ex.body)
	if err == nil {
		err = resp.Err()
	}
	return resp, ex.meta(), s.finish(ctx, p, ex, err)
}

func (s *Service) Geocode(ctx context.Context, p *tenant.Profile, r maps.GeocodeRequest) (*maps.GeocodeResponse, Meta, error) {
	ex, err := s.fetch(ctx, p, r)
	if err != nil {
		return nil, ex.meta(), err
	}
	resp, err := maps.DecodeGeocode(ex.body)
	if err == nil {
		err = resp.Err()
	}
	return resp, ex.meta(), s.finish(ctx, p, ex, err)
}

func (s *Service) Search(ctx context.Context, p *tenant.Profile, r search.Request) (*search.Response, Meta, error) {
	ex, err := s.fetch(ctx, p, r)
	if err != nil {
		return nil, ex.meta(), err
	}
	resp, err := search.DecodeResponse(ex.body)
	return resp, ex.meta(), s.finish(ctx, p, ex, err)
}

// Sign signs an already assembled URL with the tenant's credentials. A
// tenant without a client id gets rawURL back unchanged.
func (s *Service) Sign(p *tenant.Profile, rawURL string) (*url.URL, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false, &validation.Error{Field: "url", Message: "url is not a valid URL."}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, false, &validation.Error{Field: "url", Message: "url must be absolute."}
	}

	creds := s.fallbackCredentials()
	if p != nil {
		creds = p.Credentials(creds)
	}
	signed, err := signing.Sign(u, creds)
	if err != nil {
		return nil, false, err
	}
	if creds.Signed() {
		s.Metrics.RecordSigned("raw", "none")
	}
	return signed, creds.Signed(), nil
}

// exchange is one query in flight.
type exchange struct {
	requestID string
	api       string
	cfg       config.APIConfig
	cacheKey  string
	signed    bool
	cached    bool
	body      []byte
	status    int
	started   time.Time
}

func (ex *exchange) meta() Meta {
	if ex == nil {
		return Meta{}
	}
	return Meta{Signed: ex.signed, Cached: ex.cached, Duration: time.Since(ex.started)}
}

// fetch returns the raw body for r, from cache or from Google.
func (s *Service) fetch(ctx context.Context, p *tenant.Profile, r request.Request) (*exchange, error) {
	api := r.API()
	ex := &exchange{requestID: RequestIDFromContext(ctx), api: api, started: time.Now()}

	cfg, ok := s.APIs().Lookup(api)
	if !ok {
		return ex, fmt.Errorf("%s: %w", api, ErrUnknownAPI)
	}
	ex.cfg = cfg

	creds := s.credentials(p, r, cfg.Signable)
	ex.signed = creds.Signed()

	tenantID := ""
	if p != nil {
		tenantID = p.ID
		in := policy.TenantInput{ID: p.ID, Name: p.Name, AllowedAPIs: p.AllowedAPIs}
		if err := s.Policy.Check(ctx, in, api, ex.signed); err != nil {
			s.Metrics.RecordPolicyDenial(api)
			return ex, err
		}
		if _, err := s.Quota.Allow(ctx, p.ID, api, cfg.RequestsPerMinute); err != nil {
			var exceeded *ratelimit.ExceededError
			if errors.As(err, &exceeded) {
				s.Metrics.RecordRateLimitHit("api", api)
				return ex, err
			}
			s.Logger.Warn("quota check failed, allowing", "api", api, "tenant_id", tenantID, "error", err)
		}
	}

	signingCfg := s.Config().Signing
	u, err := request.Builder{Policy: signingCfg.QueryPolicy()}.Build(cfg.BaseURL, withCredentials{r, creds})
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			s.Metrics.RecordValidationFailure(api, verr.Field)
		}
		return ex, err
	}
	if ex.signed {
		s.Metrics.RecordSigned(api, signingCfg.QueryPolicy().Name())
	}

	// The signed URI may be redacted down to a few parameters, so the key is
	// built from the full parameter list instead.
	ex.cacheKey = s.Cache.Key(tenantID, api, cfg.BaseURL+"?"+r.QueryParameters().Encode())
	if body, hit := s.Cache.Get(ctx, ex.cacheKey); hit {
		ex.cached = true
		ex.body = body
		s.Metrics.RecordCache(api, true)
		return ex, nil
	}
	s.Metrics.RecordCache(api, false)

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = s.Config().Transport.DefaultTimeout
	}
	res := <-s.Transport.SendAsync(ctx, api, u, timeout)
	s.observeCircuit(api)
	if res.Err != nil {
		var terr *transport.Error
		if errors.As(res.Err, &terr) {
			ex.status = terr.StatusCode
		}
		s.recordUpstream(p, ex, string(transport.KindOf(res.Err)))
		return ex, res.Err
	}

	ex.status = res.Response.StatusCode
	ex.body = res.Response.Body
	return ex, nil
}

// finish records the outcome of a decoded exchange and caches successes.
func (s *Service) finish(ctx context.Context, p *tenant.Profile, ex *exchange, decodeErr error) error {
	outcome := "ok"
	switch {
	case ex.cached:
		outcome = "cached"
	case decodeErr != nil:
		outcome = "api_error"
	}

	if ex.cached {
		s.Usage.Record(s.usageRecord(p, ex, outcome))
		return decodeErr
	}

	s.recordUpstream(p, ex, outcome)
	if decodeErr == nil {
		ttl := ex.cfg.CacheTTL
		if ttl == 0 {
			ttl = s.Config().Cache.DefaultTTL
		}
		s.Cache.Set(ctx, ex.cacheKey, ex.body, ttl)
	}
	return decodeErr
}

func (s *Service) recordUpstream(p *tenant.Profile, ex *exchange, outcome string) {
	d := time.Since(ex.started)
	s.Metrics.RecordUpstream(ex.api, outcome, float64(d.Milliseconds()))
	s.Usage.Record(s.usageRecord(p, ex, outcome))
	s.Logger.Debug("upstream call", "api", ex.api, "outcome", outcome, "status", ex.status, "duration_ms", d.Milliseconds())
}

func (s *Service) usageRecord(p *tenant.Profile, ex *exchange, outcome string) usage.Record {
	rec := usage.Record{
		RequestID:  ex.requestID,
		API:        ex.api,
		Signed:     ex.signed,
		Cached:     ex.cached,
		Outcome:    outcome,
		StatusCode: ex.status,
		Duration:   time.Since(ex.started),
	}
	if p != nil {
		rec.TenantID = p.ID
		rec.KeyID = p.KeyID
	}
	return rec
}

func (s *Service) observeCircuit(api string) {
	ht := s.Transport.Health()
	if ht == nil {
		return
	}
	s.Metrics.SetCircuitState(api, int(ht.Breaker(api).State()))
}

// credentials picks what r travels with: the request's own credentials, else
// the tenant's, else the configured ones. APIs that cannot be signed only ever
// get a plain key.
func (s *Service) credentials(p *tenant.Profile, r request.Request, signable bool) signing.Credentials {
	creds := r.Credentials()
	if creds == (signing.Credentials{}) {
		creds = s.fallbackCredentials()
		if p != nil {
			creds = p.Credentials(creds)
		}
	}
	if !signable && creds.Signed() {
		key := ""
		if p != nil {
			key = p.APIKey
		}
		creds = signing.Credentials{Key: key}
	}
	return creds
}

func (s *Service) fallbackCredentials() signing.Credentials {
	return s.Config().Signing.Credentials()
}

// withCredentials overrides the credentials a request carries.
type withCredentials struct {
	request.Request
	creds signing.Credentials
}

func (w withCredentials) Credentials() signing.Credentials { return w.creds }

type requestIDKey struct{}

// ContextWithRequestID tags ctx so usage records can be joined to gateway logs.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
