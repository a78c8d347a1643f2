package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/af-corp/googleapi/internal/config"
	"github.com/af-corp/googleapi/internal/httputil"
	"github.com/af-corp/googleapi/internal/service"
	"github.com/af-corp/googleapi/internal/tenant"
	"github.com/af-corp/googleapi/pkg/maps"
	"github.com/af-corp/googleapi/pkg/search"
	"github.com/af-corp/googleapi/pkg/transport"
)

const (
	testKey      = "MDEyMzQ1Njc4OWFiY2RlZmdoaWo="
	gatewayToken = "gapi-test-0123456789abcdef0123456789abcdef"
)

type mockStore struct {
	profiles map[string]*tenant.Profile
}

func (m *mockStore) Lookup(ctx context.Context, keyHash string) (*tenant.Profile, error) {
	return m.profiles[keyHash], nil
}

func newTestRouter(t *testing.T, upstream http.HandlerFunc) http.Handler {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	cfg := config.DefaultConfig()
	apis := &config.APIsConfig{APIs: map[string]config.APIConfig{
		maps.APIDistanceMatrix: {BaseURL: up.URL + "/distancematrix/json", Signable: true},
		maps.APIGeocode:        {BaseURL: up.URL + "/geocode/json", Signable: true},
		search.API:             {BaseURL: up.URL + "/customsearch/v1"},
	}}
	health := transport.NewHealthTracker(5, 0)
	svc := service.New(service.Deps{
		Config:    func() *config.Config { return cfg },
		APIs:      func() *config.APIsConfig { return apis },
		Transport: transport.NewClient(transport.WithHealthTracker(health)),
	})

	store := &mockStore{profiles: map[string]*tenant.Profile{
		tenant.HashKey(gatewayToken): {
			ID: "t-1", KeyID: "k-1", Name: "acme",
			ClientID: "gme-12345", SigningKey: testKey, APIKey: "plain-key",
		},
	}}
	h := NewHandler(svc, func() *config.Config { return cfg }, health, nil, "test")
	return NewRouter(h, tenant.Middleware(store))
}

func okUpstream(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+gatewayToken)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) httputil.APIErrorBody {
	t.Helper()
	var env httputil.APIError
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return env.Error
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{}`))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "healthy" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestRequestID_Echoed(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{}`))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "caller-42" {
		t.Errorf("X-Request-ID = %q, want caller-42", got)
	}
}

func TestAuthRequired(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{}`))

	req := httptest.NewRequest(http.MethodPost, "/v1/sign", strings.NewReader(`{"url":"https://x"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestSign(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{}`))

	w := do(t, h, http.MethodPost, "/v1/sign", `{"url":"https://maps.googleapis.com/maps/api/distancematrix/json?sensor=false"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp signResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	want := "https://maps.googleapis.com/maps/api/distancematrix/json?sensor=false&client=gme-12345&signature=yjuLutO_Qjc95g7etw2Wo4vUdjc="
	if !resp.Signed || resp.URL != want {
		t.Errorf("response = %+v, want %s", resp, want)
	}
}

func TestSign_BadBodies(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{}`))

	tests := []struct {
		name string
		body string
	}{
		{"not json", `url=x`},
		{"missing url", `{}`},
		{"unknown field", `{"url":"https://x","extra":1}`},
		{"relative url", `{"url":"/maps/api/geocode/json"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/sign", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body)
			}
		})
	}
}

func TestGeocode(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{"status":"OK","results":[{"formatted_address":"Berlin, Germany"}]}`))

	w := do(t, h, http.MethodPost, "/v1/maps/geocode", `{"address":"Berlin"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		RequestID string               `json:"request_id"`
		Signed    bool                 `json:"signed"`
		Result    maps.GeocodeResponse `json:"result"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Signed || resp.RequestID == "" {
		t.Errorf("envelope = %+v", resp)
	}
	if len(resp.Result.Results) != 1 || resp.Result.Results[0].FormattedAddress != "Berlin, Germany" {
		t.Errorf("result = %+v", resp.Result)
	}
}

func TestGeocode_ExactlyOneTarget(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{"status":"OK"}`))

	w := do(t, h, http.MethodPost, "/v1/maps/geocode", `{"address":"Berlin","place_id":"abc"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeError(t, w)
	if body.Code != "validation_failed" || body.Message != "Address, Location or PlaceId is required." {
		t.Errorf("error = %+v", body)
	}
}

func TestDistanceMatrix_TransitNeedsTime(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{"status":"OK"}`))

	w := do(t, h, http.MethodPost, "/v1/maps/distancematrix",
		`{"origins":["Berlin"],"destinations":["Potsdam"],"mode":"transit"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeError(t, w)
	if body.Message != "DepatureTime or ArrivalTime is required, when TravelMode is Transit." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestDistanceMatrix_RejectsUnknownMode(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{"status":"OK"}`))

	w := do(t, h, http.MethodPost, "/v1/maps/distancematrix",
		`{"origins":["Berlin"],"destinations":["Potsdam"],"mode":"teleport"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decodeError(t, w); !strings.Contains(body.Message, "mode") {
		t.Errorf("message = %q, want it to name the field", body.Message)
	}
}

func TestDistanceMatrix_MissingOrigins(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{"status":"OK"}`))

	w := do(t, h, http.MethodPost, "/v1/maps/distancematrix", `{"destinations":["Potsdam"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeError(t, w)
	if body.Field != "Origins" || body.Message != "Origins is required." {
		t.Errorf("error = %+v", body)
	}
}

func TestSearch_UpstreamError(t *testing.T) {
	h := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	w := do(t, h, http.MethodPost, "/v1/search", `{"q":"golang","cx":"cx-1"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if body := decodeError(t, w); body.Code != "upstream_status" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestSearch_APIErrorEnvelope(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{"error":{"code":400,"message":"Invalid Value","status":"INVALID_ARGUMENT"}}`))

	w := do(t, h, http.MethodPost, "/v1/search", `{"q":"golang","cx":"cx-1"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if body := decodeError(t, w); body.Code != "search_error" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestSearch_NumberOutOfRange(t *testing.T) {
	h := newTestRouter(t, okUpstream(`{}`))

	w := do(t, h, http.MethodPost, "/v1/search", `{"q":"golang","cx":"cx-1","num":11}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decodeError(t, w); body.Message != "Number must be between 1 and 10." {
		t.Errorf("message = %q", body.Message)
	}
}
