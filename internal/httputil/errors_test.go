package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/af-corp/googleapi/pkg/maps"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/transport"
	"github.com/af-corp/googleapi/pkg/types"
	"github.com/af-corp/googleapi/pkg/validation"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp APIError
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "req_123", http.StatusBadRequest, "invalid_request_error", "bad_request", "test message")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
	if rid := w.Header().Get("X-Request-ID"); rid != "req_123" {
		t.Errorf("X-Request-ID = %s, want req_123", rid)
	}

	resp := decodeError(t, w)
	if resp.Error.Message != "test message" {
		t.Errorf("message = %q, want 'test message'", resp.Error.Message)
	}
	if resp.Error.RequestID != "req_123" {
		t.Errorf("request_id = %q, want req_123", resp.Error.RequestID)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, "req_1", http.StatusOK, map[string]string{"url": "https://example.com"})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["url"] != "https://example.com" {
		t.Errorf("url = %q", got["url"])
	}
}

func TestWriteRequestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("build: %w", &validation.Error{Field: "Origins", Message: "Origins is required."}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_failed",
			wantMsg:    "Origins is required.",
		},
		{
			name:       "signing",
			err:        signing.ErrInvalidClientID,
			wantStatus: http.StatusBadRequest,
			wantCode:   "signing_invalid_client_id",
			wantMsg:    "A clientId must start with 'gme-'.",
		},
		{
			name:       "cancelled",
			err:        &transport.Error{Kind: transport.KindCancelled, API: "geocode"},
			wantStatus: StatusClientClosedRequest,
			wantCode:   "cancelled",
		},
		{
			name:       "timed out",
			err:        &transport.Error{Kind: transport.KindTimedOut, API: "geocode"},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "timed_out",
		},
		{
			name:       "circuit open",
			err:        &transport.Error{Kind: transport.KindCircuitOpen, API: "geocode"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "service_unavailable",
		},
		{
			name:       "upstream status",
			err:        &transport.Error{Kind: transport.KindStatus, API: "geocode", StatusCode: 500},
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_status",
		},
		{
			name:       "network",
			err:        &transport.Error{Kind: transport.KindNetwork, API: "geocode"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_unreachable",
		},
		{
			name:       "google status",
			err:        &maps.StatusError{API: "geocode", Status: types.StatusRequestDenied},
			wantStatus: http.StatusBadGateway,
			wantCode:   "REQUEST_DENIED",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			wantMsg:    "Internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteRequestError(w, "req", tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decodeError(t, w)
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
			if tt.wantMsg != "" && resp.Error.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.wantMsg)
			}
		})
	}
}

func TestWriteRequestError_ValidationField(t *testing.T) {
	w := httptest.NewRecorder()
	WriteRequestError(w, "req", &validation.Error{Field: "Destinations", Message: "Destinations is required."})

	if got := decodeError(t, w).Error.Field; got != "Destinations" {
		t.Errorf("field = %q, want Destinations", got)
	}
}
