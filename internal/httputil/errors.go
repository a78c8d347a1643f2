package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/af-corp/googleapi/pkg/maps"
	"github.com/af-corp/googleapi/pkg/search"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/transport"
	"github.com/af-corp/googleapi/pkg/validation"
)

// StatusClientClosedRequest is returned when the caller went away mid-request.
const StatusClientClosedRequest = 499

// APIError is the JSON error envelope of every non-2xx gateway response.
type APIError struct {
	Error APIErrorBody `json:"error"`
}

type APIErrorBody struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, requestID string, statusCode int, errType, code, message string) {
	writeBody(w, requestID, statusCode, APIErrorBody{Message: message, Type: errType, Code: code})
}

func writeBody(w http.ResponseWriter, requestID string, statusCode int, body APIErrorBody) {
	body.RequestID = requestID
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIError{Error: body})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, requestID string, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func WriteAuthError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusUnauthorized, "authentication_error", "invalid_api_key", message)
}

func WriteForbiddenError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusForbidden, "permission_error", "api_not_allowed", message)
}

func WriteRateLimitError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusTooManyRequests, "rate_limit_error", "rate_limit_exceeded", message)
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusBadRequest, "invalid_request_error", "invalid_request", message)
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusInternalServerError, "server_error", "internal_error", message)
}

func WriteServiceUnavailableError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusServiceUnavailable, "server_error", "service_unavailable", message)
}

// WriteRequestError maps errors from building, signing or sending a Google
// request onto a status code. Anything unrecognised is a 500 with a generic message.
func WriteRequestError(w http.ResponseWriter, requestID string, err error) {
	var (
		vErr   *validation.Error
		sErr   *signing.Error
		tErr   *transport.Error
		mErr   *maps.StatusError
		apiErr *search.APIError
	)

	switch {
	case errors.As(err, &vErr):
		writeBody(w, requestID, http.StatusBadRequest, APIErrorBody{
			Message: vErr.Message, Type: "invalid_request_error", Code: "validation_failed", Field: vErr.Field,
		})
	case errors.As(err, &sErr):
		WriteError(w, requestID, http.StatusBadRequest, "invalid_request_error", "signing_"+string(sErr.Reason), sErr.Message)
	case errors.As(err, &tErr):
		writeTransportError(w, requestID, tErr)
	case errors.As(err, &mErr):
		WriteError(w, requestID, http.StatusBadGateway, "upstream_error", string(mErr.Status), mErr.Error())
	case errors.As(err, &apiErr):
		WriteError(w, requestID, http.StatusBadGateway, "upstream_error", "search_error", apiErr.Error())
	default:
		WriteInternalError(w, requestID, "Internal error")
	}
}

func writeTransportError(w http.ResponseWriter, requestID string, err *transport.Error) {
	switch err.Kind {
	case transport.KindCancelled:
		WriteError(w, requestID, StatusClientClosedRequest, "request_error", "cancelled", "Request cancelled")
	case transport.KindTimedOut:
		WriteError(w, requestID, http.StatusGatewayTimeout, "upstream_error", "timed_out", "Upstream "+err.API+" timed out")
	case transport.KindCircuitOpen:
		WriteServiceUnavailableError(w, requestID, "Upstream "+err.API+" is temporarily unavailable")
	case transport.KindStatus:
		WriteError(w, requestID, http.StatusBadGateway, "upstream_error", "upstream_status", err.Error())
	default:
		WriteError(w, requestID, http.StatusBadGateway, "upstream_error", "upstream_unreachable", "Upstream "+err.API+" unreachable")
	}
}
