// Package maps holds the Google Maps web-service request shapes and their responses.
package maps

import (
	"encoding/json"
	"fmt"

	"github.com/af-corp/googleapi/pkg/types"
)

const (
	// DefaultBaseURL is the host every Maps web service lives under.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"

	APIDistanceMatrix = "distancematrix"
	APIGeocode        = "geocode"
)

// Endpoint is the JSON endpoint of api under base, e.g. ".../distancematrix/json".
func Endpoint(base, api string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/" + api + "/json"
}

// StatusError is a response whose top-level status says the query failed.
type StatusError struct {
	API     string
	Status  types.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.API, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.API, e.Status, e.Message)
}

func statusErr(api string, s types.Status, msg string) error {
	if s.Succeeded() {
		return nil
	}
	return &StatusError{API: api, Status: s, Message: msg}
}

func decode[T any](api string, body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", api, err)
	}
	return &out, nil
}
