package config

import (
	"time"

	"github.com/af-corp/googleapi/pkg/maps"
	"github.com/af-corp/googleapi/pkg/search"
)

// APIsConfig describes every Google endpoint the gateway may call, keyed by API name.
type APIsConfig struct {
	APIs map[string]APIConfig `yaml:"apis" validate:"dive"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// RequestsPerMinute is the per-tenant quota; zero disables it.
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"gte=0"`
	CacheTTL          time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	Signable          bool          `yaml:"signable"`
}

// Lookup returns the API's entry.
func (c *APIsConfig) Lookup(api string) (APIConfig, bool) {
	if c == nil {
		return APIConfig{}, false
	}
	a, ok := c.APIs[api]
	return a, ok
}

// DefaultAPIs is used for any API missing from apis.yaml.
func DefaultAPIs() *APIsConfig {
	return &APIsConfig{
		APIs: map[string]APIConfig{
			maps.APIDistanceMatrix: {
				BaseURL:           maps.Endpoint(maps.DefaultBaseURL, maps.APIDistanceMatrix),
				Timeout:           10 * time.Second,
				RequestsPerMinute: 600,
				CacheTTL:          5 * time.Minute,
				Signable:          true,
			},
			maps.APIGeocode: {
				BaseURL:           maps.Endpoint(maps.DefaultBaseURL, maps.APIGeocode),
				Timeout:           5 * time.Second,
				RequestsPerMinute: 600,
				CacheTTL:          24 * time.Hour,
				Signable:          true,
			},
			search.API: {
				BaseURL:           search.DefaultBaseURL,
				Timeout:           10 * time.Second,
				RequestsPerMinute: 100,
				CacheTTL:          time.Hour,
			},
		},
	}
}
