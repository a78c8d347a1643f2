// Package tenant resolves gateway keys to tenant profiles and authenticates
// gateway requests.
package tenant

import (
	"context"
	"slices"
	"time"

	"github.com/af-corp/googleapi/pkg/signing"
)

// Profile is what a gateway key unlocks: which Google APIs the tenant may call
// and with which Google credentials.
type Profile struct {
	ID          string   `json:"id"`
	KeyID       string   `json:"key_id"`
	Name        string   `json:"name"`
	AllowedAPIs []string `json:"allowed_apis"`

	// Google credentials. With ClientID set, requests are signed with
	// SigningKey; otherwise APIKey is sent as the plain key parameter.
	APIKey     string `json:"api_key,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
	SigningKey string `json:"signing_key,omitempty"`

	// RequestsPerMinute caps the tenant across all APIs when set. Per-API
	// quotas still apply underneath it.
	RequestsPerMinute *int      `json:"requests_per_minute,omitempty"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Credentials returns the Google credentials requests of this tenant carry.
// A tenant with none of its own falls back to fallback.
func (p *Profile) Credentials(fallback signing.Credentials) signing.Credentials {
	switch {
	case p.ClientID != "":
		return signing.Credentials{Key: p.SigningKey, ClientID: p.ClientID}
	case p.APIKey != "":
		return signing.Credentials{Key: p.APIKey}
	default:
		return fallback
	}
}

// Allows reports whether api is in the allow list. An empty list allows everything.
func (p *Profile) Allows(api string) bool {
	return len(p.AllowedAPIs) == 0 || slices.Contains(p.AllowedAPIs, api)
}

type contextKey string

const profileContextKey contextKey = "googleapi_tenant"

func ContextWithProfile(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, p)
}

func ProfileFromContext(ctx context.Context) (*Profile, bool) {
	p, ok := ctx.Value(profileContextKey).(*Profile)
	return p, ok
}
