package tenant

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey("prod")
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if !strings.HasPrefix(key, "gapi-prod-") {
		t.Errorf("key should start with 'gapi-prod-', got: %s", key)
	}
	// gapi-prod- is 10 chars, plus 32 random
	if len(key) != 42 {
		t.Errorf("len(key) = %d, want 42: %s", len(key), key)
	}

	key2, _ := GenerateKey("prod")
	if key == key2 {
		t.Error("two generated keys should not be identical")
	}
}

func TestHashKey(t *testing.T) {
	key := "gapi-prod-abcdefghijklmnopqrstuvwxyz012345"
	hash := HashKey(key)

	if len(hash) != 64 {
		t.Errorf("len(hash) = %d, want 64", len(hash))
	}
	if hash != HashKey(key) {
		t.Error("same key should produce same hash")
	}
	if hash == HashKey("gapi-prod-different") {
		t.Error("different keys should produce different hashes")
	}
}

func TestKeyPrefix(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"gapi-prod-abcdefghijklmnopqrstuvwxyz012345", "gapi-prod-abcdefgh"},
		{"gapi-dev-1234", "gapi-dev-1234"},
		{"short", "short"},
		{"no-dashes-at-all-but-long", "no-dashes-at-all-b"},
		{"nodashesbutaverylongstring", "nodashes"},
	}

	for _, tt := range tests {
		if got := KeyPrefix(tt.key); got != tt.expected {
			t.Errorf("KeyPrefix(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"365d", 365 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"", 0, true},
		{"xd", 0, true},
		{"nonsense", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
