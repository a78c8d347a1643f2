package tenant

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	keyPrefix    = "gapi"
	alphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateKey creates a gateway key of the form gapi-{env}-{32 random alphanumeric chars}.
func GenerateKey(env string) (string, error) {
	random, err := randomString(32)
	if err != nil {
		return "", fmt.Errorf("generate random: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", keyPrefix, env, random), nil
}

// HashKey is the SHA-256 hex digest stored in place of the key.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// KeyPrefix is the display-safe gapi-{env}-{first 8 chars} of a key.
func KeyPrefix(key string) string {
	parts := strings.SplitN(key, "-", 3)
	if len(parts) != 3 {
		if len(key) > 8 {
			return key[:8]
		}
		return key
	}
	random := parts[2]
	if len(random) > 8 {
		random = random[:8]
	}
	return parts[0] + "-" + parts[1] + "-" + random
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}

// ParseDuration parses "365d", "30d" or anything time.ParseDuration accepts.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		var n int
		if _, err := fmt.Sscanf(days, "%d", &n); err != nil {
			return 0, fmt.Errorf("parse days: %w", err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
