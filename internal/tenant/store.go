package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	redisCacheTTL  = 5 * time.Minute
	redisKeyPrefix = "googleapi:tenant:"
)

// Store looks up tenant profiles by gateway key hash. A nil profile with a nil
// error means the key is unknown, revoked or expired.
type Store interface {
	Lookup(ctx context.Context, keyHash string) (*Profile, error)
}

// CachedStore reads profiles from PostgreSQL and caches them in Redis.
type CachedStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewCachedStore(db *pgxpool.Pool, rdb *redis.Client) *CachedStore {
	return &CachedStore{db: db, redis: rdb}
}

func (s *CachedStore) Lookup(ctx context.Context, keyHash string) (*Profile, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, redisKeyPrefix+keyHash).Bytes()
		if err == nil {
			var p Profile
			if err := json.Unmarshal(cached, &p); err == nil && time.Now().Before(p.ExpiresAt) {
				return &p, nil
			}
		}
	}

	p, err := s.lookupDB(ctx, keyHash)
	if err != nil || p == nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(p); err == nil {
			ttl := min(redisCacheTTL, time.Until(p.ExpiresAt))
			s.redis.Set(ctx, redisKeyPrefix+keyHash, data, ttl)
		}
	}
	return p, nil
}

func (s *CachedStore) lookupDB(ctx context.Context, keyHash string) (*Profile, error) {
	if s.db == nil {
		return nil, errors.New("tenant store has no database")
	}

	var (
		p                            Profile
		apiKey, clientID, signingKey *string
	)
	err := s.db.QueryRow(ctx, `
		SELECT t.id, k.id, t.name, t.allowed_apis, t.api_key, t.client_id, t.signing_key,
		       k.requests_per_minute, k.expires_at
		FROM gateway_keys k
		JOIN tenants t ON t.id = k.tenant_id
		WHERE k.key_hash = $1
		  AND k.status = 'active'
		  AND k.expires_at > NOW()
	`, keyHash).Scan(
		&p.ID,
		&p.KeyID,
		&p.Name,
		&p.AllowedAPIs,
		&apiKey,
		&clientID,
		&signingKey,
		&p.RequestsPerMinute,
		&p.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query gateway_keys: %w", err)
	}
	p.APIKey = deref(apiKey)
	p.ClientID = deref(clientID)
	p.SigningKey = deref(signingKey)

	go func(keyID string) {
		bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := s.db.Exec(bgCtx, `UPDATE gateway_keys SET last_used_at = NOW() WHERE id = $1`, keyID); err != nil {
			slog.Debug("touch gateway key failed", "key_id", keyID, "error", err)
		}
	}(p.KeyID)

	return &p, nil
}

// NewTenant describes a tenant to create together with its first gateway key.
type NewTenant struct {
	Name        string
	AllowedAPIs []string
	APIKey      string
	ClientID    string
	SigningKey  string
	Env         string
	ValidFor    time.Duration
	// RequestsPerMinute is the tenant-wide cap; nil means none.
	RequestsPerMinute *int
}

// Create inserts a tenant and a gateway key for it in one transaction and
// returns the raw key. The raw key is never stored.
func (s *CachedStore) Create(ctx context.Context, nt NewTenant) (string, *Profile, error) {
	if s.db == nil {
		return "", nil, errors.New("tenant store has no database")
	}
	rawKey, err := GenerateKey(nt.Env)
	if err != nil {
		return "", nil, err
	}

	p := &Profile{
		ID:                uuid.NewString(),
		KeyID:             uuid.NewString(),
		Name:              nt.Name,
		AllowedAPIs:       nt.AllowedAPIs,
		APIKey:            nt.APIKey,
		ClientID:          nt.ClientID,
		SigningKey:        nt.SigningKey,
		RequestsPerMinute: nt.RequestsPerMinute,
		ExpiresAt:         time.Now().Add(nt.ValidFor).UTC(),
	}
	if p.AllowedAPIs == nil {
		p.AllowedAPIs = []string{}
	}

	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tenants (id, name, allowed_apis, api_key, client_id, signing_key)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		`, p.ID, p.Name, p.AllowedAPIs, p.APIKey, p.ClientID, p.SigningKey); err != nil {
			return fmt.Errorf("insert tenant: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO gateway_keys (id, tenant_id, key_hash, key_prefix, requests_per_minute, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.KeyID, p.ID, HashKey(rawKey), KeyPrefix(rawKey), p.RequestsPerMinute, p.ExpiresAt); err != nil {
			return fmt.Errorf("insert gateway key: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return rawKey, p, nil
}

// Revoke deactivates a key and drops it from the cache.
func (s *CachedStore) Revoke(ctx context.Context, rawKey string) error {
	if s.db == nil {
		return errors.New("tenant store has no database")
	}
	keyHash := HashKey(rawKey)
	tag, err := s.db.Exec(ctx, `UPDATE gateway_keys SET status = 'revoked' WHERE key_hash = $1`, keyHash)
	if err != nil {
		return fmt.Errorf("revoke gateway key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("revoke gateway key %s: not found", KeyPrefix(rawKey))
	}
	if s.redis != nil {
		s.redis.Del(ctx, redisKeyPrefix+keyHash)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
