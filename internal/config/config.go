package config

import (
	"fmt"
	"time"

	"github.com/af-corp/googleapi/pkg/query"
	"github.com/af-corp/googleapi/pkg/signing"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Signing   SigningConfig   `yaml:"signing"`
	Transport TransportConfig `yaml:"transport"`
	Policy    PolicyConfig    `yaml:"policy"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes" validate:"gte=0"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	Name            string        `yaml:"name" validate:"required"`
	User            string        `yaml:"user" validate:"required"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses" validate:"required,min=1,dive,hostname_port"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db" validate:"gte=0"`
	PoolSize  int      `yaml:"pool_size" validate:"gte=0"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string `yaml:"log_format" validate:"omitempty,oneof=json text"`
	MetricsPath string `yaml:"metrics_path" validate:"omitempty,startswith=/"`
}

// SigningConfig holds the default premium credentials and the redaction policy
// applied to signed requests. Tenant profiles override the credentials.
type SigningConfig struct {
	Policy   string `yaml:"policy" validate:"omitempty,oneof=sensor_only keep_all"`
	ClientID string `yaml:"client_id" validate:"omitempty,gme_client_id"`
	Key      string `yaml:"key" validate:"required_with=ClientID"`
}

func (s SigningConfig) Credentials() signing.Credentials {
	return signing.Credentials{Key: s.Key, ClientID: s.ClientID}
}

// QueryPolicy resolves Policy; an unknown name was already rejected by validation.
func (s SigningConfig) QueryPolicy() query.Policy {
	p, err := query.ParsePolicy(s.Policy)
	if err != nil {
		return query.SensorOnly
	}
	return p
}

type TransportConfig struct {
	DefaultTimeout time.Duration        `yaml:"default_timeout" validate:"gte=0"`
	MaxBodyBytes   int64                `yaml:"max_body_bytes" validate:"gte=0"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold      int           `yaml:"failure_threshold" validate:"gte=1"`
	RecoveryProbeInterval time.Duration `yaml:"recovery_probe_interval" validate:"gt=0"`
}

type PolicyConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path" validate:"required_if=Enabled true"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Window  time.Duration `yaml:"window" validate:"required_if=Enabled true"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	DefaultTTL time.Duration `yaml:"default_ttl" validate:"gte=0"`
	KeyPrefix  string        `yaml:"key_prefix"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
			MaxBodyBytes:     1 << 20,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "googleapi",
			User:            "googleapi",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			PoolSize:  50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPath: "/metrics",
		},
		Signing: SigningConfig{
			Policy: "sensor_only",
		},
		Transport: TransportConfig{
			DefaultTimeout: 10 * time.Second,
			MaxBodyBytes:   10 << 20,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold:      5,
				RecoveryProbeInterval: 15 * time.Second,
			},
		},
		Policy: PolicyConfig{
			Enabled:           false,
			BundlePath:        "/etc/googleapi/policies",
			EvaluationTimeout: 100 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Window:  time.Minute,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: 5 * time.Minute,
			KeyPrefix:  "googleapi:cache:",
		},
	}
}
