package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/logloss/pkg/logloss"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used with the dataset as
	// the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "loss > 0.5", "skill < 0",
	// "clamped_pct > 1", "state == poor".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultStoreTTL       = 24 * time.Hour
	DefaultMaxSamples     = 1_000_000
	DefaultMaxBootstrap   = 10_000
	DefaultStreamInterval = 5 * time.Second
	DefaultHeader         = "X-API-Key"
)

// Config holds the server-side configuration parsed from the `server:` section.
// Other top-level keys are ignored, so one file can serve CLI and server.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates REST clients.
	Auth AuthConfig `yaml:"auth"`

	// Store controls in-memory evaluation retention.
	Store StoreConfig `yaml:"store"`

	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Limits    LimitsConfig    `yaml:"limits"`
	Stream    StreamConfig    `yaml:"stream"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "X-API-Key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or DefaultHeader.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultHeader
}

// StoreConfig controls in-memory evaluation retention.
type StoreConfig struct {
	// TTL is how long a dataset's latest evaluation remains in the store after
	// its last update. Default: 24h.
	TTL time.Duration `yaml:"ttl"`
}

// EvaluatorConfig tunes the evaluator behind POST /api/v1/logloss.
type EvaluatorConfig struct {
	Epsilon float64 `yaml:"epsilon"`
	Workers int     `yaml:"workers"`
}

// LimitsConfig bounds the work a single request may ask for.
type LimitsConfig struct {
	MaxSamples   int `yaml:"max_samples"`
	MaxBootstrap int `yaml:"max_bootstrap"`
}

// StreamConfig controls the WebSocket snapshot stream.
type StreamConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Store: StoreConfig{
				TTL: DefaultStoreTTL,
			},
			Evaluator: EvaluatorConfig{
				Epsilon: logloss.DefaultEpsilon,
			},
			Limits: LimitsConfig{
				MaxSamples:   DefaultMaxSamples,
				MaxBootstrap: DefaultMaxBootstrap,
			},
			Stream: StreamConfig{
				Interval: DefaultStreamInterval,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.Auth.Mode {
	case "apikey":
		if s.Auth.KeyEnv == "" {
			return fmt.Errorf("server.auth.key_env is required when mode is apikey")
		}
	case "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Store.TTL <= 0 {
		return fmt.Errorf("server.store.ttl must be positive")
	}
	if eps := s.Evaluator.Epsilon; math.IsNaN(eps) || eps <= 0 || eps >= 0.5 {
		return fmt.Errorf("server.evaluator.epsilon %g must be in (0, 0.5)", eps)
	}
	if s.Evaluator.Workers < 0 {
		return fmt.Errorf("server.evaluator.workers must not be negative")
	}
	if s.Limits.MaxSamples <= 0 {
		return fmt.Errorf("server.limits.max_samples must be positive")
	}
	if s.Limits.MaxBootstrap < 0 {
		return fmt.Errorf("server.limits.max_bootstrap must not be negative")
	}
	if s.Stream.Interval <= 0 {
		return fmt.Errorf("server.stream.interval must be positive")
	}
	for i, r := range s.Alerts.Rules {
		if r.Name == "" || r.Condition == "" {
			return fmt.Errorf("server.alerts.rules[%d]: name and condition are required", i)
		}
	}
	for i, w := range s.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("server.alerts.webhooks[%d]: type %q unknown: want slack|teams|http", i, w.Type)
		}
	}
	return nil
}
