package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/logloss/pkg/logloss"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultEpsilon             = logloss.DefaultEpsilon
	DefaultConfidence          = 0.95
	DefaultBootstrapIterations = logloss.DefaultBootstrapIterations
	DefaultBufferSize          = 100

	DefaultDemoSamples   = 100
	DefaultDemoSeed      = 42
	DefaultDemoMaxHours  = 10.0
	DefaultDemoThreshold = 5.0
	DefaultDemoNoise     = 1.5
	DefaultDemoC         = 1.0
)

// Config is the top-level configuration for the logloss CLI.
// Fields map 1:1 to logloss.example.yaml.
type Config struct {
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`

	// Datasets is the list of prediction files evaluated by `eval` and `watch`.
	Datasets []Dataset `yaml:"datasets"`

	Output OutputConfig `yaml:"output"`

	// Server configures shipping results to logloss-server.
	Server ServerConfig `yaml:"server"`

	Demo DemoConfig `yaml:"demo"`
}

// EvaluatorConfig holds the evaluator tunables.
type EvaluatorConfig struct {
	// Epsilon is the clamp bound applied to every probability. Must be in (0, 0.5).
	Epsilon float64 `yaml:"epsilon"`

	// Workers caps concurrent chunks. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// ChunkSize is the per-worker slice length. 0 means the library default.
	ChunkSize int `yaml:"chunk_size"`
}

// BootstrapConfig controls the confidence interval attached to each result.
type BootstrapConfig struct {
	// Iterations is the number of resamples. 0 disables the interval.
	Iterations int `yaml:"iterations"`

	// Confidence is the interval level, e.g. 0.95.
	Confidence float64 `yaml:"confidence"`

	// Seed makes intervals reproducible across runs.
	Seed uint64 `yaml:"seed"`
}

// Dataset names one CSV file of label,probability rows.
type Dataset struct {
	Name string `yaml:"name"`

	// Path is resolved relative to the config file's directory.
	Path string `yaml:"path"`
}

// OutputConfig controls where results are written besides stdout.
type OutputConfig struct {
	// Textfile is a node_exporter textfile collector path. Empty disables it.
	Textfile string `yaml:"textfile"`
}

// ServerConfig holds the logloss-server connection settings.
type ServerConfig struct {
	// Endpoint is the base URL of logloss-server, e.g. http://localhost:8080.
	// Empty disables shipping.
	Endpoint string `yaml:"endpoint"`

	// BufferSize is the maximum number of evaluations held while the server
	// is unreachable.
	BufferSize int `yaml:"buffer_size"`

	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies how the CLI authenticates to the server.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header carrying the key. Defaults to X-API-Key.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// DemoConfig parameterises the hours-studied walkthrough.
type DemoConfig struct {
	Samples int    `yaml:"samples"`
	Seed    uint64 `yaml:"seed"`

	// MaxHours bounds the uniform draw of hours studied.
	MaxHours float64 `yaml:"max_hours"`

	// Threshold is the hours at which passing becomes more likely than not.
	Threshold float64 `yaml:"threshold"`

	// Noise is the standard deviation of the latent pass score.
	Noise float64 `yaml:"noise"`

	// C is the inverse L2 regularisation strength of the logistic fit.
	C float64 `yaml:"c"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults and relative dataset
// paths are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	base := filepath.Dir(path)
	for i := range cfg.Datasets {
		if !filepath.IsAbs(cfg.Datasets[i].Path) {
			cfg.Datasets[i].Path = filepath.Join(base, cfg.Datasets[i].Path)
		}
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values. It is also the
// configuration used when the CLI runs without a config file.
func Default() *Config {
	return &Config{
		Evaluator: EvaluatorConfig{
			Epsilon: DefaultEpsilon,
		},
		Bootstrap: BootstrapConfig{
			Confidence: DefaultConfidence,
		},
		Server: ServerConfig{
			BufferSize: DefaultBufferSize,
		},
		Demo: DemoConfig{
			Samples:   DefaultDemoSamples,
			Seed:      DefaultDemoSeed,
			MaxHours:  DefaultDemoMaxHours,
			Threshold: DefaultDemoThreshold,
			Noise:     DefaultDemoNoise,
			C:         DefaultDemoC,
		},
	}
}

// Validate checks a Config built outside Load, e.g. Default with flag overrides.
func Validate(cfg *Config) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	eps := cfg.Evaluator.Epsilon
	if math.IsNaN(eps) || eps <= 0 || eps >= 0.5 {
		return fmt.Errorf("evaluator.epsilon %g must be in (0, 0.5)", eps)
	}
	if cfg.Evaluator.Workers < 0 {
		return fmt.Errorf("evaluator.workers must not be negative")
	}
	if cfg.Evaluator.ChunkSize < 0 {
		return fmt.Errorf("evaluator.chunk_size must not be negative")
	}

	if cfg.Bootstrap.Iterations < 0 {
		return fmt.Errorf("bootstrap.iterations must not be negative")
	}
	if c := cfg.Bootstrap.Confidence; c <= 0 || c >= 1 {
		return fmt.Errorf("bootstrap.confidence %g must be in (0, 1)", c)
	}

	seen := make(map[string]bool, len(cfg.Datasets))
	for i, ds := range cfg.Datasets {
		if ds.Name == "" {
			return fmt.Errorf("datasets[%d]: name is required", i)
		}
		if ds.Path == "" {
			return fmt.Errorf("datasets[%d] %q: path is required", i, ds.Name)
		}
		if seen[ds.Name] {
			return fmt.Errorf("datasets[%d]: duplicate name %q", i, ds.Name)
		}
		seen[ds.Name] = true
	}

	if cfg.Server.Endpoint != "" {
		u, err := url.Parse(cfg.Server.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server.endpoint %q must be an http(s) URL", cfg.Server.Endpoint)
		}
	}
	if cfg.Server.BufferSize <= 0 {
		return fmt.Errorf("server.buffer_size must be positive")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}

	d := cfg.Demo
	if d.Samples <= 0 {
		return fmt.Errorf("demo.samples must be positive")
	}
	if d.MaxHours <= 0 {
		return fmt.Errorf("demo.max_hours must be positive")
	}
	if d.Noise < 0 {
		return fmt.Errorf("demo.noise must not be negative")
	}
	if d.C <= 0 {
		return fmt.Errorf("demo.c must be positive")
	}
	return nil
}
