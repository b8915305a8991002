// Package config handles application configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Database   DatabaseConfig  `yaml:"database"`
	Analysis   AnalysisConfig  `yaml:"analysis"`
	Upload     UploadConfig    `yaml:"upload"`
	Sessions   SessionConfig   `yaml:"sessions"`
	RateLimits RateLimitConfig `yaml:"rate_limits"`
	Logging    LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port     int  `yaml:"port"`
	EnableUI bool `yaml:"enable_ui"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite
	Path   string `yaml:"path"`
}

// AnalysisConfig selects and tunes the analysis provider.
type AnalysisConfig struct {
	Provider  string            `yaml:"provider"` // mock, http, openai, anthropic
	Routes    map[string]string `yaml:"routes"`   // per-kind provider override
	Timeout   time.Duration     `yaml:"timeout"`
	Mock      MockConfig        `yaml:"mock"`
	HTTP      HTTPConfig        `yaml:"http"`
	OpenAI    OpenAIConfig      `yaml:"openai"`
	Anthropic AnthropicConfig   `yaml:"anthropic"`
}

type MockConfig struct {
	MinDelay      time.Duration `yaml:"min_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	SyntheticRate float64       `yaml:"synthetic_rate"`
	MinConfidence float64       `yaml:"min_confidence"`
	MaxConfidence float64       `yaml:"max_confidence"`
	Seed          uint64        `yaml:"seed"` // 0 picks a random seed
}

type HTTPConfig struct {
	BaseURL           string            `yaml:"base_url"`
	Endpoints         map[string]string `yaml:"endpoints"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // defaults to https://api.anthropic.com
}

type UploadConfig struct {
	Interval time.Duration `yaml:"interval"`
	Step     int           `yaml:"step"`
	MaxBytes int64         `yaml:"max_bytes"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxNotices    int           `yaml:"max_notices"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"default_requests_per_minute"`
	AnalyzePerMinute  int `yaml:"analyze_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			EnableUI: true,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./data/realitycheck.db",
		},
		Analysis: AnalysisConfig{
			Provider: "mock",
			Routes:   map[string]string{},
			Timeout:  30 * time.Second,
			Mock: MockConfig{
				MinDelay:      2 * time.Second,
				MaxDelay:      5 * time.Second,
				SyntheticRate: 0.6,
				MinConfidence: 0.70,
				MaxConfidence: 1.00,
			},
			HTTP: HTTPConfig{
				BaseURL: "http://localhost:8000",
				Endpoints: map[string]string{
					"video": "/api/video-detect",
					"image": "/api/image-detect",
					"audio": "/api/audio-detect",
					"text":  "/api/news-detect",
				},
				RequestsPerSecond: 5,
			},
			OpenAI: OpenAIConfig{
				Model: "gpt-4o-mini",
			},
			Anthropic: AnthropicConfig{
				Model: "claude-3-haiku-20240307",
			},
		},
		Upload: UploadConfig{
			Interval: 100 * time.Millisecond,
			Step:     10,
			MaxBytes: 50 << 20,
		},
		Sessions: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
			MaxNotices:    20,
		},
		RateLimits: RateLimitConfig{
			RequestsPerMinute: 120,
			AnalyzePerMinute:  20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'realitycheck config init' to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	content := interpolateEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GenerateSample creates a sample configuration file.
func GenerateSample(path string) error {
	sample := `# Reality Check Configuration

server:
  port: 8080
  enable_ui: true

database:
  driver: sqlite
  path: ./data/realitycheck.db

analysis:
  provider: mock  # mock, http, openai, anthropic
  timeout: 30s

  # Per-kind override, e.g. send text to OpenAI and keep media on the mock:
  # routes:
  #   text: openai

  mock:
    min_delay: 2s
    max_delay: 5s
    synthetic_rate: 0.6
    min_confidence: 0.70
    max_confidence: 1.00

  http:
    base_url: ${DETECTOR_BASE_URL}
    requests_per_second: 5
    endpoints:
      video: /api/video-detect
      image: /api/image-detect
      audio: /api/audio-detect
      text: /api/news-detect

  openai:
    api_key: ${OPENAI_API_KEY}
    model: gpt-4o-mini

  anthropic:
    api_key: ${ANTHROPIC_API_KEY}
    model: claude-3-haiku-20240307

upload:
  interval: 100ms
  step: 10
  max_bytes: 52428800

sessions:
  ttl: 30m
  sweep_interval: 1m
  max_notices: 20

rate_limits:
  default_requests_per_minute: 120
  analyze_per_minute: 20

logging:
  level: info  # debug, info, warn, error
  format: json # json or text
`
	return os.WriteFile(path, []byte(sample), 0644)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	validProviders := map[string]bool{"mock": true, "http": true, "openai": true, "anthropic": true}
	textOnly := map[string]bool{"openai": true, "anthropic": true}
	if !validProviders[c.Analysis.Provider] {
		return fmt.Errorf("unsupported analysis provider: %s", c.Analysis.Provider)
	}
	used := map[string]bool{c.Analysis.Provider: true}
	for kind, name := range c.Analysis.Routes {
		if !validProviders[name] {
			return fmt.Errorf("unsupported analysis provider for %s: %s", kind, name)
		}
		if textOnly[name] && kind != "text" {
			return fmt.Errorf("%s provider only analyzes text, not %s", name, kind)
		}
		used[name] = true
	}

	if used["openai"] && c.Analysis.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if used["anthropic"] && c.Analysis.Anthropic.APIKey == "" {
		return fmt.Errorf("Anthropic API key is required")
	}
	if used["http"] && c.Analysis.HTTP.BaseURL == "" {
		return fmt.Errorf("detector base URL is required for the http provider")
	}

	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis timeout must be positive")
	}

	m := c.Analysis.Mock
	if m.MinDelay < 0 || m.MaxDelay < m.MinDelay {
		return fmt.Errorf("invalid mock delay range: %s..%s", m.MinDelay, m.MaxDelay)
	}
	if m.SyntheticRate < 0 || m.SyntheticRate > 1 {
		return fmt.Errorf("synthetic_rate must be within [0, 1]: %v", m.SyntheticRate)
	}
	if m.MinConfidence < 0 || m.MaxConfidence > 1 || m.MinConfidence > m.MaxConfidence {
		return fmt.Errorf("invalid mock confidence range: %v..%v", m.MinConfidence, m.MaxConfidence)
	}

	if c.Upload.Interval <= 0 {
		return fmt.Errorf("upload interval must be positive")
	}
	if c.Upload.Step < 1 || c.Upload.Step > 100 {
		return fmt.Errorf("upload step must be within [1, 100]: %d", c.Upload.Step)
	}

	if c.Sessions.TTL <= 0 || c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("session ttl and sweep interval must be positive")
	}

	if c.RateLimits.RequestsPerMinute <= 0 || c.RateLimits.AnalyzePerMinute <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	return nil
}

// interpolateEnvVars replaces ${VAR_NAME} with environment variable values.
func interpolateEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match // Keep original if not set
	})
}
