// Package config handles loading and validating Munim configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()
}

// Config is the root configuration for Munim.
type Config struct {
	Tenant        TenantConfig         `json:"tenant" yaml:"tenant"`
	Database      DatabaseConfig       `json:"database" yaml:"database"`
	Providers     ProvidersConfig      `json:"providers" yaml:"providers"`
	Agent         AgentConfig          `json:"agent" yaml:"agent"`
	Cache         CacheConfig          `json:"cache" yaml:"cache"`
	HTTP          HTTPConfig           `json:"http" yaml:"http"`
	MCP           *MCPConfig           `json:"mcp,omitempty" yaml:"mcp,omitempty"`                     // nil = MCP server disabled
	Observability *ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"` // nil = observability disabled
	Logging       LoggingConfig        `json:"logging" yaml:"logging"`
}

// TenantConfig identifies the company and division every query is scoped to.
// Both IDs are required — the assistant never serves unscoped data.
type TenantConfig struct {
	CompanyID  string `json:"company_id" yaml:"company_id"`   // Override: MUNIM_COMPANY_ID env var.
	DivisionID string `json:"division_id" yaml:"division_id"` // Override: MUNIM_DIVISION_ID env var.
}

// DatabaseConfig configures the PostgreSQL analytical store.
type DatabaseConfig struct {
	DSN              string `json:"dsn" yaml:"dsn"` // Override: DATABASE_URL env var.
	MaxOpenConns     int    `json:"max_open_conns" yaml:"max_open_conns"`           // Default: 25
	MaxIdleConns     int    `json:"max_idle_conns" yaml:"max_idle_conns"`           // Default: 5
	ConnMaxLifetimeS int    `json:"conn_max_lifetime_s" yaml:"conn_max_lifetime_s"` // Default: 1800 (30 min)
	QueryTimeoutS    int    `json:"query_timeout_s" yaml:"query_timeout_s"`         // Per-query timeout. Default: 15.
}

// QueryTimeout returns the per-query timeout with a default of 15s.
func (d *DatabaseConfig) QueryTimeout() time.Duration {
	if d != nil && d.QueryTimeoutS > 0 {
		return time.Duration(d.QueryTimeoutS) * time.Second
	}
	return 15 * time.Second
}

type ProvidersConfig struct {
	Default  string       `json:"default" yaml:"default"`   // "openai" or "ollama". Empty = "openai".
	Fallback bool         `json:"fallback" yaml:"fallback"` // Try the other configured provider when the default fails.
	OpenAI   OpenAIConfig `json:"openai" yaml:"openai"`
	Ollama   OllamaConfig `json:"ollama" yaml:"ollama"`
}

type OpenAIConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"` // Override: OPENAI_API_KEY env var.
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url" yaml:"base_url"` // Optional. Defaults to https://api.openai.com.
}

type OllamaConfig struct {
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url" yaml:"base_url"` // Optional. Defaults to http://localhost:11434.
}

// AgentConfig tunes the conversation loop.
type AgentConfig struct {
	MaxTokens          int `json:"max_tokens" yaml:"max_tokens"`                     // Per-completion cap. Default: 4096.
	ModelTimeoutS      int `json:"model_timeout_s" yaml:"model_timeout_s"`           // Per-completion timeout. Default: 60.
	MaxHistoryMessages int `json:"max_history_messages" yaml:"max_history_messages"` // Per-conversation cap. Default: 100.
}

// MaxCompletionTokens returns the per-completion token cap with a default of 4096.
func (a *AgentConfig) MaxCompletionTokens() int {
	if a != nil && a.MaxTokens > 0 {
		return a.MaxTokens
	}
	return 4096
}

// ModelTimeout returns the per-completion timeout with a default of 60s.
func (a *AgentConfig) ModelTimeout() time.Duration {
	if a != nil && a.ModelTimeoutS > 0 {
		return time.Duration(a.ModelTimeoutS) * time.Second
	}
	return 60 * time.Second
}

// MaxHistory returns the max history messages with a default of 100.
func (a *AgentConfig) MaxHistory() int {
	if a != nil && a.MaxHistoryMessages > 0 {
		return a.MaxHistoryMessages
	}
	return 100
}

// CacheConfig tunes the search result cache.
type CacheConfig struct {
	Capacity       int `json:"capacity" yaml:"capacity"`                   // Max envelopes retained. Default: 256.
	TTLSeconds     int `json:"ttl_seconds" yaml:"ttl_seconds"`             // 0 = entries never expire.
	SweepIntervalS int `json:"sweep_interval_s" yaml:"sweep_interval_s"`   // Expired-entry sweep period. Default: 300.
}

// CacheCapacity returns the envelope capacity with a default of 256.
func (c *CacheConfig) CacheCapacity() int {
	if c != nil && c.Capacity > 0 {
		return c.Capacity
	}
	return 256
}

// TTL returns the entry time-to-live. 0 = no expiry.
func (c *CacheConfig) TTL() time.Duration {
	if c != nil && c.TTLSeconds > 0 {
		return time.Duration(c.TTLSeconds) * time.Second
	}
	return 0
}

// SweepInterval returns the janitor period with a default of 5m.
func (c *CacheConfig) SweepInterval() time.Duration {
	if c != nil && c.SweepIntervalS > 0 {
		return time.Duration(c.SweepIntervalS) * time.Second
	}
	return 5 * time.Minute
}

// HTTPConfig configures the HTTP API gateway.
type HTTPConfig struct {
	ListenAddr          string `json:"listen_addr" yaml:"listen_addr"` // Default: ":8080".
	EnableDocs          bool   `json:"enable_docs" yaml:"enable_docs"`
	MaxRequestSizeBytes int64  `json:"max_request_size_bytes" yaml:"max_request_size_bytes"` // Default: 1 MB.
	RateLimitPerMinute  int    `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`   // Per conversation. 0 = unlimited.
	RateLimitBurst      int    `json:"rate_limit_burst" yaml:"rate_limit_burst"`             // 0 = RateLimitPerMinute.
}

// Addr returns the listen address with a default of ":8080".
func (h *HTTPConfig) Addr() string {
	if h != nil && h.ListenAddr != "" {
		return h.ListenAddr
	}
	return ":8080"
}

// MaxRequestSize returns the request body cap with a default of 1 MB.
func (h *HTTPConfig) MaxRequestSize() int64 {
	if h != nil && h.MaxRequestSizeBytes > 0 {
		return h.MaxRequestSizeBytes
	}
	return 1 << 20
}

// MCPConfig configures the MCP tool server.
// When nil, the MCP server is not started.
type MCPConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ObservabilityConfig configures metrics, tracing, and health checks.
// When nil, all observability features are disabled with zero overhead.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Tracing *TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"` // Default: "/metrics"
}

// MetricsPath returns the exposition path with a default of "/metrics".
func (m *MetricsConfig) MetricsPath() string {
	if m != nil && m.Path != "" {
		return m.Path
	}
	return "/metrics"
}

// TracingConfig configures OpenTelemetry distributed tracing.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string  `json:"protocol" yaml:"protocol"`         // "grpc" or "http". Default: "grpc"
	ServiceName string  `json:"service_name" yaml:"service_name"` // Default: "munim"
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`   // 0.0–1.0. Default: 1.0
	Insecure    bool    `json:"insecure" yaml:"insecure"`         // Skip TLS for dev
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // "debug", "info", "warn", "error". Default: "info".
	Format string `json:"format" yaml:"format"` // "text" or "json". Default: "text".
}

// DefaultConfigPath returns the default config file path (~/.munim/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "configs/munim.yaml" // fallback for environments without a home dir
	}
	return filepath.Join(home, ".munim", "config.yaml")
}

// Load reads a JSON or YAML config file and returns a validated Config.
// The format is detected by file extension: .yml/.yaml for YAML, everything else for JSON.
// Provider API keys, the database DSN, and tenant IDs can be set in the config
// file or overridden by environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	// Expand ~ in config path.
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", resolved, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config %s: %w", resolved, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config %s: %w", resolved, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
// Env vars take precedence over config file values.
func (c *Config) applyEnvOverrides() {
	if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
		c.Providers.OpenAI.APIKey = envKey
	}
	if envDSN := os.Getenv("DATABASE_URL"); envDSN != "" {
		c.Database.DSN = envDSN
	}
	if envID := os.Getenv("MUNIM_COMPANY_ID"); envID != "" {
		c.Tenant.CompanyID = envID
	}
	if envID := os.Getenv("MUNIM_DIVISION_ID"); envID != "" {
		c.Tenant.DivisionID = envID
	}
	if envAddr := os.Getenv("MUNIM_HTTP_ADDR"); envAddr != "" {
		c.HTTP.ListenAddr = envAddr
	}
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Tenant.CompanyID) == "" {
		return fmt.Errorf("tenant.company_id is required (set MUNIM_COMPANY_ID env var)")
	}
	if strings.TrimSpace(c.Tenant.DivisionID) == "" {
		return fmt.Errorf("tenant.division_id is required (set MUNIM_DIVISION_ID env var)")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (set DATABASE_URL env var)")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must not be negative")
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must not be negative")
	}
	// Default provider to openai.
	if c.Providers.Default == "" {
		c.Providers.Default = "openai"
	}
	return c.validateProvider()
}

// validateProvider checks that the selected LLM provider has the required fields.
func (c *Config) validateProvider() error {
	switch c.Providers.Default {
	case "openai":
		if c.Providers.OpenAI.Model == "" {
			return fmt.Errorf("providers.openai.model is required")
		}
		if c.Providers.OpenAI.APIKey == "" {
			return fmt.Errorf("providers.openai.api_key is required (set OPENAI_API_KEY env var)")
		}
	case "ollama":
		if c.Providers.Ollama.Model == "" {
			return fmt.Errorf("providers.ollama.model is required")
		}
	default:
		return fmt.Errorf("providers.default %q is not supported (use openai or ollama)", c.Providers.Default)
	}
	return nil
}
