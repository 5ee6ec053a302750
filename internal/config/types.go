package config

import (
	"time"

	"github.com/cadre-oss/brains/internal/profile"
)

// Config represents the service configuration (brains.yaml)
type Config struct {
	Name         string            `yaml:"name" json:"name"`
	Provider     ProviderConfig    `yaml:"provider" json:"provider"`
	Memory       MemoryConfig      `yaml:"memory" json:"memory"`
	Pipeline     PipelineConfig    `yaml:"pipeline" json:"pipeline"`
	Cache        CacheConfig       `yaml:"cache" json:"cache"`
	Defaults     DefaultsConfig    `yaml:"defaults" json:"defaults"`
	Server       ServerConfig      `yaml:"server" json:"server"`
	Logging      LoggingConfig     `yaml:"logging" json:"logging"`
	Telemetry    TelemetryConfig   `yaml:"telemetry" json:"telemetry"`
	Hooks        HooksConfig       `yaml:"hooks" json:"hooks"`
	ProfilesFile string            `yaml:"profiles_file,omitempty" json:"profiles_file,omitempty"`
	Agents       []profile.Profile `yaml:"agents,omitempty" json:"agents,omitempty"`

	// dir is the directory of the file the config was read from; relative
	// paths resolve against it.
	dir string
}

// ProviderConfig configures the LLM provider
type ProviderConfig struct {
	Name        string  `yaml:"name" json:"name"` // openai, anthropic, gemini
	Model       string  `yaml:"model" json:"model"`
	APIKey      string  `yaml:"api_key,omitempty" json:"-"`
	BaseURL     string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	MaxRetries  int     `yaml:"max_retries" json:"max_retries"`
	Verify      *bool   `yaml:"verify,omitempty" json:"verify,omitempty"`
}

// ShouldVerify reports whether the provider is pinged at startup.
func (p ProviderConfig) ShouldVerify() bool {
	return p.Verify == nil || *p.Verify
}

// MemoryConfig selects and configures the long-term memory backend
type MemoryConfig struct {
	Driver   string `yaml:"driver" json:"driver"` // sqlite, redis, mem0, memory
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Addr     string `yaml:"addr,omitempty" json:"addr,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APIKey   string `yaml:"api_key,omitempty" json:"-"`
}

// PipelineConfig tunes role selection and prompt assembly
type PipelineConfig struct {
	Coordinator         string   `yaml:"coordinator" json:"coordinator"`
	DefaultAgent        string   `yaml:"default_agent" json:"default_agent"`
	MultiAgent          *bool    `yaml:"multi_agent,omitempty" json:"multi_agent,omitempty"`
	HistoryWindow       int      `yaml:"history_window" json:"history_window"`
	SearchLimit         int      `yaml:"search_limit" json:"search_limit"`
	MaxSpecialists      int      `yaml:"max_specialists" json:"max_specialists"`
	MaxCollaborators    int      `yaml:"max_collaborators" json:"max_collaborators"`
	FallbackSpecialists []string `yaml:"fallback_specialists" json:"fallback_specialists"`
	ParallelSpecialists bool     `yaml:"parallel_specialists" json:"parallel_specialists"`
	Concurrency         int      `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
}

// MultiAgentEnabled reports whether chat requests go through the full
// pipeline by default.
func (p PipelineConfig) MultiAgentEnabled() bool {
	return p.MultiAgent == nil || *p.MultiAgent
}

// CacheConfig sizes the per-user conversation cache
type CacheConfig struct {
	Capacity int `yaml:"capacity" json:"capacity"`
}

// DefaultsConfig provides request defaults
type DefaultsConfig struct {
	UserID    string `yaml:"user_id" json:"user_id"`
	SessionID string `yaml:"session_id" json:"session_id"`
	Timeout   string `yaml:"timeout" json:"timeout"` // e.g., "5m"
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host           string `yaml:"host" json:"host"`
	Port           int    `yaml:"port" json:"port"`
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// TelemetryConfig configures metric export
type TelemetryConfig struct {
	MetricsFile string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // webhook, log
	Events   []string `yaml:"events" json:"events"` // event types to match, empty for all
	Blocking bool     `yaml:"blocking" json:"blocking"`
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`     // for webhook hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"` // for log hooks (debug, info, warn)
}

// Dir returns the directory the config was loaded from.
func (c *Config) Dir() string { return c.dir }

// ParsedTimeout converts the request timeout to a duration
func (d DefaultsConfig) ParsedTimeout() (time.Duration, error) {
	if d.Timeout == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(d.Timeout)
}

// ParsedRequestTimeout converts the server request timeout to a duration
func (s ServerConfig) ParsedRequestTimeout() (time.Duration, error) {
	if s.RequestTimeout == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(s.RequestTimeout)
}
