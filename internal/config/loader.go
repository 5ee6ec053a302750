package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/profile"
)

// FileName is the config file looked up in the working directory.
const FileName = "brains.yaml"

// Load reads the configuration at path. An empty path, or a path that does
// not exist, yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.dir = filepath.Dir(path)
			return cfg, nil
		}
		return nil, brerrors.Wrap(brerrors.CodeConfigNotFound, "failed to read config file", err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes a YAML document, interpolating environment references and
// applying defaults.
func Parse(content []byte) (*Config, error) {
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, brerrors.Wrap(brerrors.CodeConfigInvalid, "failed to parse config", err).
			WithSuggestion("Check brains.yaml for YAML syntax errors")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

var envPattern = regexp.MustCompile(`\$\{(?:env\.)?([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR}, ${env.VAR} and ${VAR:-default} with
// environment values. Unset variables without a default are kept verbatim.
func interpolateEnv(content string) string {
	return envPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		if val := os.Getenv(m[1]); val != "" {
			return val
		}
		if strings.Contains(match, ":-") {
			return m[2]
		}
		return match
	})
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "brains"
	}

	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "openai"
	}
	if cfg.Provider.Temperature == 0 {
		cfg.Provider.Temperature = 0.1
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = 4096
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = 3
	}
	// Load API key from environment if not set
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv(APIKeyEnv(cfg.Provider.Name))
	}

	if cfg.Memory.Driver == "" {
		cfg.Memory.Driver = "sqlite"
	}
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = ".brains/memory.db"
	}
	if cfg.Memory.Addr == "" {
		cfg.Memory.Addr = "localhost:6379"
	}
	if cfg.Memory.Prefix == "" {
		cfg.Memory.Prefix = "brains"
	}
	if cfg.Memory.APIKey == "" {
		cfg.Memory.APIKey = os.Getenv("MEM0_API_KEY")
	}

	p := &cfg.Pipeline
	if p.Coordinator == "" {
		p.Coordinator = profile.DefaultCoordinator
	}
	if p.DefaultAgent == "" {
		p.DefaultAgent = p.Coordinator
	}
	if p.HistoryWindow == 0 {
		p.HistoryWindow = 8
	}
	if p.SearchLimit == 0 {
		p.SearchLimit = 5
	}
	if p.MaxSpecialists == 0 {
		p.MaxSpecialists = 3
	}
	if p.MaxCollaborators == 0 {
		p.MaxCollaborators = 5
	}
	if p.FallbackSpecialists == nil {
		p.FallbackSpecialists = []string{"product_lead", "solution_architect"}
	}

	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 5
	}

	if cfg.Defaults.UserID == "" {
		cfg.Defaults.UserID = "default_user"
	}
	if cfg.Defaults.SessionID == "" {
		cfg.Defaults.SessionID = "default_session"
	}
	if cfg.Defaults.Timeout == "" {
		cfg.Defaults.Timeout = "5m"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == "" {
		cfg.Server.RequestTimeout = "5m"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// APIKeyEnv names the environment variable holding the key for a provider.
func APIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}
