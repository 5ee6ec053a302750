package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/cadre-oss/brains/internal/config"
	"github.com/cadre-oss/brains/internal/service"
)

// configPath resolves --config, BRAINS_CONFIG, then ./brains.yaml.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.FileName
}

// loadConfig reads brains.yaml and applies flag and BRAINS_* overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if v := viper.GetString("provider"); v != "" && v != cfg.Provider.Name {
		// The key read at load time belongs to the configured provider.
		if cfg.Provider.APIKey == os.Getenv(config.APIKeyEnv(cfg.Provider.Name)) {
			cfg.Provider.APIKey = os.Getenv(config.APIKeyEnv(v))
		}
		cfg.Provider.Name = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.Provider.Model = v
	}
	if v := viper.GetString("memory-driver"); v != "" {
		cfg.Memory.Driver = v
	}
	if v := viper.GetString("user"); v != "" {
		cfg.Defaults.UserID = v
	}
	if v := viper.GetString("session"); v != "" {
		cfg.Defaults.SessionID = v
	}
	if v := viper.GetString("timeout"); v != "" {
		cfg.Defaults.Timeout = v
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}

// openService loads and validates the config and starts the service. With
// quiet set, info logs are suppressed so they do not interleave with answers.
func openService(ctx context.Context, quiet bool) (*service.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if quiet && !verbose && cfg.Logging.Level == "info" {
		cfg.Logging.Level = "warn"
	}
	return service.New(ctx, cfg)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
