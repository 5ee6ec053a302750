package config

import (
	"fmt"
	"strings"
	"time"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/event"
)

// Validate checks the whole configuration, including the role table it
// resolves to, and reports every problem in one error.
func Validate(cfg *Config) error {
	var errors []string

	validProviders := map[string]bool{
		"openai":    true,
		"anthropic": true,
		"gemini":    true,
	}
	if !validProviders[cfg.Provider.Name] {
		errors = append(errors, fmt.Sprintf("invalid provider: %s (must be openai, anthropic, or gemini)", cfg.Provider.Name))
	}
	if cfg.Provider.Temperature < 0 || cfg.Provider.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("provider.temperature %.2f out of range [0, 2]", cfg.Provider.Temperature))
	}
	if cfg.Provider.MaxTokens < 0 {
		errors = append(errors, "provider.max_tokens must be non-negative")
	}

	validDrivers := map[string]bool{
		"sqlite": true,
		"redis":  true,
		"mem0":   true,
		"memory": true,
	}
	if !validDrivers[cfg.Memory.Driver] {
		errors = append(errors, fmt.Sprintf("invalid memory driver: %s (must be sqlite, redis, mem0, or memory)", cfg.Memory.Driver))
	}
	if cfg.Memory.Driver == "mem0" && cfg.Memory.BaseURL == "" {
		errors = append(errors, "mem0 memory driver requires memory.base_url")
	}

	p := cfg.Pipeline
	if p.MaxSpecialists < 0 {
		errors = append(errors, "pipeline.max_specialists must be non-negative")
	}
	if p.SearchLimit < 0 || p.HistoryWindow < 0 || p.MaxCollaborators < 0 {
		errors = append(errors, "pipeline limits must be non-negative")
	}
	if cfg.Cache.Capacity < 1 {
		errors = append(errors, "cache.capacity must be at least 1")
	}

	// Validate timeout formats at validation time
	for name, value := range map[string]string{
		"defaults.timeout":       cfg.Defaults.Timeout,
		"server.request_timeout": cfg.Server.RequestTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s format %q: %s", name, value, err))
		}
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid server.port: %d", cfg.Server.Port))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errors = append(errors, fmt.Sprintf("invalid logging.level: %s", cfg.Logging.Level))
	}
	if f := cfg.Logging.Format; f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid logging.format: %s (must be text or json)", f))
	}

	errors = append(errors, validateHooks(cfg.Hooks)...)

	// The role table must build, and the pipeline must name roles in it.
	reg, err := cfg.Registry()
	if err != nil {
		errors = append(errors, err.Error())
	} else {
		if !reg.Has(p.DefaultAgent) {
			errors = append(errors, fmt.Sprintf("pipeline.default_agent %q is not a known agent", p.DefaultAgent))
		}
		for _, id := range p.FallbackSpecialists {
			if !reg.Has(id) {
				errors = append(errors, fmt.Sprintf("pipeline.fallback_specialists: unknown agent %q", id))
			} else if reg.IsCoordinator(id) {
				errors = append(errors, fmt.Sprintf("pipeline.fallback_specialists: %q is the coordinator", id))
			}
		}
	}

	if len(errors) > 0 {
		return brerrors.New(brerrors.CodeConfigInvalid, "config validation failed: "+strings.Join(errors, "; ")).
			WithSuggestion("Run 'brains config show' to inspect the resolved configuration")
	}
	return nil
}

func validateHooks(cfg HooksConfig) []string {
	var errors []string
	known := make(map[event.EventType]bool)
	for _, t := range event.AllTypes() {
		known[t] = true
	}

	for i, h := range cfg.Hooks {
		name := h.Name
		if name == "" {
			errors = append(errors, fmt.Sprintf("hooks[%d]: name is required", i))
			name = fmt.Sprintf("hooks[%d]", i)
		}
		switch h.Type {
		case "webhook":
			if h.URL == "" {
				errors = append(errors, fmt.Sprintf("hook %s: webhook requires a url", name))
			}
		case "log":
		default:
			errors = append(errors, fmt.Sprintf("hook %s: invalid type %q (must be webhook or log)", name, h.Type))
		}
		for _, e := range h.Events {
			if !known[event.EventType(e)] {
				errors = append(errors, fmt.Sprintf("hook %s: unknown event %q", name, e))
			}
		}
	}
	return errors
}
