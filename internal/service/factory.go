package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cadre-oss/brains/internal/config"
	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/memory/inmem"
	"github.com/cadre-oss/brains/internal/memory/mem0"
	"github.com/cadre-oss/brains/internal/memory/redisstore"
	"github.com/cadre-oss/brains/internal/memory/sqlitestore"
	"github.com/cadre-oss/brains/internal/provider"
	"github.com/cadre-oss/brains/internal/provider/anthropic"
	"github.com/cadre-oss/brains/internal/provider/gemini"
	"github.com/cadre-oss/brains/internal/provider/openai"
)

// NewProvider builds the configured model adapter wrapped in retries.
func NewProvider(ctx context.Context, cfg config.ProviderConfig) (provider.Provider, error) {
	var inner provider.Provider
	switch cfg.Name {
	case "openai", "":
		inner = openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	case "anthropic":
		inner = anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		inner = c
	default:
		return nil, brerrors.Newf(brerrors.CodeConfigInvalid, "unknown provider %q", cfg.Name).
			WithSuggestion("Set provider.name to openai, anthropic, or gemini")
	}

	retry := provider.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	return provider.NewRetryProvider(inner, retry), nil
}

// VerifyProvider pings the provider when it supports it.
func VerifyProvider(ctx context.Context, p provider.Provider) error {
	pinger, ok := p.(provider.Pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		return brerrors.Wrap(brerrors.CodeProviderUnavailable, fmt.Sprintf("provider %s is not reachable", p.Name()), err).
			WithSuggestion("Check provider.base_url and the API key, or set provider.verify: false")
	}
	return nil
}

// OpenStore opens the configured memory backend. Relative sqlite paths
// resolve against baseDir.
func OpenStore(cfg config.MemoryConfig, baseDir string) (memory.Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		path := cfg.Path
		if path != ":memory:" && !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		s, err := sqlitestore.Open(path)
		if err != nil {
			return nil, brerrors.Wrap(brerrors.CodeStoreUnavailable, "failed to open sqlite memory store", err)
		}
		return s, nil
	case "redis":
		return redisstore.New(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}, cfg.Prefix), nil
	case "mem0":
		return mem0.New(mem0.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey}), nil
	case "memory":
		return inmem.New(), nil
	default:
		return nil, brerrors.Newf(brerrors.CodeConfigInvalid, "unknown memory driver %q", cfg.Driver).
			WithSuggestion("Set memory.driver to sqlite, redis, mem0, or memory")
	}
}
