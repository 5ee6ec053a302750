// Package service assembles the role table, memory, model adapter and
// orchestration pipeline from configuration, and exposes the operations
// the CLI, HTTP server and MCP server share.
package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cadre-oss/brains/internal/agent"
	"github.com/cadre-oss/brains/internal/config"
	"github.com/cadre-oss/brains/internal/conversation"
	"github.com/cadre-oss/brains/internal/crew"
	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/event"
	"github.com/cadre-oss/brains/internal/memory"
	"github.com/cadre-oss/brains/internal/profile"
	"github.com/cadre-oss/brains/internal/prompt"
	"github.com/cadre-oss/brains/internal/provider"
	"github.com/cadre-oss/brains/internal/telemetry"
)

// Service is the assembled application.
type Service struct {
	cfg        *config.Config
	registry   *profile.Registry
	cache      *conversation.Cache
	gateway    *memory.Gateway
	provider   provider.Provider
	engine     *agent.Engine
	controller *crew.Controller
	bus        *event.Bus
	logger     *telemetry.Logger
	metrics    *telemetry.Metrics
	exporter   *telemetry.JSONFileExporter
	timeout    time.Duration
}

type options struct {
	provider provider.Provider
	store    memory.Store
	logger   *telemetry.Logger
	bus      *event.Bus
}

// Option overrides a dependency New would otherwise build from config.
type Option func(*options)

// WithProvider uses p instead of the configured adapter. p is not wrapped
// or verified.
func WithProvider(p provider.Provider) Option { return func(o *options) { o.provider = p } }

// WithStore uses s instead of opening the configured backend.
func WithStore(s memory.Store) Option { return func(o *options) { o.store = s } }

// WithLogger sets the logger.
func WithLogger(l *telemetry.Logger) Option { return func(o *options) { o.logger = l } }

// WithBus sets the event bus, so callers can register hooks before any
// event fires.
func WithBus(b *event.Bus) Option { return func(o *options) { o.bus = b } }

// New builds the service. Provider construction or verification failures,
// and memory store failures, abort startup.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = telemetry.New(telemetry.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if cfg.Logging.File != "" {
			if err := o.logger.WithFile(cfg.Logging.File); err != nil {
				return nil, err
			}
		}
	}
	if o.bus == nil {
		o.bus = event.NewBus(o.logger)
	}
	log := o.logger

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.Defaults.ParsedTimeout()
	if err != nil {
		return nil, brerrors.Wrap(brerrors.CodeConfigInvalid, "invalid defaults.timeout", err)
	}

	p := o.provider
	if p == nil {
		p, err = NewProvider(ctx, cfg.Provider)
		if err != nil {
			return nil, err
		}
		if cfg.Provider.ShouldVerify() {
			if err := VerifyProvider(ctx, p); err != nil {
				return nil, err
			}
		}
	}

	store := o.store
	if store == nil {
		store, err = OpenStore(cfg.Memory, cfg.Dir())
		if err != nil {
			return nil, err
		}
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, brerrors.Wrap(brerrors.CodeStoreUnavailable, "memory store is not reachable", err).
			WithSuggestion("Check the memory section of brains.yaml")
	}

	metrics := telemetry.NewMetrics()
	var exporter *telemetry.JSONFileExporter
	if path := cfg.Telemetry.MetricsFile; path != "" {
		if !filepath.IsAbs(path) && cfg.Dir() != "" {
			path = filepath.Join(cfg.Dir(), path)
		}
		exporter, err = telemetry.NewJSONFileExporter(path)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		metrics.SetExporter(exporter)
	}

	gateway := memory.NewGateway(ctx, store, registry, memory.WithLogger(log), memory.WithMetrics(metrics))
	cache := conversation.NewCache(cfg.Cache.Capacity)
	pl := cfg.Pipeline

	builder := prompt.NewBuilder(registry, gateway, prompt.Options{
		HistoryWindow:    pl.HistoryWindow,
		SearchLimit:      pl.SearchLimit,
		MaxCollaborators: pl.MaxCollaborators,
	}, log, metrics)

	engine := agent.NewEngine(agent.Deps{
		Registry: registry,
		Builder:  builder,
		Provider: p,
		Cache:    cache,
		Memory:   gateway,
		Bus:      o.bus,
		Logger:   log,
		Metrics:  metrics,
	}, agent.Config{
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
		DefaultRole: pl.DefaultAgent,
	})

	selector := agent.NewSelector(registry, pl.MaxSpecialists, pl.FallbackSpecialists)
	controller := crew.NewController(engine, selector, registry, crew.Options{
		Parallel:    pl.ParallelSpecialists,
		Concurrency: pl.Concurrency,
	}, o.bus, log, metrics)

	registerHooks(o.bus, cfg.Hooks, log)

	log.Info("Service ready",
		"provider", p.Name(),
		"memory", cfg.Memory.Driver,
		"agents", len(registry.All()),
		"capabilities", gateway.Capabilities(),
	)

	return &Service{
		cfg:        cfg,
		registry:   registry,
		cache:      cache,
		gateway:    gateway,
		provider:   p,
		engine:     engine,
		controller: controller,
		bus:        o.bus,
		logger:     log,
		metrics:    metrics,
		exporter:   exporter,
		timeout:    timeout,
	}, nil
}

// ChatInput is a single-role request.
type ChatInput struct {
	UserID    string
	SessionID string
	RoleID    string
	Message   string
}

// Chat answers with one role, persisting the exchange to the cache and to
// long-term memory.
func (s *Service) Chat(ctx context.Context, in ChatInput) *agent.ChatResponse {
	in.UserID, in.SessionID = s.identity(in.UserID, in.SessionID)
	if in.RoleID == "" {
		in.RoleID = s.cfg.Pipeline.DefaultAgent
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = telemetry.ContextWithTrace(ctx, telemetry.NewTraceContext("").WithUser(in.UserID))

	resp := s.engine.Generate(ctx, agent.ChatRequest{
		UserID:      in.UserID,
		RoleID:      in.RoleID,
		SessionID:   in.SessionID,
		Message:     in.Message,
		Persist:     true,
		StoreMemory: true,
	})
	if resp.Failed() && resp.Content == "" {
		resp.Content = agent.FailureMessage
	}
	return resp
}

// OrchestrateInput is a pipeline request.
type OrchestrateInput struct {
	UserID     string
	SessionID  string
	Message    string
	TargetRole string
}

// Orchestrate runs the multi-agent pipeline, or the direct mode when
// TargetRole names a specialist.
func (s *Service) Orchestrate(ctx context.Context, in OrchestrateInput) *crew.MultiAgentResult {
	in.UserID, in.SessionID = s.identity(in.UserID, in.SessionID)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := s.controller.Process(ctx, crew.Request{
		UserID:     in.UserID,
		SessionID:  in.SessionID,
		Message:    in.Message,
		TargetRole: in.TargetRole,
	})
	s.metrics.Flush("orchestration", map[string]string{"mode": res.Mode, "run_id": res.RunID})
	return res
}

func (s *Service) identity(userID, sessionID string) (string, string) {
	if userID == "" {
		userID = s.cfg.Defaults.UserID
	}
	if sessionID == "" {
		sessionID = s.cfg.Defaults.SessionID
	}
	return userID, sessionID
}

// MultiAgentDefault reports whether callers should orchestrate when a
// request does not say.
func (s *Service) MultiAgentDefault() bool { return s.cfg.Pipeline.MultiAgentEnabled() }

// Profiles returns the role table in configured order.
func (s *Service) Profiles() []profile.Profile { return s.registry.All() }

// Registry returns the role table.
func (s *Service) Registry() *profile.Registry { return s.registry }

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config { return s.cfg }

// Bus returns the lifecycle event bus.
func (s *Service) Bus() *event.Bus { return s.bus }

// Logger returns the service logger.
func (s *Service) Logger() *telemetry.Logger { return s.logger }

// Metrics returns a snapshot of the service counters.
func (s *Service) Metrics() telemetry.Snapshot { return s.metrics.Snapshot() }

// ProviderName names the model adapter in use.
func (s *Service) ProviderName() string { return s.provider.Name() }

// Capabilities reports what the memory backend supports.
func (s *Service) Capabilities() memory.Capabilities { return s.gateway.Capabilities() }

// UserStats summarises one user's state.
type UserStats struct {
	UserID              string `json:"user_id"`
	CachedConversations int    `json:"cached_conversations"`
	CacheMaxSize        int    `json:"cache_max_size"`
	TotalMemories       *int   `json:"total_memories,omitempty"`
}

// Stats reports the cache fill and, when the store answers, the number of
// long-term memories for userID.
func (s *Service) Stats(ctx context.Context, userID string) UserStats {
	userID, _ = s.identity(userID, "")
	cs := s.cache.Stats(userID)
	st := UserStats{UserID: userID, CachedConversations: cs.Count, CacheMaxSize: cs.Capacity}

	records, err := s.gateway.ListAll(ctx, userID, memory.Options{})
	if err != nil {
		s.logger.Warn("Memory count unavailable", "user_id", userID, "error", err)
		return st
	}
	n := len(records)
	st.TotalMemories = &n
	return st
}

// ClearHistory drops the cached conversation for userID. Long-term memory
// is untouched.
func (s *Service) ClearHistory(userID string) {
	userID, _ = s.identity(userID, "")
	s.cache.Clear(userID)
	s.logger.Info("Cleared conversation history", "user_id", userID)
}

// History returns the cached turns for userID, oldest first.
func (s *Service) History(userID string) []conversation.Turn {
	userID, _ = s.identity(userID, "")
	return s.cache.Recent(userID, 0)
}

// MemoryQuery selects long-term memories.
type MemoryQuery struct {
	UserID string
	RoleID string
	Query  string
	Limit  int
}

// Memories searches long-term memory when a query is given and lists it
// otherwise. A role narrows the lookup to that role's scope.
func (s *Service) Memories(ctx context.Context, q MemoryQuery) ([]memory.Record, error) {
	q.UserID, _ = s.identity(q.UserID, "")
	opts := memory.Options{RoleID: q.RoleID, Limit: q.Limit}
	if q.RoleID != "" {
		if !s.registry.Has(q.RoleID) {
			return nil, brerrors.Newf(brerrors.CodeProfileNotFound, "unknown agent %q", q.RoleID).
				WithSuggestion("Run 'brains agents' to list the configured agents")
		}
		opts.Scope, opts.Domain = s.registry.ScopeFor(q.RoleID)
	}
	if q.Query == "" {
		return s.gateway.ListAll(ctx, q.UserID, opts)
	}
	if opts.Limit <= 0 {
		opts.Limit = s.cfg.Pipeline.SearchLimit
	}
	return s.gateway.Search(ctx, q.UserID, q.Query, opts)
}

// Health pings the model adapter and the memory store.
func (s *Service) Health(ctx context.Context) map[string]string {
	status := map[string]string{"provider": "ok", "memory": "ok"}
	if err := VerifyProvider(ctx, s.provider); err != nil {
		status["provider"] = err.Error()
	}
	if err := s.gateway.Ping(ctx); err != nil {
		status["memory"] = err.Error()
	}
	return status
}

// Close waits for in-flight hooks, flushes metrics and releases the store.
func (s *Service) Close() error {
	s.bus.Wait()
	s.metrics.Flush("shutdown", nil)
	var firstErr error
	if err := s.gateway.Close(); err != nil {
		firstErr = err
	}
	if s.exporter != nil {
		if err := s.exporter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
