package memory

import (
	"context"
	"strings"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/profile"
	"github.com/cadre-oss/brains/internal/telemetry"
)

// clientOverfetch widens the store limit when records have to be dropped
// locally, so filtering does not starve the result. Role copies dropped from
// unscoped lookups count too.
const clientOverfetch = 3

// Options scopes a gateway lookup. An empty Scope searches every scope the
// user owns.
type Options struct {
	RoleID    string
	SessionID string
	Scope     profile.Scope
	Domain    string
	Limit     int
}

// WriteOptions identifies who produced a memory. Scope and domain are
// derived from the role; Scope is honoured only when RoleID is empty.
type WriteOptions struct {
	RoleID    string
	SessionID string
	Scope     profile.Scope
}

// Gateway mediates every memory read and write. It is safe for concurrent
// use once constructed.
type Gateway struct {
	store    Store
	registry *profile.Registry
	caps     Capabilities
	probed   bool
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l *telemetry.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithMetrics sets the counters the gateway increments.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithCapabilities skips probing and uses caps as given.
func WithCapabilities(caps Capabilities) Option {
	return func(g *Gateway) {
		g.caps = caps
		g.probed = true
	}
}

// NewGateway wraps store. Capabilities are probed once here. Stores that do
// not implement Prober, or whose probe fails, get no optional parameters and
// every constraint is applied locally.
func NewGateway(ctx context.Context, store Store, registry *profile.Registry, opts ...Option) *Gateway {
	g := &Gateway{store: store, registry: registry}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = telemetry.Nop()
	}
	if g.probed {
		return g
	}

	g.probed = true
	p, ok := store.(Prober)
	if !ok {
		return g
	}
	caps, err := p.Capabilities(ctx)
	if err != nil {
		g.logger.Warn("memory capability probe failed; optional parameters disabled", "error", err)
		return g
	}
	g.caps = caps
	g.logger.Debug("memory capabilities", "caps", caps)
	return g
}

// Capabilities returns the probed capability set.
func (g *Gateway) Capabilities() Capabilities { return g.caps }

// Ping checks the store is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.store.Ping(ctx); err != nil {
		return brerrors.Wrap(brerrors.CodeStoreUnavailable, "memory store unreachable", err)
	}
	return nil
}

// Close releases the store.
func (g *Gateway) Close() error { return g.store.Close() }

// Search returns records relevant to query within opts. A store failure
// yields an empty slice and a MEMORY_ACCESS error; callers that can carry
// on without memory may ignore the error.
func (g *Gateway) Search(ctx context.Context, userID, query string, opts Options) ([]Record, error) {
	g.metrics.IncMemorySearches()
	qo, filters := g.query(userID, opts, g.caps.SearchRole, g.caps.SearchSession, g.caps.SearchFilters)

	raw, err := g.store.Search(ctx, query, qo)
	if err != nil {
		return g.failed("search", userID, opts, err)
	}
	return g.keep(Normalize(raw), userID, opts, filters), nil
}

// ListAll returns every record within opts in the order the store lists them.
func (g *Gateway) ListAll(ctx context.Context, userID string, opts Options) ([]Record, error) {
	qo, filters := g.query(userID, opts, g.caps.ListRole, g.caps.ListSession, g.caps.ListFilters)

	raw, err := g.store.GetAll(ctx, qo)
	if err != nil {
		return g.failed("list", userID, opts, err)
	}
	return g.keep(Normalize(raw), userID, opts, filters), nil
}

// Write persists content for userID. A user-scope copy is always written;
// when the store accepts a role, a second copy scoped to the role is written
// too. Each copy that fails is retried once as a bare text entry. Write
// reports whether any copy landed.
func (g *Gateway) Write(ctx context.Context, content, userID string, opts WriteOptions) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}

	scope, domain := profile.ScopeUser, ""
	switch {
	case opts.RoleID != "" && g.registry != nil:
		scope, domain = g.registry.ScopeFor(opts.RoleID)
	case opts.RoleID == "" && opts.Scope.Valid():
		scope = opts.Scope
	}

	meta := func(copyKind string) map[string]any {
		m := map[string]any{
			MetaScope:  string(scope),
			MetaCopy:   copyKind,
			MetaSource: "brains",
		}
		if opts.RoleID != "" {
			m[MetaRole] = opts.RoleID
		}
		if domain != "" {
			m[MetaDomain] = domain
		}
		if opts.SessionID != "" {
			m[MetaSession] = opts.SessionID
		}
		return m
	}

	base := AddOptions{UserID: userID}
	if g.caps.AddSession {
		base.SessionID = opts.SessionID
	}

	ok := g.add(ctx, Entry{Text: content, Metadata: meta(copyUser)}, base)
	if opts.RoleID != "" && g.caps.AddRole {
		roleOpts := base
		roleOpts.RoleID = opts.RoleID
		ok = g.add(ctx, Entry{Text: content, Metadata: meta(copyRole)}, roleOpts) || ok
	}
	return ok
}

func (g *Gateway) add(ctx context.Context, entry Entry, opts AddOptions) bool {
	err := g.store.Add(ctx, []Entry{entry}, opts)
	if err == nil {
		g.metrics.IncMemoryWrites()
		return true
	}
	g.logger.Warn("memory write failed; retrying minimal entry",
		"user_id", opts.UserID, "role", opts.RoleID, "error", err)

	if err := g.store.Add(ctx, []Entry{{Text: entry.Text}}, opts); err != nil {
		g.metrics.IncMemoryFailures()
		g.logger.Error("memory write dropped", "user_id", opts.UserID, "role", opts.RoleID, "error", err)
		return false
	}
	g.metrics.IncMemoryWrites()
	return true
}

// query builds the store parameters, leaving out whatever the store does not
// accept. The returned filters are always re-applied locally.
func (g *Gateway) query(userID string, opts Options, role, session, filtered bool) (QueryOptions, map[string]string) {
	filters := scopeFilters(opts.Scope, opts.Domain)
	qo := QueryOptions{UserID: userID, Limit: opts.Limit}
	local := false
	if opts.RoleID != "" {
		if role {
			qo.RoleID = opts.RoleID
		} else {
			local = true
		}
	}
	if opts.SessionID != "" {
		if session {
			qo.SessionID = opts.SessionID
		} else {
			local = true
		}
	}
	if len(filters) > 0 {
		if filtered {
			qo.Filters = filters
		} else {
			local = true
		}
	}
	if opts.RoleID == "" && g.caps.AddRole {
		local = true
	}
	if local && qo.Limit > 0 {
		qo.Limit *= clientOverfetch
	}
	return qo, filters
}

func scopeFilters(scope profile.Scope, domain string) map[string]string {
	switch scope {
	case profile.ScopeExpert:
		f := map[string]string{MetaScope: string(scope)}
		if domain != "" {
			f[MetaDomain] = domain
		}
		return f
	case profile.ScopeProject:
		return map[string]string{MetaScope: string(scope)}
	}
	return nil
}

// keep applies ownership and scope constraints locally. Unscoped lookups
// drop role copies, which duplicate a user copy.
func (g *Gateway) keep(records []Record, userID string, opts Options, filters map[string]string) []Record {
	out := records[:0]
	for _, rec := range records {
		if userID != "" && rec.UserID != "" && rec.UserID != userID {
			continue
		}
		if opts.RoleID != "" {
			if rec.RoleID != opts.RoleID {
				continue
			}
		} else if rec.Metadata[MetaCopy] == copyRole {
			continue
		}
		if opts.SessionID != "" && rec.SessionID != "" && rec.SessionID != opts.SessionID {
			continue
		}
		if len(filters) > 0 && !MatchFilters(rec.Metadata, filters) {
			continue
		}
		out = append(out, rec)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func (g *Gateway) failed(op, userID string, opts Options, err error) ([]Record, error) {
	g.metrics.IncMemoryFailures()
	g.logger.Warn("memory "+op+" failed", "user_id", userID, "role", opts.RoleID, "scope", opts.Scope, "error", err)
	return []Record{}, brerrors.Wrap(brerrors.CodeMemoryAccess, "memory "+op+" failed", err)
}
