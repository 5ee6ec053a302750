package telemetry

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects pipeline counters and invocation latencies.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Invocations        atomic.Int64
	InvocationFailures atomic.Int64
	MemorySearches     atomic.Int64
	MemoryWrites       atomic.Int64
	MemoryFailures     atomic.Int64
	DegradedPayloads   atomic.Int64
	Orchestrations     atomic.Int64

	mu        sync.Mutex
	latencies map[string][]time.Duration // keyed by role id
	exporter  MetricsExporter
}

// maxSamples bounds the latency history kept per role.
const maxSamples = 512

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{latencies: make(map[string][]time.Duration)}
}

func (m *Metrics) IncInvocations() {
	if m != nil {
		m.Invocations.Add(1)
	}
}

func (m *Metrics) IncInvocationFailures() {
	if m != nil {
		m.InvocationFailures.Add(1)
	}
}

func (m *Metrics) IncMemorySearches() {
	if m != nil {
		m.MemorySearches.Add(1)
	}
}

func (m *Metrics) IncMemoryWrites() {
	if m != nil {
		m.MemoryWrites.Add(1)
	}
}

func (m *Metrics) IncMemoryFailures() {
	if m != nil {
		m.MemoryFailures.Add(1)
	}
}

func (m *Metrics) IncDegradedPayloads() {
	if m != nil {
		m.DegradedPayloads.Add(1)
	}
}

func (m *Metrics) IncOrchestrations() {
	if m != nil {
		m.Orchestrations.Add(1)
	}
}

// RecordLatency records a model invocation latency for a role.
func (m *Metrics) RecordLatency(role string, d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	samples := append(m.latencies[role], d)
	if len(samples) > maxSamples {
		samples = samples[len(samples)-maxSamples:]
	}
	m.latencies[role] = samples
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	Invocations        int64            `json:"invocations"`
	InvocationFailures int64            `json:"invocation_failures"`
	MemorySearches     int64            `json:"memory_searches"`
	MemoryWrites       int64            `json:"memory_writes"`
	MemoryFailures     int64            `json:"memory_failures"`
	DegradedPayloads   int64            `json:"degraded_payloads"`
	Orchestrations     int64            `json:"orchestrations"`
	AvgLatencyMS       map[string]int64 `json:"avg_latency_ms,omitempty"`
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Invocations:        m.Invocations.Load(),
		InvocationFailures: m.InvocationFailures.Load(),
		MemorySearches:     m.MemorySearches.Load(),
		MemoryWrites:       m.MemoryWrites.Load(),
		MemoryFailures:     m.MemoryFailures.Load(),
		DegradedPayloads:   m.DegradedPayloads.Load(),
		Orchestrations:     m.Orchestrations.Load(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) > 0 {
		s.AvgLatencyMS = make(map[string]int64, len(m.latencies))
		for role, samples := range m.latencies {
			var total time.Duration
			for _, d := range samples {
				total += d
			}
			s.AvgLatencyMS[role] = total.Milliseconds() / int64(len(samples))
		}
	}
	return s
}

// Roles returns the roles with recorded latencies, sorted.
func (m *Metrics) Roles() []string {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	roles := make([]string, 0, len(m.latencies))
	for r := range m.latencies {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current snapshot under the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	exporter := m.exporter
	m.mu.Unlock()
	if exporter == nil {
		return
	}

	_ = exporter.Export(ExportRecord{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.Snapshot(),
		Labels:    labels,
	})
}
