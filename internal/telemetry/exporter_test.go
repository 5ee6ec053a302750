package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONFileExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".brains", "metrics.jsonl")

	exporter, err := NewJSONFileExporter(path)
	if err != nil {
		t.Fatal(err)
	}

	m := NewMetrics()
	m.SetExporter(exporter)
	m.IncInvocations()
	m.IncInvocations()
	m.IncMemoryFailures()
	m.RecordLatency("project_brain", 30*time.Millisecond)

	m.Flush("orchestration.completed", map[string]string{"user": "alice"})
	m.Flush("chat.completed", nil)

	if err := exporter.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var records []ExportRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec ExportRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid line: %v", err)
		}
		records = append(records, rec)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Event != "orchestration.completed" || records[0].Labels["user"] != "alice" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[0].Metrics.Invocations != 2 || records[0].Metrics.MemoryFailures != 1 {
		t.Errorf("unexpected metrics: %+v", records[0].Metrics)
	}
	if records[0].Metrics.AvgLatencyMS["project_brain"] != 30 {
		t.Errorf("unexpected latency: %v", records[0].Metrics.AvgLatencyMS)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.IncInvocations()
	m.RecordLatency("x", time.Second)
	m.Flush("noop", nil)
	if s := m.Snapshot(); s.Invocations != 0 {
		t.Errorf("nil metrics should snapshot to zero, got %+v", s)
	}
}

func TestMetrics_LatencyWindow(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < maxSamples+10; i++ {
		m.RecordLatency("algo_scientist", time.Millisecond)
	}
	m.mu.Lock()
	n := len(m.latencies["algo_scientist"])
	m.mu.Unlock()
	if n != maxSamples {
		t.Errorf("expected %d samples retained, got %d", maxSamples, n)
	}
	if got := m.Roles(); len(got) != 1 || got[0] != "algo_scientist" {
		t.Errorf("unexpected roles: %v", got)
	}
}
