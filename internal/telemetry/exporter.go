package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MetricsExporter writes metric snapshots somewhere durable.
type MetricsExporter interface {
	Export(rec ExportRecord) error
	Close() error
}

// ExportRecord is one exported line.
type ExportRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"` // orchestration.completed, chat.completed
	Metrics   Snapshot          `json:"metrics"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// JSONFileExporter appends records as JSON lines.
type JSONFileExporter struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *json.Encoder
}

// NewJSONFileExporter creates or appends to the given path.
func NewJSONFileExporter(path string) (*JSONFileExporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	return &JSONFileExporter{path: path, file: f, enc: json.NewEncoder(f)}, nil
}

// Path returns the file being written.
func (e *JSONFileExporter) Path() string { return e.path }

// Export writes a single record. json.Encoder terminates it with a newline.
func (e *JSONFileExporter) Export(rec ExportRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(rec)
}

func (e *JSONFileExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Close()
}
