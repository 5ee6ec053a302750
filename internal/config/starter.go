package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/cadre-oss/brains/internal/profile"
)

// StarterOptions selects what `brains init` writes.
type StarterOptions struct {
	Provider     string
	MemoryDriver string
	// ProfilesFile, when set, also writes the built-in role table to this
	// path and points the config at it.
	ProfilesFile string
}

var starterTemplate = template.Must(template.New("brains.yaml").Parse(`# brains configuration
name: brains

provider:
  name: {{.Provider}}
  # model: leave empty for the provider default
  # api_key defaults to ${{.KeyEnv}}
  temperature: 0.1
  max_tokens: 4096
  max_retries: 3
  verify: true

memory:
  driver: {{.Driver}}
  path: .brains/memory.db
  # addr: localhost:6379   # redis
  # base_url: http://localhost:8888   # mem0

pipeline:
  coordinator: project_brain
  multi_agent: true
  history_window: 8
  search_limit: 5
  max_specialists: 3
  max_collaborators: 5
  fallback_specialists: [product_lead, solution_architect]
  parallel_specialists: false

cache:
  capacity: 5

defaults:
  user_id: default_user
  session_id: default_session
  timeout: 5m

server:
  host: 127.0.0.1
  port: 8080

logging:
  level: info
  format: text
{{- if .ProfilesFile}}

profiles_file: {{.ProfilesFile}}
{{- end}}
`))

// Starter renders a commented starter brains.yaml.
func Starter(opts StarterOptions) ([]byte, error) {
	if opts.Provider == "" {
		opts.Provider = "openai"
	}
	if opts.MemoryDriver == "" {
		opts.MemoryDriver = "sqlite"
	}

	var buf bytes.Buffer
	err := starterTemplate.Execute(&buf, map[string]string{
		"Provider":     opts.Provider,
		"KeyEnv":       APIKeyEnv(opts.Provider),
		"Driver":       opts.MemoryDriver,
		"ProfilesFile": opts.ProfilesFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render starter config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteStarter writes brains.yaml (and the profiles file when requested)
// into dir. Existing files are left alone unless force is set.
func WriteStarter(dir string, opts StarterOptions, force bool) ([]string, error) {
	content, err := Starter(opts)
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{FileName: content}
	if opts.ProfilesFile != "" {
		data, err := yaml.Marshal(profileFile{Agents: profile.Defaults()})
		if err != nil {
			return nil, fmt.Errorf("failed to encode profiles: %w", err)
		}
		files[opts.ProfilesFile] = data
	}

	var written []string
	for _, name := range []string{FileName, opts.ProfilesFile} {
		data, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !force {
			return written, fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
