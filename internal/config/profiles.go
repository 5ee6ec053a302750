package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	brerrors "github.com/cadre-oss/brains/internal/errors"
	"github.com/cadre-oss/brains/internal/profile"
)

// profileFile is the document shape of a profiles_file, in YAML or TOML.
type profileFile struct {
	Agents []profile.Profile `yaml:"agents" toml:"agents"`
}

// Profiles returns the role table: inline agents first, then profiles_file,
// then the built-in table.
func (c *Config) Profiles() ([]profile.Profile, error) {
	if len(c.Agents) > 0 {
		return c.Agents, nil
	}
	if c.ProfilesFile == "" {
		return profile.Defaults(), nil
	}

	path := c.ProfilesFile
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	return LoadProfiles(path)
}

// Registry builds the validated role table for this configuration.
func (c *Config) Registry() (*profile.Registry, error) {
	profiles, err := c.Profiles()
	if err != nil {
		return nil, err
	}
	return profile.NewRegistry(profiles, c.Pipeline.Coordinator)
}

// LoadProfiles reads a profile table from a .yaml, .yml or .toml file.
func LoadProfiles(path string) ([]profile.Profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, brerrors.Wrap(brerrors.CodeConfigNotFound, "failed to read profiles file", err).
			WithSuggestion("Check profiles_file in brains.yaml")
	}
	content = []byte(interpolateEnv(string(content)))

	var doc profileFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &doc)
	case ".toml":
		err = toml.Unmarshal(content, &doc)
	default:
		return nil, brerrors.New(brerrors.CodeConfigInvalid, fmt.Sprintf("unsupported profiles file extension %q", ext)).
			WithSuggestion("Use a .yaml, .yml or .toml profiles file")
	}
	if err != nil {
		return nil, brerrors.Wrap(brerrors.CodeConfigInvalid, "failed to parse profiles file "+path, err)
	}
	if len(doc.Agents) == 0 {
		return nil, brerrors.New(brerrors.CodeConfigInvalid, "profiles file "+path+" defines no agents")
	}
	return doc.Agents, nil
}
