package mkdocs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Marshal renders the config as a YAML document with an explicit start
// marker. Key order follows the Config field order, so equal configs always
// render byte-identical.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding mkdocs config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding mkdocs config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write writes the resolved config to path.
func (c *Config) Write(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Overrides are the per-version values layered over the resolved config so
// rendered pages link to the deployed tag instead of a bare commit.
type Overrides struct {
	RepoURL         string `yaml:"repo_url,omitempty"`
	EditURITemplate string `yaml:"edit_uri_template,omitempty"`
}

type inheritedConfig struct {
	Inherit string `yaml:"INHERIT"`
	Overrides
}

// WriteInherited writes a temporary config next to base that inherits from
// it and applies overrides. The caller removes it via the returned cleanup.
func WriteInherited(base string, overrides Overrides) (string, func(), error) {
	f, err := os.CreateTemp(filepath.Dir(base), "mkdocs-version-*.yml")
	if err != nil {
		return "", nil, fmt.Errorf("creating inherited config: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc := inheritedConfig{Inherit: filepath.Base(base), Overrides: overrides}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("encoding inherited config: %w", err)
	}
	_ = enc.Close()
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("writing inherited config: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	return f.Name(), cleanup, nil
}
