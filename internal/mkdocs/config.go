// Package mkdocs resolves the configuration handed to the external site
// generator: generated defaults, an optional user-supplied config merged on
// top, and the plugins and extensions the publishing workflow requires.
package mkdocs

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pipedocs/internal/readme"
)

// ConfigFile is the name of the resolved config written at the repo root.
const ConfigFile = "mkdocs.yml"

// DefaultDocsDir is where split pages land, relative to the repo root.
const DefaultDocsDir = "docs/"

// Config models the parts of a MkDocs configuration we generate or merge.
// Unknown user keys ride along in Extra. Field order here fixes the key
// order of the emitted YAML, which keeps repeated merges byte-identical.
type Config struct {
	SiteName           string         `yaml:"site_name"`
	DocsDir            string         `yaml:"docs_dir"`
	RepoURL            string         `yaml:"repo_url,omitempty"`
	Theme              any            `yaml:"theme,omitempty"`
	EditURITemplate    string         `yaml:"edit_uri_template,omitempty"`
	Nav                []NavItem      `yaml:"nav"`
	Plugins            []any          `yaml:"plugins,omitempty"`
	MarkdownExtensions []any          `yaml:"markdown_extensions,omitempty"`
	Extra              map[string]any `yaml:",inline"`
}

// NavItem is one navigation entry: a single {title: file} pair, or a
// {title: [children]} pair for user-defined sections.
type NavItem map[string]any

// Title returns the entry's single key.
func (n NavItem) Title() string {
	for k := range n {
		return k
	}
	return ""
}

// requiredPlugins must be present for versioned publishing to work.
var requiredPlugins = []string{"mike"}

// requiredExtensions are markdown extensions README content relies on.
var requiredExtensions = []string{"admonition", "tables"}

// Default synthesizes the configuration used when the repository supplies
// none: site named after the repo, pages linking back to the built commit.
func Default(repo, commit string) *Config {
	name := repo
	if i := strings.LastIndex(repo, "/"); i >= 0 {
		name = repo[i+1:]
	}
	return &Config{
		SiteName:        name,
		DocsDir:         DefaultDocsDir,
		RepoURL:         "https://github.com/" + repo,
		Theme:           "readthedocs",
		EditURITemplate: fmt.Sprintf("blob/%s/README.md", commit),
	}
}

// Load reads a user-supplied config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Merge layers a user config over generated defaults. User scalars win;
// nested maps in Extra merge recursively. The result is deterministic and
// merging the same inputs twice yields identical output.
func Merge(def, user *Config) *Config {
	if user == nil {
		out := *def
		return &out
	}

	out := *def
	if user.SiteName != "" {
		out.SiteName = user.SiteName
	}
	if user.DocsDir != "" {
		out.DocsDir = user.DocsDir
	}
	if user.RepoURL != "" {
		out.RepoURL = user.RepoURL
	}
	if user.Theme != nil {
		out.Theme = user.Theme
	}
	if user.EditURITemplate != "" {
		out.EditURITemplate = user.EditURITemplate
	}
	if len(user.Nav) > 0 {
		out.Nav = append([]NavItem{}, user.Nav...)
	}
	if len(user.Plugins) > 0 {
		out.Plugins = append([]any{}, user.Plugins...)
	}
	if len(user.MarkdownExtensions) > 0 {
		out.MarkdownExtensions = append([]any{}, user.MarkdownExtensions...)
	}
	out.Extra = mergeMaps(def.Extra, user.Extra)
	return &out
}

// AddGeneratedNav appends the navigation entries derived from the README
// split. User entries stay first and win title collisions.
func (c *Config) AddGeneratedNav(entries []readme.NavEntry) {
	taken := make(map[string]bool, len(c.Nav))
	for _, item := range c.Nav {
		taken[item.Title()] = true
	}
	for _, entry := range entries {
		if taken[entry.Title] {
			continue
		}
		c.Nav = append(c.Nav, NavItem{entry.Title: entry.File})
	}
}

// EnsureRequired appends the plugins and markdown extensions the publishing
// workflow depends on, in sorted order, skipping any the user already
// declared (possibly with their own options). Idempotent.
func (c *Config) EnsureRequired() {
	c.Plugins = appendMissingEntries(c.Plugins, requiredPlugins)
	c.MarkdownExtensions = appendMissingEntries(c.MarkdownExtensions, requiredExtensions)
}

func appendMissingEntries(existing []any, required []string) []any {
	present := make(map[string]bool, len(existing))
	for _, entry := range existing {
		switch v := entry.(type) {
		case string:
			present[v] = true
		case map[string]any:
			// Configured entries look like {name: {options...}}.
			for name := range v {
				present[name] = true
			}
		}
	}
	missing := make([]string, 0, len(required))
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		existing = append(existing, name)
	}
	return existing
}

// Validate rejects configurations that would write outside the repository.
func (c *Config) Validate() error {
	if strings.HasPrefix(c.DocsDir, "/") {
		return fmt.Errorf("docs_dir %q cannot be absolute", c.DocsDir)
	}
	return nil
}

func mergeMaps(base, overlay map[string]any) map[string]any {
	if base == nil && overlay == nil {
		return nil
	}
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if existing, ok := out[k].(map[string]any); ok {
			if overlayMap, ok := v.(map[string]any); ok {
				out[k] = mergeMaps(existing, overlayMap)
				continue
			}
		}
		out[k] = v
	}
	return out
}
