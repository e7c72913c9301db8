package mkdocs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pipedocs/internal/readme"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("example/pipeline", "abc123")

	assert.Equal(t, "pipeline", cfg.SiteName)
	assert.Equal(t, DefaultDocsDir, cfg.DocsDir)
	assert.Equal(t, "https://github.com/example/pipeline", cfg.RepoURL)
	assert.Equal(t, "readthedocs", cfg.Theme)
	assert.Equal(t, "blob/abc123/README.md", cfg.EditURITemplate)
}

func TestMergeUserScalarsWin(t *testing.T) {
	def := Default("example/pipeline", "abc123")
	user := &Config{
		SiteName: "Custom Docs",
		Theme:    map[string]any{"name": "material"},
		Extra:    map[string]any{"site_url": "https://docs.example.com"},
	}

	merged := Merge(def, user)

	assert.Equal(t, "Custom Docs", merged.SiteName)
	assert.Equal(t, map[string]any{"name": "material"}, merged.Theme)
	assert.Equal(t, DefaultDocsDir, merged.DocsDir, "unset user fields keep defaults")
	assert.Equal(t, "https://docs.example.com", merged.Extra["site_url"])
}

func TestMergeNilUserCopiesDefaults(t *testing.T) {
	def := Default("example/pipeline", "abc123")
	merged := Merge(def, nil)
	assert.Equal(t, def.SiteName, merged.SiteName)
}

func TestMergeIsDeterministicAndIdempotent(t *testing.T) {
	def := Default("example/pipeline", "abc123")
	user := &Config{
		Nav:   []NavItem{{"Changelog": "changelog.md"}},
		Extra: map[string]any{"extra": map[string]any{"social": []any{"x"}}},
	}

	first := Merge(def, user)
	first.AddGeneratedNav([]readme.NavEntry{{Title: "Home", File: "index.md"}})
	first.EnsureRequired()
	firstBytes, err := first.Marshal()
	require.NoError(t, err)

	second := Merge(def, user)
	second.AddGeneratedNav([]readme.NavEntry{{Title: "Home", File: "index.md"}})
	second.EnsureRequired()
	secondBytes, err := second.Marshal()
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes, "merge output must be byte-identical across runs")
}

func TestAddGeneratedNavUserEntriesWinCollisions(t *testing.T) {
	cfg := &Config{Nav: []NavItem{{"Usage": "custom-usage.md"}}}

	cfg.AddGeneratedNav([]readme.NavEntry{
		{Title: "Home", File: "index.md"},
		{Title: "Usage", File: "usage.md"},
	})

	require.Len(t, cfg.Nav, 2)
	assert.Equal(t, NavItem{"Usage": "custom-usage.md"}, cfg.Nav[0], "user entry preserved and first")
	assert.Equal(t, NavItem{"Home": "index.md"}, cfg.Nav[1])
}

func TestEnsureRequiredAppendsMissingOnly(t *testing.T) {
	cfg := &Config{
		Plugins:            []any{"search", map[string]any{"mike": map[string]any{"canonical_version": "latest"}}},
		MarkdownExtensions: []any{"tables"},
	}

	cfg.EnsureRequired()
	cfg.EnsureRequired() // idempotent

	assert.Len(t, cfg.Plugins, 2, "configured mike entry must not be duplicated")
	assert.Equal(t, []any{"tables", "admonition"}, cfg.MarkdownExtensions)
}

func TestValidateRejectsAbsoluteDocsDir(t *testing.T) {
	cfg := &Config{DocsDir: "/etc/docs"}
	assert.Error(t, cfg.Validate())
	cfg.DocsDir = "docs/"
	assert.NoError(t, cfg.Validate())
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mkdocs.yml")
	require.NoError(t, os.WriteFile(path, []byte("site_name: Loaded\nnav:\n  - Extra: extra.md\nplugins:\n  - search\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Loaded", cfg.SiteName)
	require.Len(t, cfg.Nav, 1)
	assert.Equal(t, "Extra", cfg.Nav[0].Title())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestWriteInherited(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ConfigFile)
	require.NoError(t, os.WriteFile(base, []byte("---\nsite_name: x\n"), 0o644))

	path, cleanup, err := WriteInherited(base, Overrides{
		RepoURL:         "https://github.com/example/pipeline/tree/v1.0.0",
		EditURITemplate: "https://github.com/example/pipeline/blob/v1.0.0/README.md",
	})
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INHERIT: "+ConfigFile)
	assert.Contains(t, string(data), "tree/v1.0.0")
	assert.Equal(t, dir, filepath.Dir(path), "inherited config must sit next to its base")

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
