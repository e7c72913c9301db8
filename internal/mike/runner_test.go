package mike

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pipedocs/internal/versioning"
)

func TestManifestFromListOutput(t *testing.T) {
	// The generator's list --json output shape.
	out := []byte(`[
		{"version": "v1.0.1", "title": "v1.0.1", "aliases": [], "properties": {"commit": "aaa", "date": "2026-01-01T00:00:00+00:00"}},
		{"version": "v1.0.2", "title": "v1.0.2", "aliases": ["latest"], "properties": {"commit": "bbb", "date": "2026-02-01T00:00:00+00:00"}},
		{"version": "development", "title": "development", "aliases": []}
	]`)

	var entries []versioning.DocumentedVersion
	require.NoError(t, json.Unmarshal(out, &entries))

	manifest := make(versioning.Manifest, len(entries))
	for _, entry := range entries {
		manifest[entry.Version] = entry
	}

	assert.True(t, manifest.Has("v1.0.1"))
	assert.Equal(t, "bbb", manifest["v1.0.2"].Commit())
	assert.Empty(t, manifest["development"].Commit(), "entries without properties are tolerated")
	assert.Equal(t, "v1.0.2", manifest.Highest("v0.0.0"))
}

func TestDeployArgsOrdering(t *testing.T) {
	// Properties marshal with sorted keys, so the command line is stable
	// run to run.
	props := map[string]string{"date": "d", "commit": "c"}
	first, err := json.Marshal(props)
	require.NoError(t, err)
	second, err := json.Marshal(props)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.JSONEq(t, `{"commit":"c","date":"d"}`, string(first))
}
