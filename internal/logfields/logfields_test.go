package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Version", KeyVersion, "v1.2.3", Version("v1.2.3")},
		{"Tag", KeyTag, "v1.2.3-rc.1", Tag("v1.2.3-rc.1")},
		{"Alias", KeyAlias, "latest", Alias("latest")},
		{"Repository", KeyRepo, "org/repo", Repository("org/repo")},
		{"URL", KeyURL, "git@example.com:org/repo.git", URL("git@example.com:org/repo.git")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Commit", KeyCommit, "abc1234", Commit("abc1234")},
		{"RunID", KeyRunID, "rid", RunID("rid")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.attr.Key != tc.attrKey {
				t.Errorf("expected key %q, got %q", tc.attrKey, tc.attr.Key)
			}
			if got := tc.attr.Value.String(); got != tc.attrVal {
				t.Errorf("expected value %q, got %q", tc.attrVal, got)
			}
		})
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Errorf("nil error should render empty, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Errorf("expected boom, got %q", got)
	}
}
