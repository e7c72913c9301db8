package versioning

import (
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pipedocs/internal/logfields"
)

// Aliases the publisher maintains on top of plain version names.
const (
	AliasLatest           = "latest"
	AliasReleaseCandidate = "release-candidate"
)

// HeadInfo describes the currently checked-out commit.
type HeadInfo struct {
	Commit string
	Date   time.Time
	Tags   []string // tags pointing at this commit, unfiltered
}

// Deployment is one unit of work for the publisher: document the current
// checkout under Version, updating Aliases to point at it.
type Deployment struct {
	Version    string
	Aliases    []string
	Properties map[string]string
}

// AncestryChecker reports how two commits relate in history.
type AncestryChecker interface {
	// IsAncestor reports whether ancestor is reachable from descendant.
	IsAncestor(ancestor, descendant string) (bool, error)
}

// Plan computes the deployments required for the current head: one per
// not-yet-documented version tag pointing at it, plus a "development" entry
// when the head supersedes the previously documented development build.
//
// Re-running on an already-documented tag yields no deployment for that tag
// (same commit), which makes the single-version workflow idempotent at the
// plan level; callers that want forced rebuilds deploy regardless.
func Plan(head HeadInfo, manifest Manifest, ancestry AncestryChecker) ([]Deployment, error) {
	props := map[string]string{
		"commit": head.Commit,
		"date":   head.Date.Format(time.RFC3339),
	}

	// Every version deployed from this head shares these aliases. On the
	// very first publication there is nothing to alias "latest" to yet, so
	// the head claims it regardless of what it is.
	shared := []string{}
	if len(manifest) == 0 {
		shared = append(shared, AliasLatest)
	}

	var deployments []Deployment

	isDev, err := headIsDevelopment(head, manifest, ancestry)
	if err != nil {
		return nil, fmt.Errorf("placing development version: %w", err)
	}
	if isDev {
		deployments = append(deployments, Deployment{
			Version:    DevelopmentVersion,
			Aliases:    append([]string{}, shared...),
			Properties: props,
		})
	}

	headTags := FilterTags(head.Tags)
	SortAscending(headTags)

	highest := manifest.Highest("v0.0.0")
	highestRelease := manifest.HighestRelease("v0.0.0")

	for _, tag := range headTags {
		if existing, ok := manifest[tag]; ok && existing.Commit() == head.Commit {
			slog.Debug("Tag already documented at this commit", logfields.Tag(tag), logfields.Commit(head.Commit))
			continue
		}

		aliases := append([]string{}, shared...)

		// The highest tag overall carries "release-candidate", even when it
		// is actually a release; this keeps the alias from lagging behind
		// "latest".
		if Compare(tag, highest) > 0 {
			aliases = appendMissing(aliases, AliasReleaseCandidate)
		}
		if !IsReleaseCandidate(tag) && Compare(tag, highestRelease) > 0 {
			aliases = appendMissing(aliases, AliasLatest)
		}

		deployments = append(deployments, Deployment{
			Version:    tag,
			Aliases:    aliases,
			Properties: props,
		})
	}

	return deployments, nil
}

// headIsDevelopment decides whether the head should be documented as the
// "development" version. It should when the previously documented
// development commit is an ancestor, and should not when the head is itself
// an ancestor of it. Unrelated histories fall back to comparing commit
// dates, which protects against odd branch arrangements.
func headIsDevelopment(head HeadInfo, manifest Manifest, ancestry AncestryChecker) (bool, error) {
	dev, ok := manifest[DevelopmentVersion]
	if !ok {
		return true, nil
	}

	devCommit := dev.Commit()
	devDate := dev.Date()
	if devCommit == "" || devDate == "" {
		// No recorded provenance; assume this head is newer.
		return true, nil
	}

	if isAnc, err := ancestry.IsAncestor(devCommit, head.Commit); err != nil {
		return false, err
	} else if isAnc {
		return true, nil
	}

	if isAnc, err := ancestry.IsAncestor(head.Commit, devCommit); err != nil {
		return false, err
	} else if isAnc {
		return false, nil
	}

	parsed, err := time.Parse(time.RFC3339, devDate)
	if err != nil {
		return true, nil
	}
	return head.Date.After(parsed), nil
}

func appendMissing(aliases []string, alias string) []string {
	for _, a := range aliases {
		if a == alias {
			return aliases
		}
	}
	return append(aliases, alias)
}
