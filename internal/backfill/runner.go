// Package backfill replays documentation generation across all historical
// tags of a repository: clone, build each undocumented version oldest first,
// preview the staged result, and push only after explicit confirmation.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pipedocs/internal/config"
	"git.home.luguber.info/inful/pipedocs/internal/git"
	"git.home.luguber.info/inful/pipedocs/internal/logfields"
	"git.home.luguber.info/inful/pipedocs/internal/metrics"
	"git.home.luguber.info/inful/pipedocs/internal/mike"
	"git.home.luguber.info/inful/pipedocs/internal/publish"
	"git.home.luguber.info/inful/pipedocs/internal/versioning"
	"git.home.luguber.info/inful/pipedocs/internal/workspace"
)

// Failure records one version that could not be documented.
type Failure struct {
	Version string
	Err     error
}

// Result summarizes a backfill run.
type Result struct {
	RunID    string
	Built    []string
	Skipped  []string // already documented, never re-queued
	Failures []Failure
	Pushed   bool
	Rejected bool // operator answered no at the confirmation prompt
}

// Runner drives one backfill run. The function fields are seams: production
// wiring uses the real clone/build/manifest implementations installed by
// NewRunner, tests swap them out.
type Runner struct {
	RepoURL   string
	Repo      string // org/name, derived from RepoURL
	Workspace *workspace.Manager
	Confirm   Confirmer
	Metrics   metrics.Recorder
	KeepIntro bool

	Clone    func(url, path string) (*git.Client, error)
	Build    func(client *git.Client, repo string, keepIntro bool, rec metrics.Recorder) error
	Manifest func(repoPath string) (versioning.Manifest, error)
	// Preview serves the staged site for operator review; nil disables it.
	Preview func(client *git.Client) (addr string, stop func(), err error)
}

// NewRunner builds a runner with production wiring.
func NewRunner(repoURL string, ws *workspace.Manager, confirm Confirmer, rec metrics.Recorder, keepIntro bool) (*Runner, error) {
	repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Runner{
		RepoURL:   repoURL,
		Repo:      repo,
		Workspace: ws,
		Confirm:   confirm,
		Metrics:   rec,
		KeepIntro: keepIntro,
		Clone:     git.Clone,
		Build:     buildCurrent,
		Manifest: func(repoPath string) (versioning.Manifest, error) {
			return (&mike.Runner{Dir: repoPath}).List()
		},
	}, nil
}

// Run executes the whole backfill. A per-version failure is recorded and the
// loop continues; only clone-level problems or a rejected push abort early.
// Explicit operator rejection is a successful outcome, and so is an
// interrupt while waiting at the confirmation prompt.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	slog.Info("Starting backfill", logfields.RunID(result.RunID), logfields.URL(r.RepoURL), logfields.Repository(r.Repo))

	if err := r.Workspace.Create(); err != nil {
		return result, err
	}
	defer func() {
		if err := r.Workspace.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	client, err := r.Clone(r.RepoURL, r.Workspace.Path())
	if err != nil {
		return result, err
	}
	// Make any previously published site available locally so the manifest
	// reflects what is already live.
	if err := client.FetchPublishBranch(); err != nil {
		return result, err
	}

	queue, skipped, err := r.workList(client)
	if err != nil {
		return result, err
	}
	result.Skipped = skipped
	for range skipped {
		r.Metrics.IncDeployResult(metrics.ResultSkipped)
	}
	slog.Info("Computed work list", logfields.RunID(result.RunID), slog.Int("queued", len(queue)), slog.Int("skipped", len(skipped)))

	for _, tag := range queue {
		if err := r.buildTag(client, tag); err != nil {
			slog.Error("Version failed", logfields.Tag(tag), logfields.Error(err))
			result.Failures = append(result.Failures, Failure{Version: tag, Err: err})
			r.Metrics.IncDeployResult(metrics.ResultFailure)
			continue
		}
		result.Built = append(result.Built, tag)
		r.Metrics.IncDeployResult(metrics.ResultSuccess)
	}
	r.Metrics.SetStagedVersions(len(result.Built) + len(result.Skipped))

	r.logSummary(result)

	var previewStop func()
	if r.Preview != nil {
		addr, stop, err := r.Preview(client)
		if err != nil {
			slog.Warn("Preview server unavailable", logfields.Error(err))
		} else {
			previewStop = stop
			slog.Info("Updated documentation ready for review", logfields.URL("http://"+addr+"/"))
		}
	}
	if previewStop != nil {
		defer previewStop()
	}

	approved, err := r.Confirm.Confirm(ctx, "Push these docs live")
	if err != nil {
		return result, fmt.Errorf("reading confirmation: %w", err)
	}
	if !approved {
		slog.Info("Not pushing docs")
		result.Rejected = true
		return result, nil
	}

	if err := client.PushPublishBranch(); err != nil {
		// The local stage is intact; the operator can retry with the kept
		// workspace.
		return result, err
	}
	result.Pushed = true
	return result, nil
}

// workList computes the immutable, ascending-ordered list of tags to build,
// skipping versions the published manifest already knows.
func (r *Runner) workList(client *git.Client) (queue, skipped []string, err error) {
	tags, err := client.Tags()
	if err != nil {
		return nil, nil, err
	}
	valid := versioning.FilterTags(tags)
	for _, tag := range tags {
		if !versioning.TagPattern.MatchString(tag) {
			slog.Warn("Skipping malformed tag", logfields.Tag(tag))
		}
	}
	versioning.SortAscending(valid)

	manifest, err := r.Manifest(client.Path())
	if err != nil {
		return nil, nil, fmt.Errorf("reading published version manifest: %w", err)
	}

	for _, tag := range valid {
		if manifest.Has(tag) {
			skipped = append(skipped, tag)
			continue
		}
		queue = append(queue, tag)
	}
	return queue, skipped, nil
}

func (r *Runner) buildTag(client *git.Client, tag string) error {
	slog.Info("Generating docs for tag", logfields.Tag(tag))
	started := time.Now()

	if err := client.Checkout(tag); err != nil {
		return fmt.Errorf("checking out %s: %w", tag, err)
	}
	if err := r.Build(client, r.Repo, r.KeepIntro, r.Metrics); err != nil {
		return err
	}
	r.Metrics.ObserveDeployDuration(tag, time.Since(started))
	return nil
}

func (r *Runner) logSummary(result *Result) {
	slog.Info("Backfill summary",
		logfields.RunID(result.RunID),
		slog.Int("built", len(result.Built)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Failures)))
	for _, failure := range result.Failures {
		slog.Error("Failed version", logfields.Tag(failure.Version), logfields.Error(failure.Err))
	}
}

// buildCurrent documents whatever is checked out right now, with remote
// operations suppressed.
func buildCurrent(client *git.Client, repo string, keepIntro bool, rec metrics.Recorder) error {
	head, err := client.Head()
	if err != nil {
		return err
	}
	inputs := &config.Inputs{
		Workspace: client.Path(),
		Repo:      repo,
		Commit:    head.Hash,
		Readme:    "README.md",
		KeepIntro: keepIntro,
		Backfill:  true,
	}
	publisher := &publish.Publisher{
		Inputs:  inputs,
		Repo:    client,
		Site:    &mike.Runner{Dir: client.Path()},
		Metrics: rec,
	}
	return publisher.Run()
}
