// Package publish orchestrates one documentation deployment: split the
// README, resolve the site configuration, run the generator for every
// version the current head requires, and push the publish branch.
package publish

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pipedocs/internal/config"
	"git.home.luguber.info/inful/pipedocs/internal/git"
	"git.home.luguber.info/inful/pipedocs/internal/logfields"
	"git.home.luguber.info/inful/pipedocs/internal/metrics"
	"git.home.luguber.info/inful/pipedocs/internal/mkdocs"
	"git.home.luguber.info/inful/pipedocs/internal/readme"
	"git.home.luguber.info/inful/pipedocs/internal/versioning"
)

// SiteBuilder abstracts the external generator operations the publisher
// drives. *mike.Runner implements it.
type SiteBuilder interface {
	Deploy(configFile string, d versioning.Deployment) error
	SetDefault(configFile, alias string) error
	List() (versioning.Manifest, error)
}

// Repository abstracts the version-control operations the publisher needs.
// *git.Client implements it.
type Repository interface {
	Head() (git.HeadCommit, error)
	TagsAt(hash string) ([]string, error)
	IsAncestor(ancestor, descendant string) (bool, error)
	FetchPublishBranch() error
	FetchTags() error
	PushPublishBranch() error
	ConfigureUser(name, email string) error
}

// Publisher runs the single-head deployment workflow.
type Publisher struct {
	Inputs  *config.Inputs
	Repo    Repository
	Site    SiteBuilder
	Metrics metrics.Recorder
}

// Run executes the workflow for the current checkout. In backfill mode all
// remote operations are suppressed; the backfill driver owns fetch and push.
func (p *Publisher) Run() error {
	if p.Metrics == nil {
		p.Metrics = metrics.NoopRecorder{}
	}

	if err := p.setupGit(); err != nil {
		return err
	}

	configFile, err := p.PrepareSite()
	if err != nil {
		return err
	}

	manifest, err := p.Site.List()
	if err != nil {
		return fmt.Errorf("reading published version manifest: %w", err)
	}

	head, err := p.Repo.Head()
	if err != nil {
		return err
	}
	tags, err := p.Repo.TagsAt(head.Hash)
	if err != nil {
		return err
	}

	deployments, err := versioning.Plan(versioning.HeadInfo{
		Commit: head.Hash,
		Date:   head.Date,
		Tags:   tags,
	}, manifest, p.Repo)
	if err != nil {
		return err
	}

	for _, deployment := range deployments {
		if err := p.deploy(configFile, deployment); err != nil {
			p.Metrics.IncDeployResult(metrics.ResultFailure)
			return err
		}
		p.Metrics.IncDeployResult(metrics.ResultSuccess)
	}

	// Redirect the site root to the latest release. A no-op after the very
	// first deployment, but repeating it never causes problems.
	if err := p.Site.SetDefault(configFile, versioning.AliasLatest); err != nil {
		return err
	}

	if !p.Inputs.Backfill {
		return p.Repo.PushPublishBranch()
	}
	return nil
}

func (p *Publisher) setupGit() error {
	if p.Inputs.CI {
		email := fmt.Sprintf("%s@users.noreply.github.com", p.Inputs.Actor)
		if err := p.Repo.ConfigureUser(p.Inputs.Actor, email); err != nil {
			return err
		}
	}
	if p.Inputs.Backfill {
		return nil
	}
	if err := p.Repo.FetchPublishBranch(); err != nil {
		return err
	}
	return p.Repo.FetchTags()
}

func (p *Publisher) deploy(configFile string, d versioning.Deployment) error {
	started := time.Now()

	// Tag versions get edit links pointing at the tag rather than a bare
	// commit; an inherited config overrides just those two values.
	deployConfig := configFile
	if versioning.TagPattern.MatchString(d.Version) {
		base := "https://github.com/" + p.Inputs.Repo
		overridden, cleanup, err := mkdocs.WriteInherited(configFile, mkdocs.Overrides{
			RepoURL:         base + "/tree/" + d.Version,
			EditURITemplate: base + "/blob/" + d.Version + "/README.md",
		})
		if err != nil {
			return err
		}
		defer cleanup()
		deployConfig = overridden
	}

	if err := p.Site.Deploy(deployConfig, d); err != nil {
		return fmt.Errorf("deploying %s: %w", d.Version, err)
	}
	p.Metrics.ObserveDeployDuration(d.Version, time.Since(started))
	slog.Info("Version deployed", logfields.Version(d.Version), logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	return nil
}

// PrepareSite splits the README, resolves the site configuration, writes the
// docs tree and the resolved config file, and returns the config path.
func (p *Publisher) PrepareSite() (string, error) {
	readmePath, err := p.Inputs.ResolveReadme()
	if err != nil {
		return "", err
	}

	var userConfig *mkdocs.Config
	if userPath, ok, err := p.Inputs.ResolveMkdocsConfig(); err != nil {
		return "", err
	} else if ok {
		if userConfig, err = mkdocs.Load(userPath); err != nil {
			return "", err
		}
	}

	cfg := mkdocs.Merge(mkdocs.Default(p.Inputs.Repo, p.Inputs.Commit), userConfig)
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(readmePath)
	if err != nil {
		return "", fmt.Errorf("reading README: %w", err)
	}

	split, err := readme.Split(data, readme.SplitOptions{KeepIntro: p.Inputs.KeepIntro})
	if err != nil {
		return "", err
	}
	if len(split.Pages) == 0 {
		slog.Warn("README has no level-2 headings; site will have no content pages", logfields.Path(readmePath))
	}

	docsDir := filepath.Join(p.Inputs.Workspace, filepath.FromSlash(cfg.DocsDir))
	rewriter := &readme.LinkRewriter{
		RepoDir: filepath.Dir(readmePath),
		DocsDir: docsDir,
		Repo:    p.Inputs.Repo,
		Commit:  p.Inputs.Commit,
		Anchors: split.Anchors,
	}
	for i := range split.Pages {
		split.Pages[i].Body = rewriter.RewritePage(split.Pages[i].Body)
	}

	nav, err := readme.WritePages(split.Pages, docsDir)
	if err != nil {
		return "", err
	}
	cfg.AddGeneratedNav(nav)
	cfg.EnsureRequired()

	configPath := filepath.Join(p.Inputs.Workspace, mkdocs.ConfigFile)
	if err := cfg.Write(configPath); err != nil {
		return "", err
	}
	slog.Info("Site prepared",
		logfields.Path(configPath),
		slog.Int("pages", len(split.Pages)),
		slog.Int("broken_links", len(rewriter.Warnings())))
	return configPath, nil
}
