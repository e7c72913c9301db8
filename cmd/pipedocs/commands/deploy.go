package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/pipedocs/internal/config"
	"git.home.luguber.info/inful/pipedocs/internal/git"
	"git.home.luguber.info/inful/pipedocs/internal/logfields"
	"git.home.luguber.info/inful/pipedocs/internal/metrics"
	"git.home.luguber.info/inful/pipedocs/internal/mike"
	"git.home.luguber.info/inful/pipedocs/internal/publish"
)

// DeployCmd is the CI entry point: it documents the currently checked out
// commit and pushes the publish branch. Undocumented flags default from the
// GitHub Actions environment.
type DeployCmd struct {
	Workspace    string `name:"workspace" help:"Repository checkout to document (defaults to GITHUB_WORKSPACE)"`
	Repo         string `name:"repo" help:"Repository in org/name form (defaults to GITHUB_REPOSITORY)"`
	Commit       string `name:"commit" help:"Commit being documented (defaults to GITHUB_SHA)"`
	Readme       string `name:"readme" help:"README path relative to the workspace"`
	MkdocsConfig string `name:"mkdocs-config" help:"User mkdocs config to merge, or 'None'"`
	NoIntro      bool   `name:"no-intro" help:"Drop README content before the first section heading"`
}

func (d *DeployCmd) Run(_ *Global) error {
	inputs := config.FromEnv()
	if d.Workspace != "" {
		inputs.Workspace = d.Workspace
	}
	if d.Repo != "" {
		inputs.Repo = d.Repo
	}
	if d.Commit != "" {
		inputs.Commit = d.Commit
	}
	if d.Readme != "" {
		inputs.Readme = d.Readme
	}
	if d.MkdocsConfig != "" {
		inputs.MkdocsConfig = d.MkdocsConfig
	}
	if d.NoIntro {
		inputs.KeepIntro = false
	}
	if err := inputs.Validate(); err != nil {
		return err
	}
	if !mike.Available() {
		return fmt.Errorf("%s binary not found on PATH", mike.Binary)
	}

	client, err := git.Open(inputs.Workspace)
	if err != nil {
		return fmt.Errorf("failed to open repository at %s: %w", inputs.Workspace, err)
	}

	slog.Info("Deploying documentation",
		logfields.Repository(inputs.Repo),
		logfields.Commit(inputs.Commit),
		logfields.Path(inputs.Workspace))

	publisher := &publish.Publisher{
		Inputs:  inputs,
		Repo:    client,
		Site:    &mike.Runner{Dir: inputs.Workspace},
		Metrics: metrics.NoopRecorder{},
	}
	return publisher.Run()
}
