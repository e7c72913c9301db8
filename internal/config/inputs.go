// Package config resolves the action's inputs from flags and the GitHub
// Actions environment, including the path-safety checks on user-supplied
// files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names the workflow reads.
const (
	EnvWorkspace  = "GITHUB_WORKSPACE"
	EnvRepository = "GITHUB_REPOSITORY"
	EnvSHA        = "GITHUB_SHA"
	EnvActor      = "GITHUB_ACTOR"
	EnvCI         = "CI"
	EnvActions    = "GITHUB_ACTIONS"
	EnvBackfill   = "BACKFILL_TAGS"
)

// Inputs are the resolved parameters of one deploy run.
type Inputs struct {
	Workspace    string // repository checkout, GITHUB_WORKSPACE or cwd
	Repo         string // forge repository, org/name
	Commit       string // built commit SHA, "main" when unknown
	Actor        string // CI actor for the publish commit identity
	Readme       string // README path relative to the workspace
	MkdocsConfig string // optional user config path; "" or "None" means absent
	KeepIntro    bool   // retain content before the first level-2 heading

	// Backfill suppresses all remote git operations; the backfill driver
	// owns fetch and push itself.
	Backfill bool
	// CI is set when running under GitHub Actions.
	CI bool
}

// FromEnv builds Inputs from the environment, loading a .env file first for
// local runs when one exists.
func FromEnv() *Inputs {
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env file")
	}

	workspace := os.Getenv(EnvWorkspace)
	if workspace == "" {
		workspace, _ = os.Getwd()
	}
	commit := os.Getenv(EnvSHA)
	if commit == "" {
		commit = "main"
	}

	return &Inputs{
		Workspace: workspace,
		Repo:      os.Getenv(EnvRepository),
		Commit:    commit,
		Actor:     os.Getenv(EnvActor),
		Readme:    "README.md",
		KeepIntro: true,
		Backfill:  os.Getenv(EnvBackfill) != "",
		CI:        os.Getenv(EnvCI) != "" && os.Getenv(EnvActions) != "",
	}
}

// Validate checks the inputs that have no usable fallback.
func (in *Inputs) Validate() error {
	if in.Workspace == "" {
		return fmt.Errorf("workspace directory is required")
	}
	fragments := strings.Split(in.Repo, "/")
	if len(fragments) != 2 || strings.TrimSpace(fragments[0]) == "" || strings.TrimSpace(fragments[1]) == "" {
		return fmt.Errorf("repository %q doesn't match the form 'orgname/reponame'", in.Repo)
	}
	return nil
}

// ResolveReadme returns the absolute README path, rejecting files outside
// the workspace.
func (in *Inputs) ResolveReadme() (string, error) {
	path, err := in.resolveInside(in.Readme)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("README %s not found: %w", path, err)
	}
	return path, nil
}

// ResolveMkdocsConfig returns the absolute user config path, or ok=false
// when none was supplied. GitHub Actions passes unset inputs as the literal
// string "None", which counts as absent.
func (in *Inputs) ResolveMkdocsConfig() (string, bool, error) {
	if in.MkdocsConfig == "" || filepath.Base(in.MkdocsConfig) == "None" {
		return "", false, nil
	}
	path, err := in.resolveInside(in.MkdocsConfig)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err != nil {
		return "", false, fmt.Errorf("config file %s not found: %w", path, err)
	}
	return path, true, nil
}

func (in *Inputs) resolveInside(rel string) (string, error) {
	workspace, err := filepath.Abs(in.Workspace)
	if err != nil {
		return "", fmt.Errorf("resolving workspace: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(workspace, rel))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rel, err)
	}
	relBack, err := filepath.Rel(workspace, path)
	if err != nil || relBack == ".." || strings.HasPrefix(relBack, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside of the repository", rel)
	}
	return path, nil
}
