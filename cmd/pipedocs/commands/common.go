package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Deploy   DeployCmd   `cmd:"" help:"Build docs from the README and stage them on the publish branch"`
	Backfill BackfillCmd `cmd:"" help:"Rebuild docs for every historical tag of a repository"`
	Split    SplitCmd    `cmd:"" help:"Split a README into per-section pages without deploying"`
	Preview  PreviewCmd  `cmd:"" help:"Serve the locally staged publish branch"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
