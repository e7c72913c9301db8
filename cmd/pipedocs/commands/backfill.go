package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/pipedocs/internal/backfill"
	"git.home.luguber.info/inful/pipedocs/internal/git"
	"git.home.luguber.info/inful/pipedocs/internal/metrics"
	"git.home.luguber.info/inful/pipedocs/internal/mike"
	"git.home.luguber.info/inful/pipedocs/internal/preview"
	"git.home.luguber.info/inful/pipedocs/internal/workspace"
)

// BackfillCmd replays documentation generation across every tag of a
// repository, previews the result, and pushes only after confirmation.
type BackfillCmd struct {
	URL string `arg:"" name:"repo-url" help:"Clone URL of the repository to backfill"`

	Listen        string `name:"listen" default:"127.0.0.1:8000" help:"Address for the preview server"`
	NoPreview     bool   `name:"no-preview" help:"Skip the preview server before confirming"`
	Yes           bool   `short:"y" name:"yes" help:"Push without asking for confirmation"`
	KeepWorkspace bool   `name:"keep-workspace" help:"Keep the temporary clone after the run"`
	WorkspaceDir  string `name:"workspace-dir" help:"Base directory for the temporary clone (defaults to the system temp dir)"`
	NoIntro       bool   `name:"no-intro" help:"Drop README content before the first section heading"`
}

func (b *BackfillCmd) Run(_ *Global) error {
	if !mike.Available() {
		return fmt.Errorf("%s binary not found on PATH", mike.Binary)
	}

	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	baseDir := b.WorkspaceDir
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	ws := workspace.NewManager(baseDir, b.KeepWorkspace)

	var confirm backfill.Confirmer
	if b.Yes {
		confirm = backfill.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	} else {
		confirm = &backfill.ReaderConfirmer{In: os.Stdin, Out: os.Stdout}
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	runner, err := backfill.NewRunner(b.URL, ws, confirm, recorder, !b.NoIntro)
	if err != nil {
		return err
	}
	if !b.NoPreview {
		runner.Preview = func(client *git.Client) (string, func(), error) {
			return preview.NewServer(client, b.Listen, recorder.Handler()).Start(sigctx)
		}
	}

	result, err := runner.Run(sigctx)
	if err != nil {
		return err
	}

	fmt.Printf("Backfill %s: built %d, skipped %d, failed %d\n",
		result.RunID, len(result.Built), len(result.Skipped), len(result.Failures))
	for _, failure := range result.Failures {
		fmt.Printf("  %s: %v\n", failure.Version, failure.Err)
	}
	switch {
	case result.Rejected:
		fmt.Println("Nothing pushed.")
	case result.Pushed:
		fmt.Println("Pushed", git.PublishBranch)
	}
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d versions failed to build", len(result.Failures))
	}
	return nil
}
