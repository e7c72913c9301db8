package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/pipedocs/internal/git"
	"git.home.luguber.info/inful/pipedocs/internal/preview"
)

// PreviewCmd serves the publish branch of a local repository and follows it
// as new versions are staged.
type PreviewCmd struct {
	RepoDir string `arg:"" optional:"" default:"." help:"Repository whose publish branch to serve"`
	Listen  string `name:"listen" default:"127.0.0.1:8000" help:"Address to listen on"`
}

func (p *PreviewCmd) Run(_ *Global) error {
	client, err := git.Open(p.RepoDir)
	if err != nil {
		return fmt.Errorf("failed to open repository at %s: %w", p.RepoDir, err)
	}

	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, stop, err := preview.NewServer(client, p.Listen, nil).Start(sigctx)
	if err != nil {
		return err
	}
	defer stop()

	<-sigctx.Done()
	return nil
}
