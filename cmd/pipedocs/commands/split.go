package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/pipedocs/internal/readme"
)

// SplitCmd runs only the README splitting step. Useful for checking what
// pages and anchors a README produces before wiring up a pipeline.
type SplitCmd struct {
	Readme  string `arg:"" optional:"" default:"README.md" help:"README file to split"`
	DocsDir string `name:"docs-dir" short:"d" default:"./docs" help:"Directory to write the pages into"`
	NoIntro bool   `name:"no-intro" help:"Drop content before the first section heading"`
}

func (s *SplitCmd) Run(_ *Global) error {
	doc, err := os.ReadFile(s.Readme)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.Readme, err)
	}

	result, err := readme.Split(doc, readme.SplitOptions{KeepIntro: !s.NoIntro})
	if err != nil {
		return err
	}
	nav, err := readme.WritePages(result.Pages, s.DocsDir)
	if err != nil {
		return err
	}

	for _, entry := range nav {
		fmt.Printf("%s\t%s\n", entry.File, entry.Title)
	}
	return nil
}
