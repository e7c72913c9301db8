package readme

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pipedocs/internal/logfields"
)

// NavEntry is one generated navigation item, in document order.
type NavEntry struct {
	Title string
	File  string
}

// WritePages writes each page into docsDir and returns the navigation
// entries for the site configuration, ordered by page ordinal.
func WritePages(pages []Page, docsDir string) ([]NavEntry, error) {
	if err := os.MkdirAll(docsDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating docs directory: %w", err)
	}

	nav := make([]NavEntry, 0, len(pages))
	for _, page := range pages {
		target := filepath.Join(docsDir, page.Filename)
		if err := os.WriteFile(target, []byte(page.Body), 0o644); err != nil {
			return nil, fmt.Errorf("writing page %s: %w", page.Filename, err)
		}
		slog.Debug("Wrote page", logfields.Path(target), slog.String("title", page.Title))
		nav = append(nav, NavEntry{Title: page.Title, File: page.Filename})
	}
	return nav, nil
}
