package git

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/pipedocs/internal/logfields"
)

// ErrNoBranch is returned when a branch to extract does not exist locally.
var ErrNoBranch = errors.New("branch does not exist")

// ExtractBranch materializes the tree of a local branch into destDir without
// touching the worktree. The staged publish branch is served for preview
// this way while the main worktree stays on whatever version was built last.
func (c *Client) ExtractBranch(branch, destDir string) error {
	ref, err := c.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoBranch, branch)
	}
	commit, err := c.repo.CommitObject(ref.Hash())
	if err != nil {
		return fmt.Errorf("failed to read %s commit: %w", branch, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to read %s tree: %w", branch, err)
	}

	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("failed to clear extraction dir: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return fmt.Errorf("failed to create extraction dir: %w", err)
	}

	files := tree.Files()
	count := 0
	err = files.ForEach(func(f *object.File) error {
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return err
		}
		reader, err := f.Reader()
		if err != nil {
			return err
		}
		defer func() { _ = reader.Close() }()

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer func() { _ = out.Close() }()

		if _, err := io.Copy(out, reader); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", branch, err)
	}

	slog.Debug("Extracted branch tree", slog.String("branch", branch), logfields.Path(destDir), slog.Int("files", count))
	return nil
}

// BranchTip returns the commit hash a local branch points at, or ErrNoBranch.
func (c *Client) BranchTip(branch string) (string, error) {
	ref, err := c.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoBranch, branch)
	}
	return ref.Hash().String(), nil
}
