// Package git wraps the go-git operations the deploy and backfill workflows
// need: cloning, tag enumeration, checkouts, ancestry checks, and the single
// push that makes staged documentation live.
package git

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/pipedocs/internal/logfields"
)

// PublishBranch is the orphan branch the site generator commits to.
const PublishBranch = "gh-pages"

// Client handles Git operations for one repository checkout.
type Client struct {
	path string
	repo *gogit.Repository
}

// HeadCommit describes the currently checked-out commit.
type HeadCommit struct {
	Hash string
	Date time.Time
}

// Clone clones url into path, submodules included, and returns a client for
// the fresh checkout.
func Clone(url, path string) (*Client, error) {
	slog.Info("Cloning repository", logfields.URL(url), logfields.Path(path))

	repo, err := gogit.PlainClone(path, false, &gogit.CloneOptions{
		URL:               url,
		RecurseSubmodules: gogit.DefaultSubmoduleRecursionDepth,
		Progress:          os.Stderr,
		Tags:              gogit.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
	return &Client{path: path, repo: repo}, nil
}

// Open opens an existing repository at path.
func Open(path string) (*Client, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return &Client{path: path, repo: repo}, nil
}

// Path returns the checkout's working directory.
func (c *Client) Path() string { return c.path }

// Tags returns all tag names in the repository.
func (c *Client) Tags() ([]string, error) {
	iter, err := c.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return names, nil
}

// TagsAt returns the names of all tags whose target is the given commit,
// peeling annotated tags.
func (c *Client) TagsAt(hash string) ([]string, error) {
	iter, err := c.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	target := plumbing.NewHash(hash)
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		resolved := ref.Hash()
		if tag, tagErr := c.repo.TagObject(ref.Hash()); tagErr == nil {
			resolved = tag.Target
		}
		if resolved == target {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return names, nil
}

// Head returns the checked-out commit's hash and committer date.
func (c *Client) Head() (HeadCommit, error) {
	ref, err := c.repo.Head()
	if err != nil {
		return HeadCommit{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := c.repo.CommitObject(ref.Hash())
	if err != nil {
		return HeadCommit{}, fmt.Errorf("failed to read HEAD commit: %w", err)
	}
	return HeadCommit{Hash: ref.Hash().String(), Date: commit.Committer.When}, nil
}

// Checkout checks out the given tag or branch with a forced, clean worktree
// so one version's build cannot leak into the next.
func (c *Client) Checkout(ref string) error {
	worktree, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	hash, err := c.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	if err := worktree.Checkout(&gogit.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", ref, err)
	}
	if err := worktree.Clean(&gogit.CleanOptions{Dir: true}); err != nil {
		return fmt.Errorf("failed to clean worktree after checkout of %s: %w", ref, err)
	}

	if err := c.updateSubmodules(worktree); err != nil {
		return err
	}

	slog.Debug("Checked out ref", logfields.Tag(ref), logfields.Commit(hash.String()[:8]), logfields.Path(c.path))
	return nil
}

func (c *Client) updateSubmodules(worktree *gogit.Worktree) error {
	subs, err := worktree.Submodules()
	if err != nil {
		return fmt.Errorf("failed to read submodules: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}
	err = subs.Update(&gogit.SubmoduleUpdateOptions{
		Init:              true,
		RecurseSubmodules: gogit.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		return fmt.Errorf("failed to update submodules: %w", err)
	}
	return nil
}

// IsAncestor reports whether the commit ancestor is reachable from
// descendant. It satisfies versioning.AncestryChecker.
func (c *Client) IsAncestor(ancestor, descendant string) (bool, error) {
	ancCommit, err := c.repo.CommitObject(plumbing.NewHash(ancestor))
	if err != nil {
		return false, fmt.Errorf("failed to read commit %s: %w", ancestor, err)
	}
	descCommit, err := c.repo.CommitObject(plumbing.NewHash(descendant))
	if err != nil {
		return false, fmt.Errorf("failed to read commit %s: %w", descendant, err)
	}
	isAnc, err := ancCommit.IsAncestor(descCommit)
	if err != nil {
		return false, fmt.Errorf("failed ancestry check %s..%s: %w", ancestor, descendant, err)
	}
	return isAnc, nil
}

// FetchPublishBranch fetches the publishing branch from origin. A missing
// branch is fine: it simply doesn't exist before the first deploy.
func (c *Client) FetchPublishBranch() error {
	err := c.repo.Fetch(&gogit.FetchOptions{
		RemoteName: "origin",
		RefSpecs: []gitconfig.RefSpec{
			gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", PublishBranch, PublishBranch)),
		},
		Depth: 1,
	})
	switch {
	case err == nil:
		// Make the branch available locally for the generator to build on.
		remoteRef, refErr := c.repo.Reference(plumbing.NewRemoteReferenceName("origin", PublishBranch), true)
		if refErr != nil {
			return fmt.Errorf("failed to resolve fetched %s: %w", PublishBranch, refErr)
		}
		localRef := plumbing.NewHashReference(plumbing.NewBranchReferenceName(PublishBranch), remoteRef.Hash())
		if refErr := c.repo.Storer.SetReference(localRef); refErr != nil {
			return fmt.Errorf("failed to set local %s: %w", PublishBranch, refErr)
		}
		return nil
	case err == gogit.NoErrAlreadyUpToDate:
		return nil
	default:
		slog.Debug("Publish branch not fetched (may not exist yet)", logfields.Error(err))
		return nil
	}
}

// FetchTags fetches all tags from origin.
func (c *Client) FetchTags() error {
	err := c.repo.Fetch(&gogit.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{"+refs/tags/*:refs/tags/*"},
		Tags:       gogit.AllTags,
	})
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to fetch tags: %w", err)
	}
	return nil
}

// PushPublishBranch pushes the publishing branch to origin. This is the only
// operation that mutates remote state; a failure here leaves the remote
// untouched and the local stage intact for retry.
func (c *Client) PushPublishBranch() error {
	slog.Info("Pushing publish branch", slog.String("branch", PublishBranch))
	err := c.repo.Push(&gogit.PushOptions{
		RemoteName: "origin",
		RefSpecs: []gitconfig.RefSpec{
			gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", PublishBranch, PublishBranch)),
		},
	})
	if err == gogit.NoErrAlreadyUpToDate {
		slog.Info("Publish branch already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push %s: %w", PublishBranch, err)
	}
	return nil
}

// ConfigureUser sets the committer identity used for generated publish
// commits, as CI checkouts have none.
func (c *Client) ConfigureUser(name, email string) error {
	cfg, err := c.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read repository config: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := c.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to set repository config: %w", err)
	}
	return nil
}
