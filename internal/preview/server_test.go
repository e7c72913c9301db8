package preview

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pipedocs/internal/git"
)

func publishedRepo(t *testing.T) (string, *gogit.Worktree) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		_, err := worktree.Add(name)
		require.NoError(t, err)
		_, err = worktree.Commit("publish "+name, &gogit.CommitOptions{
			Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
		})
		require.NoError(t, err)
	}

	commit("README.md", "# source\n")
	require.NoError(t, worktree.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(git.PublishBranch),
		Create: true,
	}))
	commit("index.html", "<html>site v1</html>")
	return dir, worktree
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServerServesPublishBranch(t *testing.T) {
	dir, _ := publishedRepo(t)
	client, err := git.Open(dir)
	require.NoError(t, err)

	server := NewServer(client, "127.0.0.1:0", nil)
	addr, stop, err := server.Start(context.Background())
	require.NoError(t, err)
	defer stop()

	status, body := get(t, "http://"+addr+"/index.html")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "site v1")
}

func TestServerRefreshFollowsBranchTip(t *testing.T) {
	dir, worktree := publishedRepo(t)
	client, err := git.Open(dir)
	require.NoError(t, err)

	server := NewServer(client, "127.0.0.1:0", nil)
	addr, stop, err := server.Start(context.Background())
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>site v2</html>"), 0o644))
	_, err = worktree.Add("index.html")
	require.NoError(t, err)
	_, err = worktree.Commit("publish update", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	require.NoError(t, server.refresh())

	_, body := get(t, "http://"+addr+"/index.html")
	assert.Contains(t, body, "site v2")
}

func TestServerRefreshIsNoopWhenTipUnchanged(t *testing.T) {
	dir, _ := publishedRepo(t)
	client, err := git.Open(dir)
	require.NoError(t, err)

	server := NewServer(client, "127.0.0.1:0", nil)
	_, stop, err := server.Start(context.Background())
	require.NoError(t, err)
	defer stop()

	first := server.site.root
	require.NoError(t, server.refresh())
	assert.Equal(t, first, server.site.root)
}

func TestServerStartFailsWithoutPublishBranch(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# x\n"), 0o644))
	_, err = worktree.Add("README.md")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	client, err := git.Open(dir)
	require.NoError(t, err)

	_, _, err = NewServer(client, "127.0.0.1:0", nil).Start(context.Background())
	require.ErrorIs(t, err, git.ErrNoBranch)
}
