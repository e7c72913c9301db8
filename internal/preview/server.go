// Package preview serves the locally staged publish branch over HTTP so an
// operator can review a backfill before anything is pushed. The branch tree
// is extracted into a scratch directory and re-extracted whenever the branch
// tip moves.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pipedocs/internal/git"
	"git.home.luguber.info/inful/pipedocs/internal/logfields"
)

const refreshDebounce = 300 * time.Millisecond

// switchableDir is an http.FileSystem whose root can be swapped atomically
// while requests are in flight.
type switchableDir struct {
	mu   sync.RWMutex
	root string
}

func (d *switchableDir) Open(name string) (http.File, error) {
	d.mu.RLock()
	root := d.root
	d.mu.RUnlock()
	return http.Dir(root).Open(name)
}

func (d *switchableDir) swap(root string) {
	d.mu.Lock()
	d.root = root
	d.mu.Unlock()
}

// Server serves the extracted publish branch of a repository.
type Server struct {
	Client  *git.Client
	Branch  string
	Addr    string
	Metrics http.Handler // mounted at /metrics when non-nil

	site    *switchableDir
	lastTip string
	tipMu   sync.Mutex
	tempDir string
}

// NewServer previews the publish branch of client on addr.
func NewServer(client *git.Client, addr string, metrics http.Handler) *Server {
	return &Server{
		Client:  client,
		Branch:  git.PublishBranch,
		Addr:    addr,
		Metrics: metrics,
	}
}

// Start extracts the branch, begins serving, and watches the repository for
// new commits on the branch. It returns the bound address and a stop
// function that shuts everything down and removes the scratch directory.
func (s *Server) Start(ctx context.Context) (string, func(), error) {
	tempDir, err := os.MkdirTemp("", "pipedocs-preview-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create preview dir: %w", err)
	}
	s.tempDir = tempDir

	if err := s.refresh(); err != nil {
		_ = os.RemoveAll(tempDir)
		return "", nil, err
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return "", nil, fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(s.site))
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}
	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server stopped", logfields.Error(err))
		}
	}()

	watcher, err := s.watchRefs()
	if err != nil {
		// Serving a frozen snapshot is still useful for review.
		slog.Warn("Preview will not auto-refresh", logfields.Error(err))
	}

	watchCtx, cancel := context.WithCancel(ctx)
	if watcher != nil {
		go s.refreshLoop(watchCtx, watcher)
	}

	addr := listener.Addr().String()
	slog.Info("Preview server listening", logfields.URL("http://"+addr+"/"))

	stop := func() {
		cancel()
		if watcher != nil {
			_ = watcher.Close()
		}
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = os.RemoveAll(tempDir)
	}
	return addr, stop, nil
}

// refresh re-extracts the branch if its tip moved since the last extraction.
func (s *Server) refresh() error {
	tip, err := s.Client.BranchTip(s.Branch)
	if err != nil {
		return err
	}

	s.tipMu.Lock()
	defer s.tipMu.Unlock()
	if tip == s.lastTip {
		return nil
	}

	// Extract into a fresh directory and swap, so requests never see a
	// half-written tree.
	dest := filepath.Join(s.tempDir, tip[:12])
	if err := s.Client.ExtractBranch(s.Branch, dest); err != nil {
		return err
	}

	previous := ""
	if s.site == nil {
		s.site = &switchableDir{root: dest}
	} else {
		s.site.mu.RLock()
		previous = s.site.root
		s.site.mu.RUnlock()
		s.site.swap(dest)
	}
	s.lastTip = tip
	slog.Info("Preview refreshed", logfields.Commit(tip))

	if previous != "" {
		_ = os.RemoveAll(previous)
	}
	return nil
}

// watchRefs watches the locations git writes when a branch advances: the
// loose ref file's directory and the repository root for packed-refs
// rewrites.
func (s *Server) watchRefs() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	gitDir := filepath.Join(s.Client.Path(), ".git")
	headsDir := filepath.Join(gitDir, "refs", "heads")
	_ = os.MkdirAll(headsDir, 0o750)

	for _, dir := range []string{gitDir, headsDir} {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return watcher, nil
}

func (s *Server) refreshLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var mu sync.Mutex
	var timer *time.Timer

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(refreshDebounce, func() {
			if err := s.refresh(); err != nil && !errors.Is(err, git.ErrNoBranch) {
				slog.Warn("Failed to refresh preview", logfields.Error(err))
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}
