package readme

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/pipedocs/internal/logfields"
)

// imageExtensions are the image types copied into the docs tree rather than
// redirected to the forge's file browser.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".svg":  true,
}

// inlineLinkRe matches inline links and images: [text](dest) / ![alt](dest),
// with an optional title. Group 1 is everything up to the destination, group
// 2 the destination, group 3 the remainder of the construct.
var inlineLinkRe = regexp.MustCompile(`(!?\[(?:[^\]\\]|\\.)*\]\()([^()\s]+)((?:\s+"[^"]*")?\))`)

// LinkRewriter fixes up links after a README has been split into multiple
// files. There are five cases:
//
//  1. Links outside the repository - left unchanged.
//  2. File links already under the docs dir - made docs-relative.
//  3. Images - copied into docs/img/ and rewritten.
//  4. Other repository files - redirected to the forge's file browser.
//  5. Anchor links - pointed at the page the heading was split into.
type LinkRewriter struct {
	RepoDir string // repository root the README lives in
	DocsDir string // destination docs directory (absolute)
	Repo    string // forge repository, org/name form
	Commit  string // ref used for file-browser links, e.g. a SHA or "main"

	// Anchors is the heading-anchor to filename mapping from the split.
	Anchors map[string]string

	warnings []string
}

// Warnings lists broken links encountered while rewriting, in order.
func (r *LinkRewriter) Warnings() []string { return r.warnings }

// RewritePage sanitizes all inline link destinations in a page body.
// Fenced code blocks are left untouched.
func (r *LinkRewriter) RewritePage(body string) string {
	var (
		out      []string
		inFence  bool
		fenceTok string
	)
	for _, line := range strings.Split(body, "\n") {
		if m := fenceRe.FindStringSubmatch(line); m != nil {
			tok := m[1][:1]
			if !inFence {
				inFence, fenceTok = true, tok
			} else if tok == fenceTok {
				inFence = false
			}
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		out = append(out, inlineLinkRe.ReplaceAllStringFunc(line, func(match string) string {
			sub := inlineLinkRe.FindStringSubmatch(match)
			return sub[1] + r.sanitize(sub[2]) + sub[3]
		}))
	}
	return strings.Join(out, "\n")
}

func (r *LinkRewriter) sanitize(raw string) string {
	link, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch {
	case link.Scheme != "" || link.Host != "":
		// A real link (https://, ftp://, mailto: ...) - don't touch it.
		return raw

	case link.Path != "":
		return r.sanitizePath(raw, link)

	case link.Fragment != "":
		// An anchor within the formerly monolithic README; it now needs the
		// filename of whichever page the heading landed in.
		target, ok := r.Anchors[HeadingAnchor(link.Fragment)]
		if !ok {
			r.warn(fmt.Sprintf("broken anchor link #%s", link.Fragment))
			return raw
		}
		link.Path = target
		return link.String()
	}
	return raw
}

func (r *LinkRewriter) sanitizePath(raw string, link *url.URL) string {
	resolved, err := filepath.Abs(filepath.Join(r.RepoDir, filepath.FromSlash(link.Path)))
	if err != nil {
		return raw
	}

	rel, err := filepath.Rel(r.RepoDir, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Outside the repository; nothing sensible to rewrite it to.
		return raw
	}

	// Already under the docs dir: the linking document now lives there too.
	if docsRel, err := filepath.Rel(r.DocsDir, resolved); err == nil && !strings.HasPrefix(docsRel, "..") {
		link.Path = filepath.ToSlash(docsRel)
		return link.String()
	}

	if info, err := os.Stat(resolved); err == nil && !info.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(resolved))] {
		copied, err := r.copyImage(resolved)
		if err != nil {
			r.warn(fmt.Sprintf("copying image %s: %v", link.Path, err))
			return raw
		}
		link.Path = copied
		return link.String()
	}

	// Everything else links to the file on the forge at the built ref.
	link.Scheme = "https"
	link.Host = "github.com"
	link.Path = path.Join(r.Repo, "blob", r.Commit, filepath.ToSlash(rel))
	return link.String()
}

// copyImage copies an image into docs/img/ and returns its docs-relative path.
func (r *LinkRewriter) copyImage(src string) (string, error) {
	imgDir := filepath.Join(r.DocsDir, "img")
	if err := os.MkdirAll(imgDir, 0o750); err != nil {
		return "", err
	}
	dst := filepath.Join(imgDir, filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return path.Join("img", filepath.Base(src)), nil
}

func (r *LinkRewriter) warn(msg string) {
	r.warnings = append(r.warnings, msg)
	slog.Warn("Broken link while splitting README", logfields.Repository(r.Repo), slog.String("link", msg))
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}
