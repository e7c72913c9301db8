package readme

import (
	"fmt"
	"regexp"
	"strings"
)

// IndexFile is the filename of the introductory page.
const IndexFile = "index.md"

// IndexTitle is the navigation title of the introductory page.
const IndexTitle = "Home"

// Page is a navigable fragment of a README: everything from one level-2
// heading up to the next one.
type Page struct {
	Title    string // trimmed heading text, markup intact
	Filename string // file-system-safe name, unique within the split
	Ordinal  int    // document order, 0-based
	Body     string // Markdown body including the heading line
}

// SplitOptions controls how a README is partitioned.
type SplitOptions struct {
	// KeepIntro retains content before the first level-2 heading as an
	// introductory "Home" page. When false that content is dropped and its
	// headings get no anchor entries.
	KeepIntro bool
}

// SplitResult is the outcome of partitioning one README.
type SplitResult struct {
	Pages []Page
	// Anchors maps each heading's GitHub-style anchor to the file it now
	// lives in, so fragment-only links can be rewritten after the split.
	Anchors map[string]string
}

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*(?:#+\s*)?$`)
	fenceRe   = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
)

// Split partitions a README into ordered pages at level-2 headings. The
// heading text, trimmed, becomes the page title; duplicate titles get
// numeric suffixes on their filenames. Heading lines inside fenced code
// blocks are content, not boundaries. A document with no level-2 headings
// yields zero content pages.
func Split(doc []byte, opts SplitOptions) (*SplitResult, error) {
	res := &SplitResult{Anchors: make(map[string]string)}

	var (
		pages    []*pageBuilder
		current  *pageBuilder
		inFence  bool
		fenceTok string
	)

	if opts.KeepIntro {
		current = &pageBuilder{Page: Page{Title: IndexTitle, Filename: IndexFile}}
		pages = append(pages, current)
	}

	for _, line := range strings.Split(string(doc), "\n") {
		if m := fenceRe.FindStringSubmatch(line); m != nil {
			tok := m[1][:1]
			if !inFence {
				inFence, fenceTok = true, tok
			} else if tok == fenceTok {
				inFence = false
			}
			if current != nil {
				current.lines = append(current.lines, line)
			}
			continue
		}

		m := headingRe.FindStringSubmatch(line)
		if m == nil || inFence {
			if current != nil {
				current.lines = append(current.lines, line)
			}
			continue
		}

		title := strings.TrimSpace(m[2])
		if len(m[1]) == 2 {
			current = &pageBuilder{Page: Page{Title: title}}
			current.Filename = uniqueAnchor(res.Anchors, HeadingAnchor(title)) + ".md"
			res.Anchors[strings.TrimSuffix(current.Filename, ".md")] = current.Filename
			pages = append(pages, current)
		} else if current != nil {
			// Sub-headings (and the H1) stay on the current page; record
			// where their anchors ended up.
			anchor := uniqueAnchor(res.Anchors, HeadingAnchor(title))
			res.Anchors[anchor] = current.Filename
		}
		if current != nil {
			current.lines = append(current.lines, line)
		}
	}

	for i, pb := range pages {
		pb.Ordinal = i
		pb.Body = strings.TrimRight(strings.Join(pb.lines, "\n"), "\n") + "\n"
		res.Pages = append(res.Pages, pb.Page)
	}
	return res, nil
}

type pageBuilder struct {
	Page
	lines []string
}

// uniqueAnchor appends -1, -2, ... until the anchor is unused, matching how
// the forge numbers repeated heading anchors.
func uniqueAnchor(taken map[string]string, anchor string) string {
	candidate := anchor
	for i := 1; ; i++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", anchor, i)
	}
}
