package readme

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
)

var (
	whitespaceRe = regexp.MustCompile(`\s`)
	specialsRe   = regexp.MustCompile(`[^\p{L}\p{N}_-]`)
	foldCaser    = cases.Fold()
)

// StripMarkup removes inline Markdown formatting from text, keeping the
// plain content: **bold**, _italic_, ~~struck~~ and [linked](x) text are
// reduced to their inner text, and `code` spans to their content.
func StripMarkup(text string) string {
	src := []byte(text)
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
	root := md.Parser().Parse(gmtext.NewReader(src))

	var b strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := n.(*gmast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
		return gmast.WalkContinue, nil
	})
	return b.String()
}

// HeadingAnchor returns the anchor name GitHub assigns to a heading: markup
// stripped, whitespace replaced by dashes, specials other than - and _
// removed, and the result case-folded.
func HeadingAnchor(text string) string {
	plain := StripMarkup(strings.TrimSpace(text))
	noSpaces := whitespaceRe.ReplaceAllString(plain, "-")
	noSpecials := specialsRe.ReplaceAllString(noSpaces, "")
	return foldCaser.String(noSpecials)
}
