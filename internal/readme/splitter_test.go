package readme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReadme = `# My Pipeline

Some intro text.

## Installation

Run the installer.

## Usage

### Basics

Use it.

## Installation

Second install section.
`

func TestSplitProducesPagesInDocumentOrder(t *testing.T) {
	res, err := Split([]byte(sampleReadme), SplitOptions{KeepIntro: true})
	require.NoError(t, err)

	require.Len(t, res.Pages, 4)
	assert.Equal(t, IndexTitle, res.Pages[0].Title)
	assert.Equal(t, IndexFile, res.Pages[0].Filename)
	assert.Equal(t, "Installation", res.Pages[1].Title)
	assert.Equal(t, "installation.md", res.Pages[1].Filename)
	assert.Equal(t, "Usage", res.Pages[2].Title)
	assert.Equal(t, "Installation", res.Pages[3].Title)

	for i, page := range res.Pages {
		assert.Equal(t, i, page.Ordinal)
		assert.NotEmpty(t, page.Title)
	}
}

func TestSplitDuplicateTitlesGetSuffixedFilenames(t *testing.T) {
	res, err := Split([]byte(sampleReadme), SplitOptions{KeepIntro: true})
	require.NoError(t, err)

	assert.Equal(t, "installation.md", res.Pages[1].Filename)
	assert.Equal(t, "installation-1.md", res.Pages[3].Filename)
}

func TestSplitAnchorsMapToTheirPages(t *testing.T) {
	res, err := Split([]byte(sampleReadme), SplitOptions{KeepIntro: true})
	require.NoError(t, err)

	assert.Equal(t, IndexFile, res.Anchors["my-pipeline"])
	assert.Equal(t, "installation.md", res.Anchors["installation"])
	assert.Equal(t, "usage.md", res.Anchors["basics"])
	assert.Equal(t, "installation-1.md", res.Anchors["installation-1"])
}

func TestSplitDropsIntroWhenConfigured(t *testing.T) {
	res, err := Split([]byte(sampleReadme), SplitOptions{})
	require.NoError(t, err)

	require.Len(t, res.Pages, 3)
	assert.Equal(t, "Installation", res.Pages[0].Title)
	assert.NotContains(t, res.Anchors, "my-pipeline")
}

func TestSplitNoHeadingsYieldsZeroContentPages(t *testing.T) {
	doc := []byte("Just a paragraph.\n\nAnother paragraph.\n")

	res, err := Split(doc, SplitOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Pages)

	res, err = Split(doc, SplitOptions{KeepIntro: true})
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, IndexTitle, res.Pages[0].Title)
}

func TestSplitIgnoresHeadingsInsideCodeFences(t *testing.T) {
	doc := []byte("## Real\n\n```\n## not a heading\n```\n\n~~~markdown\n## also not\n~~~\n\n## Other\n")

	res, err := Split(doc, SplitOptions{})
	require.NoError(t, err)

	require.Len(t, res.Pages, 2)
	assert.Equal(t, "Real", res.Pages[0].Title)
	assert.Equal(t, "Other", res.Pages[1].Title)
	assert.Contains(t, res.Pages[0].Body, "## not a heading")
}

func TestSplitIsIdempotent(t *testing.T) {
	first, err := Split([]byte(sampleReadme), SplitOptions{KeepIntro: true})
	require.NoError(t, err)
	second, err := Split([]byte(sampleReadme), SplitOptions{KeepIntro: true})
	require.NoError(t, err)

	assert.Equal(t, first.Pages, second.Pages)
	assert.Equal(t, first.Anchors, second.Anchors)
}

func TestSplitTitleKeepsMarkupButTrims(t *testing.T) {
	res, err := Split([]byte("##   Using `pipedocs`   \n\ncontent\n"), SplitOptions{})
	require.NoError(t, err)

	require.Len(t, res.Pages, 1)
	assert.Equal(t, "Using `pipedocs`", res.Pages[0].Title)
	assert.Equal(t, "using-pipedocs.md", res.Pages[0].Filename)
}

func TestHeadingAnchor(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Simple Heading", "simple-heading"},
		{"**Bold** and _italic_", "bold-and-italic"},
		{"With `code` span", "with-code-span"},
		{"Punctuation, removed!", "punctuation-removed"},
		{"  Trimmed  ", "trimmed"},
		{"[Linked](https://example.com) heading", "linked-heading"},
		{"MixedCase Heading", "mixedcase-heading"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HeadingAnchor(tc.in), "anchor for %q", tc.in)
	}
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "bold text", StripMarkup("**bold text**"))
	assert.Equal(t, "linked text", StripMarkup("[linked text](https://example.com)"))
	assert.Equal(t, "struck text", StripMarkup("~~struck text~~"))
	assert.Equal(t, "code block", StripMarkup("`code block`"))
}
