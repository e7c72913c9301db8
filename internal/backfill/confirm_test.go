package backfill

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderConfirmer(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "yes\n", true},
		{"no", "no\n", false},
		{"case insensitive", "YES\n", true},
		{"surrounding whitespace", "  yes  \n", true},
		{"reprompts until a full answer", "y\nsure\nyes\n", true},
		{"eof is a no", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out strings.Builder
			confirmer := &ReaderConfirmer{In: strings.NewReader(tc.input), Out: &out}
			got, err := confirmer.Confirm(context.Background(), "Push these docs live")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Contains(t, out.String(), "Push these docs live [yes/no]?")
		})
	}
}

func TestReaderConfirmerInterruptIsNo(t *testing.T) {
	// A reader that never produces a line, like a terminal where the
	// operator hits Ctrl-C instead of answering.
	blocked, _ := io.Pipe()
	var out strings.Builder
	confirmer := &ReaderConfirmer{In: blocked, Out: &out}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := confirmer.Confirm(ctx, "Push these docs live")
	require.NoError(t, err)
	assert.False(t, got)
	assert.Contains(t, out.String(), "interrupted, not confirming")
}
