package backfill

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Confirmer is the single suspension point before anything is pushed. Tests
// inject deterministic implementations; the CLI uses ReaderConfirmer on
// stdin.
type Confirmer interface {
	// Confirm asks the operator a yes/no question and blocks until a full
	// "yes" or "no" answer arrives, or ctx is cancelled. Cancellation is
	// an answer of no.
	Confirm(ctx context.Context, question string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// ReaderConfirmer reads answers line by line. Requiring a full "yes" or "no"
// is heavy-handed, but this is the only confirmation layer in front of a
// remote push. EOF and interrupt both count as a no.
type ReaderConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (r *ReaderConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	lines := make(chan string)
	readDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readDone <- scanner.Err()
	}()

	for {
		if _, err := fmt.Fprintf(r.Out, "%s [yes/no]? ", question); err != nil {
			return false, err
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.Out, "interrupted, not confirming")
			return false, nil
		case err := <-readDone:
			if err != nil {
				return false, err
			}
			// Input closed; treat like a no.
			fmt.Fprintln(r.Out, "no input, not confirming")
			return false, nil
		case line := <-lines:
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "yes":
				return true, nil
			case "no":
				return false, nil
			}
		}
	}
}
