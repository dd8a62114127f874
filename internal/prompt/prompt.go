package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrInterrupted is returned when the context ends while waiting for input.
var ErrInterrupted = errors.New("confirmation interrupted")

// Confirmer asks a yes/no question on out and reads the answer from in.
type Confirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConfirmer(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{in: bufio.NewReader(in), out: out}
}

type answer struct {
	line string
	err  error
}

// Confirm prints question and blocks until one line is read or ctx is done.
// End of input counts as a decline.
func (c *Confirmer) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	if _, err := fmt.Fprint(c.out, question); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	// The read cannot be interrupted, so it runs on its own goroutine and is
	// abandoned on cancellation.
	ch := make(chan answer, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("read confirmation: %w", a.err)
		}
		return IsAffirmative(a.line), nil
	}
}

// IsAffirmative accepts "yes" or "y" in any case, ignoring surrounding space.
func IsAffirmative(response string) bool {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}

// Interactive reports whether r is a terminal.
func Interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
