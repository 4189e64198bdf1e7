package manage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrConfirmationAborted is returned when the operator did not confirm.
var ErrConfirmationAborted = errors.New("confirmation aborted")

// Confirmer blocks until the operator confirms message or ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, message string) error
}

// PromptConfirmer prints the message and waits for a line on In. There is no
// timeout; the operator interrupts the process to cancel.
//
// In is read one byte at a time so that nothing past the newline is consumed.
// Whatever follows belongs to the commands that run after the prompt.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// NewPromptConfirmer returns a confirmer reading from in.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{In: in, Out: out}
}

func (c *PromptConfirmer) Confirm(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "\n%s\n", message)
	fmt.Fprint(c.Out, "Press Enter to continue...")

	// A blocked read cannot be interrupted. On cancellation the goroutine is
	// left behind until In is closed, which happens when the process exits.
	done := make(chan error, 1)
	go func() {
		done <- readLine(c.In)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.Out)
		return ctx.Err()
	case err := <-done:
		if err == nil {
			return nil
		}
		fmt.Fprintln(c.Out)
		if errors.Is(err, io.EOF) {
			return ErrConfirmationAborted
		}
		return fmt.Errorf("%w: %v", ErrConfirmationAborted, err)
	}
}

// readLine consumes r up to and including the next newline.
func readLine(r io.Reader) error {
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n == 1 && b[0] == '\n' {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
