// Package prompt provides the yes/no confirmation gate used before
// destructive operations.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the user to approve an action.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// Static answers every prompt with the same value. Used for --yes.
type Static bool

// Confirm returns the fixed answer.
func (s Static) Confirm(context.Context, string, string) (bool, error) {
	return bool(s), nil
}

// Terminal asks on an output stream and reads y/N from an input stream.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the prompt and reads one line. Only "y" or "yes"
// (any case) approve; end of input declines.
func (t Terminal) Confirm(ctx context.Context, title, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(t.Out, "%s\n%s [y/N]: ", title, message)

	line, err := bufio.NewReader(t.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
