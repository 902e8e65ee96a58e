// Package prompt asks the user for confirmation before a method is documented
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Confirmer answers yes/no questions
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// InteractivePrompter asks questions on a writer and reads answers from a reader
type InteractivePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewInteractivePrompter creates a prompter on the process's stdin and stdout
func NewInteractivePrompter() *InteractivePrompter {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		slog.Warn("stdin is not a terminal, guided mode answers are read from piped input")
	}
	return NewInteractivePrompterWithIO(os.Stdin, os.Stdout)
}

// NewInteractivePrompterWithIO creates a prompter on the given reader and writer
func NewInteractivePrompterWithIO(r io.Reader, w io.Writer) *InteractivePrompter {
	return &InteractivePrompter{reader: bufio.NewReader(r), writer: w}
}

// Confirm prints question with a [y/N] hint. Only "y" and "yes" (any case)
// confirm; an empty answer or end of input declines.
func (p *InteractivePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(p.writer, "%s [y/N] ", question)

	answer, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AutoApprove confirms every question without asking
type AutoApprove struct{}

// Confirm always returns true
func (AutoApprove) Confirm(ctx context.Context, question string) (bool, error) {
	return true, ctx.Err()
}
