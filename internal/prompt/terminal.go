package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// Terminal prompts on a line-oriented reader and writer. A prompt returns as
// soon as its context ends; the abandoned read is handed to the next prompt.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer

	mu      sync.Mutex
	pending chan lineResult

	// AssumeYes answers every confirmation with yes without reading input.
	AssumeYes bool
}

func NewTerminal(in io.Reader, out, errOut io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
		err: errOut,
	}
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) Confirm(ctx context.Context, message string) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Dismissed, nil
	}
	if t.AssumeYes {
		fmt.Fprintf(t.out, "%s [y/N] y\n", message)
		return Yes, nil
	}
	fmt.Fprintf(t.out, "%s [y/N] ", message)
	line, ok, err := t.readLine(ctx)
	if err != nil {
		return Dismissed, err
	}
	if !ok {
		fmt.Fprintln(t.out)
		return Dismissed, nil
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return Yes, nil
	case "n", "no":
		return No, nil
	default:
		return Dismissed, nil
	}
}

func (t *Terminal) InputText(ctx context.Context, prompt, placeholder string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, nil
	}
	if placeholder != "" {
		fmt.Fprintf(t.out, "%s (%s): ", prompt, placeholder)
	} else {
		fmt.Fprintf(t.out, "%s: ", prompt)
	}
	line, ok, err := t.readLine(ctx)
	if err != nil {
		return "", false, err
	}
	if !ok {
		fmt.Fprintln(t.out)
		return "", false, nil
	}
	return line, true, nil
}

func (t *Terminal) Notify(_ context.Context, level Level, message string) {
	c := infoColor
	switch level {
	case LevelError:
		c = errorColor
	case LevelWarning:
		c = warningColor
	}
	c.Fprintf(t.err, "%s: ", level)
	fmt.Fprintln(t.err, message)
}

type lineResult struct {
	line string
	ok   bool
	err  error
}

// readLine returns ok=false on EOF with no pending input or when ctx ends
// first.
func (t *Terminal) readLine(ctx context.Context) (string, bool, error) {
	t.mu.Lock()
	if t.pending == nil {
		ch := make(chan lineResult, 1)
		t.pending = ch
		go func() {
			line, ok, err := t.read()
			ch <- lineResult{line: line, ok: ok, err: err}
		}()
	}
	ch := t.pending
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", false, nil
	case res := <-ch:
		t.mu.Lock()
		t.pending = nil
		t.mu.Unlock()
		return res.line, res.ok, res.err
	}
}

func (t *Terminal) read() (string, bool, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				return "", false, nil
			}
			return strings.TrimSpace(line), true, nil
		}
		return "", false, fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), true, nil
}
