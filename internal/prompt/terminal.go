package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"conduit/internal/domain"
)

var ErrNoTerminal = errors.New("prompt: stdin is not a terminal")

// Terminal asks on a line-oriented reader and writer. Concurrent Approve
// calls queue; each waits for its own answer.
type Terminal struct {
	in  io.Reader
	out io.Writer

	turn      chan struct{}
	startOnce sync.Once
	lines     chan string
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, turn: make(chan struct{}, 1), lines: make(chan string)}
}

// FromStdio prompts on stdin/stderr. It fails when stdin is not interactive.
func FromStdio() (*Terminal, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, ErrNoTerminal
	}
	return NewTerminal(os.Stdin, os.Stderr), nil
}

// Approve asks whether info may pair. It returns ctx.Err() if ctx ends first.
func (t *Terminal) Approve(ctx context.Context, info domain.DeviceInfo) (bool, error) {
	select {
	case t.turn <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	defer func() { <-t.turn }()

	t.startOnce.Do(func() { go t.readLines() })
	t.drain()

	fmt.Fprintf(t.out, "\nPair %s on %s (identity %s)? [y/N]: ", info.Device, info.Browser, info.Identity)
	select {
	case line, ok := <-t.lines:
		if !ok {
			return false, io.EOF
		}
		return isYes(line), nil
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return false, ctx.Err()
	}
}

// readLines feeds t.lines until the reader ends. Lines nobody asked for are discarded by drain.
func (t *Terminal) readLines() {
	defer close(t.lines)
	sc := bufio.NewScanner(t.in)
	for sc.Scan() {
		t.lines <- sc.Text()
	}
}

// drain discards a line typed before the question was shown.
func (t *Terminal) drain() {
	for {
		select {
		case _, ok := <-t.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func isYes(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

var _ domain.Approver = (*Terminal)(nil)
