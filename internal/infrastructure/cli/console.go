package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/doeshing/matrixsh/internal/ports"
)

// Affirmatives are the answers Confirm accepts as yes, compared case-insensitively.
var Affirmatives = []string{"y", "yes", "ok", "s", "si", "sì", "oui", "ja"}

type readResult struct {
	line string
	err  error
}

// Console implements ports.Console on a line reader. A single goroutine owns
// the reader so that a pending read can be abandoned when ctx ends.
type Console struct {
	in    *bufio.Reader
	out   io.Writer
	lines chan readResult
	once  sync.Once
}

// NewConsole constructs a console referencing stdio when in or out is nil.
func NewConsole(in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan readResult),
	}
}

// ReadLine prints prompt and waits for one line without its line ending.
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	c.once.Do(func() { go c.pump() })
	fmt.Fprint(c.out, prompt)

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	case res, open := <-c.lines:
		if !open {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

// Confirm asks question and reports whether the answer is an affirmative.
func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	line, err := c.ReadLine(ctx, question)
	if err != nil {
		return false, err
	}
	return IsAffirmative(line), nil
}

// IsAffirmative matches answer against Affirmatives.
func IsAffirmative(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	for _, yes := range Affirmatives {
		if answer == yes {
			return true
		}
	}
	return false
}

func (c *Console) pump() {
	defer close(c.lines)
	for {
		line, err := c.in.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err != nil {
			if line != "" {
				c.lines <- readResult{line: line}
			}
			c.lines <- readResult{err: err}
			return
		}
		c.lines <- readResult{line: line}
	}
}

var _ ports.Console = (*Console)(nil)
