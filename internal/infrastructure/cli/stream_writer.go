package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// streamWriter writes /chat chunks as they arrive and remembers whether the
// cursor was left mid-line.
type streamWriter struct {
	out     io.Writer
	mu      sync.Mutex
	midLine bool
}

// newStreamWriter builds a streamWriter for stdout.
func newStreamWriter(out io.Writer) *streamWriter {
	return &streamWriter{out: out}
}

func (s *streamWriter) WriteChunk(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.out, text)
	s.midLine = !strings.HasSuffix(text, "\n")
}

// Done terminates a partial line.
func (s *streamWriter) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.midLine {
		fmt.Fprintln(s.out)
		s.midLine = false
	}
}
