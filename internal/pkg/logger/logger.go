package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// StdLogger is a lightweight implementation backed by Go's log package.
// Nothing is written unless verbose is set.
type StdLogger struct {
	verbose bool
	out     *log.Logger
	base    map[string]interface{}
}

// NewStd creates a StdLogger writing to stderr.
func NewStd(verbose bool) *StdLogger {
	return New(os.Stderr, verbose)
}

// New creates a StdLogger writing to w.
func New(w io.Writer, verbose bool) *StdLogger {
	return &StdLogger{verbose: verbose, out: log.New(w, "matrixsh ", log.LstdFlags|log.Lmicroseconds)}
}

// Verbose reports whether debug logging is on, via --debug or MATRIXSH_DEBUG.
func Verbose(flag bool) bool {
	if flag {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MATRIXSH_DEBUG"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// With returns a logger that adds fields to every line.
func (l *StdLogger) With(fields map[string]interface{}) *StdLogger {
	merged := make(map[string]interface{}, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &StdLogger{verbose: l.verbose, out: l.out, base: merged}
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	l.write("DEBUG", msg, nil, fields)
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	l.write("INFO", msg, nil, fields)
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	l.write("WARN", msg, nil, fields)
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.write("ERROR", msg, err, fields)
}

func (l *StdLogger) write(level string, msg string, err error, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	if err != nil {
		fmt.Fprintf(&b, " error=%q", err.Error())
	}
	for _, kv := range sortedFields(l.base, fields) {
		fmt.Fprintf(&b, " %s=%v", kv[0], kv[1])
	}
	l.out.Println(b.String())
}

func sortedFields(base, fields map[string]interface{}) [][2]interface{} {
	merged := make(map[string]interface{}, len(base)+len(fields))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]interface{}{k, merged[k]})
	}
	return out
}
