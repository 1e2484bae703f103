package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ShellMode enumerates supported execution backends.
type ShellMode string

const (
	ShellAuto       ShellMode = "auto"
	ShellBash       ShellMode = "bash"
	ShellCmd        ShellMode = "cmd"
	ShellPowerShell ShellMode = "powershell"
)

// ParseShellMode accepts auto/bash/cmd/powershell (case-insensitive). Empty means auto.
func ParseShellMode(value string) (ShellMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return ShellAuto, nil
	case "bash":
		return ShellBash, nil
	case "cmd":
		return ShellCmd, nil
	case "powershell", "pwsh":
		return ShellPowerShell, nil
	default:
		return "", fmt.Errorf("unsupported shell mode %q (want auto, bash, cmd or powershell)", value)
	}
}

// Resolve turns auto into the platform default for goos.
func (m ShellMode) Resolve(goos string) ShellMode {
	if m != ShellAuto && m != "" {
		return m
	}
	if goos == "windows" {
		return ShellPowerShell
	}
	return ShellBash
}

// ExecResult is the outcome of running one command.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports a zero exit code.
func (r ExecResult) Success() bool {
	return r.ExitCode == 0
}

// Summary is the short form stored in exec history items.
func (r ExecResult) Summary() string {
	excerpt := strings.TrimSpace(r.Stdout)
	if r.ExitCode != 0 && strings.TrimSpace(r.Stderr) != "" {
		excerpt = strings.TrimSpace(r.Stderr)
	}
	if i := strings.IndexByte(excerpt, '\n'); i >= 0 {
		excerpt = excerpt[:i] + " ..."
	}
	if len(excerpt) > ExecSummaryMaxLen {
		cut := ExecSummaryMaxLen
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + "..."
	}
	if excerpt == "" {
		return fmt.Sprintf("exit %d", r.ExitCode)
	}
	return fmt.Sprintf("exit %d: %s", r.ExitCode, excerpt)
}

// InputClass is the two-variant classifier result.
type InputClass int

const (
	ClassCommand InputClass = iota
	ClassNaturalLanguage
)

func (c InputClass) String() string {
	if c == ClassNaturalLanguage {
		return "natural_language"
	}
	return "command"
}

// ParseCD reports whether input is a bare cd invocation and returns its argument.
// A cd combined with shell operators is left to the shell.
func ParseCD(input string) (target string, ok bool) {
	s := strings.TrimSpace(input)
	if strings.ContainsAny(s, "|&;<>") {
		return "", false
	}
	fields := strings.Fields(s)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "cd") {
		return "", false
	}
	return strings.TrimSpace(s[len(fields[0]):]), true
}
