package executor

import (
	"os/exec"
	"runtime"

	"github.com/doeshing/matrixsh/internal/domain"
)

// Backend is one process-invocation recipe. All backends share the ExecResult shape.
type Backend interface {
	Mode() domain.ShellMode
	// Command returns the argv used to run command.
	Command(command string) []string
	// NotFound reports whether a failed result is the backend's "unknown command" error.
	NotFound(result domain.ExecResult) bool
}

// BackendFor resolves mode for the host platform and returns its recipe.
func BackendFor(mode domain.ShellMode) Backend {
	switch mode.Resolve(runtime.GOOS) {
	case domain.ShellPowerShell:
		return powerShell{binary: powerShellBinary()}
	case domain.ShellCmd:
		return cmdShell{windows: runtime.GOOS == "windows"}
	default:
		return bash{}
	}
}

type bash struct{}

func (bash) Mode() domain.ShellMode { return domain.ShellBash }

func (bash) Command(command string) []string {
	return []string{"bash", "-lc", command}
}

func (bash) NotFound(result domain.ExecResult) bool {
	return result.ExitCode == 127 || containsAny(result.Stderr, bashNotFound)
}

type powerShell struct {
	binary string
}

func (powerShell) Mode() domain.ShellMode { return domain.ShellPowerShell }

func (p powerShell) Command(command string) []string {
	return []string{p.binary, "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", command}
}

func (powerShell) NotFound(result domain.ExecResult) bool {
	return containsAny(result.Stderr, powerShellNotFound)
}

// powerShellBinary prefers Windows PowerShell and falls back to pwsh (PowerShell Core).
func powerShellBinary() string {
	if _, err := exec.LookPath("powershell"); err == nil {
		return "powershell"
	}
	if _, err := exec.LookPath("pwsh"); err == nil {
		return "pwsh"
	}
	return "powershell"
}

// cmdShell is the platform's native shell: cmd.exe on Windows, /bin/sh elsewhere.
type cmdShell struct {
	windows bool
}

func (cmdShell) Mode() domain.ShellMode { return domain.ShellCmd }

func (c cmdShell) Command(command string) []string {
	if c.windows {
		return []string{"cmd.exe", "/C", command}
	}
	return []string{"/bin/sh", "-c", command}
}

func (c cmdShell) NotFound(result domain.ExecResult) bool {
	if !c.windows {
		return result.ExitCode == 127 || containsAny(result.Stderr, bashNotFound)
	}
	return containsAny(result.Stderr, cmdNotFound)
}
