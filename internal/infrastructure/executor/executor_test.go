package executor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/matrixsh/internal/domain"
)

type stubBackend struct {
	argv []string
}

func (stubBackend) Mode() domain.ShellMode { return domain.ShellBash }

func (s stubBackend) Command(command string) []string {
	return append(append([]string{}, s.argv...), command)
}

func (stubBackend) NotFound(result domain.ExecResult) bool {
	return result.ExitCode == 127
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecuteCapturesOutput(t *testing.T) {
	requireShell(t)
	exe := NewWithBackend(stubBackend{argv: []string{"sh", "-c"}})
	dir := t.TempDir()

	result := exe.Execute(context.Background(), "pwd; echo oops >&2; exit 3", dir)

	assert.Equal(t, 3, result.ExitCode)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, filepath.Base(resolved))
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestExecuteEmptyOutputIsValid(t *testing.T) {
	requireShell(t)
	exe := NewWithBackend(stubBackend{argv: []string{"sh", "-c"}})

	result := exe.Execute(context.Background(), "true", t.TempDir())

	assert.True(t, result.Success())
	assert.Empty(t, result.Stdout)
	assert.Empty(t, result.Stderr)
}

func TestExecuteSpawnFailureIsAResult(t *testing.T) {
	exe := NewWithBackend(stubBackend{argv: []string{"matrixsh-no-such-shell-binary"}})

	result := exe.Execute(context.Background(), "ls", t.TempDir())

	assert.Equal(t, domain.ExitSpawnFailure, result.ExitCode)
	assert.Contains(t, result.Stderr, "cannot start")
	assert.False(t, exe.IsCommandNotFound(result))
}

func TestIsCommandNotFound(t *testing.T) {
	cases := []struct {
		name    string
		backend Backend
		result  domain.ExecResult
		want    bool
	}{
		{"bash exit 127", bash{}, domain.ExecResult{ExitCode: 127}, true},
		{"bash message", bash{}, domain.ExecResult{ExitCode: 1, Stderr: "bash: gitstat: command not found\n"}, true},
		{"bash italian", bash{}, domain.ExecResult{ExitCode: 1, Stderr: "gitstat: comando non trovato"}, true},
		{"bash other failure", bash{}, domain.ExecResult{ExitCode: 2, Stderr: "ls: cannot access 'x'"}, false},
		{"bash success", bash{}, domain.ExecResult{ExitCode: 0, Stdout: "command not found"}, false},
		{"cmd english", cmdShell{windows: true}, domain.ExecResult{ExitCode: 1, Stderr: "'gitstat' is not recognized as an internal or external command,"}, true},
		{"cmd italian", cmdShell{windows: true}, domain.ExecResult{ExitCode: 1, Stderr: "'gitstat' non è riconosciuto come comando interno o esterno"}, true},
		{"cmd other", cmdShell{windows: true}, domain.ExecResult{ExitCode: 1, Stderr: "Access is denied."}, false},
		{"sh fallback", cmdShell{}, domain.ExecResult{ExitCode: 127, Stderr: "sh: 1: gitstat: not found"}, true},
		{"powershell english", powerShell{binary: "pwsh"}, domain.ExecResult{ExitCode: 1, Stderr: "The term 'gitstat' is not recognized as the name of a cmdlet, function"}, true},
		{"powershell italian", powerShell{binary: "pwsh"}, domain.ExecResult{ExitCode: 1, Stderr: "Il termine 'gitstat' non è riconosciuto come nome di cmdlet"}, true},
		{"powershell other", powerShell{binary: "pwsh"}, domain.ExecResult{ExitCode: 1, Stderr: "Access denied"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exe := NewWithBackend(tc.backend)
			assert.Equal(t, tc.want, exe.IsCommandNotFound(tc.result))
		})
	}
}

func TestBackendRecipes(t *testing.T) {
	assert.Equal(t, []string{"bash", "-lc", "ls"}, bash{}.Command("ls"))
	assert.Equal(t,
		[]string{"pwsh", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", "Get-ChildItem"},
		powerShell{binary: "pwsh"}.Command("Get-ChildItem"))
	assert.Equal(t, []string{"cmd.exe", "/C", "dir"}, cmdShell{windows: true}.Command("dir"))
	assert.Equal(t, []string{"/bin/sh", "-c", "ls"}, cmdShell{}.Command("ls"))
}

func TestBinary(t *testing.T) {
	assert.Equal(t, "bash", NewWithBackend(bash{}).Binary())
	assert.Equal(t, "cmd.exe", NewWithBackend(cmdShell{windows: true}).Binary())
}

func TestChangeDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "with space"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o644))

	exe := NewWithBackend(bash{})

	got, err := exe.ChangeDirectory("sub", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub"), got)

	got, err = exe.ChangeDirectory(`"with space"`, root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "with space"), got)

	got, err = exe.ChangeDirectory("..", filepath.Join(root, "sub"))
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = exe.ChangeDirectory(root, "/")
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = exe.ChangeDirectory("missing", root)
	require.ErrorIs(t, err, ErrNoSuchDirectory)
	assert.Equal(t, root, got)

	got, err = exe.ChangeDirectory("file.txt", root)
	require.ErrorIs(t, err, ErrNotDirectory)
	assert.Equal(t, root, got)
}

func TestChangeDirectoryHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	require.NoError(t, os.Mkdir(filepath.Join(home, "projects"), 0o755))

	exe := NewWithBackend(bash{})

	got, err := exe.ChangeDirectory("", "/")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = exe.ChangeDirectory("~/projects", "/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "projects"), got)
}

func TestChangeDirectoryCmdSwitch(t *testing.T) {
	root := t.TempDir()
	exe := NewWithBackend(cmdShell{windows: true})

	got, err := exe.ChangeDirectory("/d "+root, "/")
	require.NoError(t, err)
	assert.Equal(t, root, got)
}
