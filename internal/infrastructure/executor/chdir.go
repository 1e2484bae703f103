package executor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doeshing/matrixsh/internal/domain"
)

var (
	// ErrNoSuchDirectory is returned when the cd target does not exist.
	ErrNoSuchDirectory = errors.New("no such directory")
	// ErrNotDirectory is returned when the cd target exists but is a file.
	ErrNotDirectory = errors.New("not a directory")
)

// ChangeDirectory implements ports.CommandExecutor. It spawns no process and
// never changes the process working directory.
func (e *LocalExecutor) ChangeDirectory(target string, cwd string) (string, error) {
	target = strings.TrimSpace(target)
	if e.backend.Mode() == domain.ShellCmd && strings.HasPrefix(strings.ToLower(target), "/d ") {
		target = strings.TrimSpace(target[3:])
	}
	target = strings.Trim(target, `"'`)

	home, _ := os.UserHomeDir()
	switch {
	case target == "" || target == "~":
		if home == "" {
			return cwd, fmt.Errorf("cd: %w: home directory unknown", ErrNoSuchDirectory)
		}
		target = home
	case strings.HasPrefix(target, "~/") || strings.HasPrefix(target, `~\`):
		target = filepath.Join(home, target[2:])
	}

	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cwd, fmt.Errorf("cd: %w: %s", ErrNoSuchDirectory, target)
		}
		return cwd, fmt.Errorf("cd: %s: %w", target, err)
	}
	if !info.IsDir() {
		return cwd, fmt.Errorf("cd: %w: %s", ErrNotDirectory, target)
	}
	return path, nil
}
