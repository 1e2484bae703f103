package contextcollector

import (
	"context"
	"os"
	"runtime"
	"sort"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

// BasicCollector implements ContextCollector with a directory listing and the
// directory's recent history.
type BasicCollector struct {
	history    ports.HistoryStore
	goos       string
	maxEntries int
	maxHistory int
}

// NewBasicCollector builds a collector reading recent items from history.
func NewBasicCollector(history ports.HistoryStore) *BasicCollector {
	return &BasicCollector{
		history:    history,
		goos:       runtime.GOOS,
		maxEntries: domain.MaxContextEntries,
		maxHistory: domain.MaxContextHistory,
	}
}

// Collect gathers context data for cwd. A directory that cannot be listed or a
// history that cannot be read yields an empty section, not an error.
func (c *BasicCollector) Collect(ctx context.Context, mode domain.ShellMode, cwd string, input string) (domain.SuggestionContext, error) {
	if err := ctx.Err(); err != nil {
		return domain.SuggestionContext{}, err
	}

	var recent []domain.HistoryItem
	if c.history != nil {
		items, err := c.history.LoadRecent(cwd, c.maxHistory)
		if err == nil {
			recent = items
		}
	}

	return domain.SuggestionContext{
		OS:        c.goos,
		ShellMode: mode,
		Cwd:       cwd,
		Entries:   listEntries(cwd, c.maxEntries),
		History:   recent,
		Input:     input,
	}, nil
}

// listEntries returns up to limit names in cwd, sorted. Directories get a trailing slash.
func listEntries(dir string, limit int) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}

var _ ports.ContextCollector = (*BasicCollector)(nil)
