package contextcollector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/matrixsh/internal/domain"
)

type stubHistory struct {
	items []domain.HistoryItem
	limit int
}

func (s *stubHistory) Append(string, domain.HistoryKind, string) error { return nil }

func (s *stubHistory) LoadRecent(_ string, limit int) ([]domain.HistoryItem, error) {
	s.limit = limit
	return s.items, nil
}

func TestBasicCollectorIncludesFiles(t *testing.T) {
	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, "file1.txt"), []byte("test"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(tmp, "src"), 0o755); err != nil {
		t.Fatal(err)
	}

	history := &stubHistory{items: []domain.HistoryItem{{Kind: domain.KindUser, Text: "ls"}}}
	collector := NewBasicCollector(history)
	snapshot, err := collector.Collect(context.Background(), domain.ShellBash, tmp, "what is here")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(snapshot.Entries) != 2 || snapshot.Entries[0] != "file1.txt" || snapshot.Entries[1] != "src/" {
		t.Fatalf("unexpected entries %+v", snapshot.Entries)
	}
	if snapshot.Cwd != tmp || snapshot.Input != "what is here" || snapshot.ShellMode != domain.ShellBash {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if len(snapshot.History) != 1 || history.limit != domain.MaxContextHistory {
		t.Fatalf("expected history capped at %d, got limit %d", domain.MaxContextHistory, history.limit)
	}
}

func TestBasicCollectorCapsEntries(t *testing.T) {
	tmp := t.TempDir()
	for i := 0; i < domain.MaxContextEntries+25; i++ {
		if err := os.WriteFile(filepath.Join(tmp, fmt.Sprintf("f%04d", i)), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	snapshot, err := NewBasicCollector(nil).Collect(context.Background(), domain.ShellBash, tmp, "x")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(snapshot.Entries) != domain.MaxContextEntries {
		t.Fatalf("expected %d entries, got %d", domain.MaxContextEntries, len(snapshot.Entries))
	}
}

func TestBasicCollectorUnreadableDir(t *testing.T) {
	snapshot, err := NewBasicCollector(nil).Collect(context.Background(), domain.ShellBash, filepath.Join(t.TempDir(), "gone"), "x")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(snapshot.Entries) != 0 {
		t.Fatalf("expected no entries, got %+v", snapshot.Entries)
	}
}
