package history

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

const (
	// tailWindow bounds how much of a log is read to recover its last timestamp.
	tailWindow = 64 * 1024
	// maxRecordSize is the longest line LoadRecent decodes; longer lines are skipped.
	maxRecordSize = 4 * 1024 * 1024
)

// FileStore keeps one append-only JSONL log per directory. The file name is the
// SHA-256 of the canonical absolute path, so logs survive across sessions.
type FileStore struct {
	dir     string
	session string
	now     func() time.Time
	index   ports.HistoryIndex
	logger  ports.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithSession stamps every appended item with a session ID.
func WithSession(id string) Option {
	return func(f *FileStore) { f.session = id }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *FileStore) { f.now = now }
}

// WithIndex mirrors every append into a search index. Index failures are logged, not returned.
func WithIndex(index ports.HistoryIndex, logger ports.Logger) Option {
	return func(f *FileStore) {
		f.index = index
		f.logger = logger
	}
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, opts ...Option) *FileStore {
	f := &FileStore{
		dir:  dir,
		now:  time.Now,
		last: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dir returns the directory holding the logs.
func (f *FileStore) Dir() string {
	return f.dir
}

// Path returns the log file used for cwd.
func (f *FileStore) Path(cwd string) string {
	return filepath.Join(f.dir, Key(cwd)+".jsonl")
}

// Append implements ports.HistoryStore. Each item is written with a single
// O_APPEND write. Timestamps never go backwards for a directory, even if the
// wall clock does.
func (f *FileStore) Append(cwd string, kind domain.HistoryKind, text string) error {
	if !kind.Valid() {
		return fmt.Errorf("history: invalid kind %q", kind)
	}
	canonical := Canonical(cwd)
	key := Key(canonical)
	path := filepath.Join(f.dir, key+".jsonl")

	f.mu.Lock()
	defer f.mu.Unlock()

	last, seen := f.last[key]
	if !seen {
		last = lastTimestamp(path)
	}
	ts := f.now().UTC()
	if ts.Before(last) {
		ts = last
	}
	item := domain.HistoryItem{
		Timestamp: ts,
		Cwd:       canonical,
		Kind:      kind,
		Text:      text,
		Session:   f.session,
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("history: encode item: %w", err)
	}
	if err := os.MkdirAll(f.dir, domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("history: create dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.LogFilePermissions)
	if err != nil {
		return fmt.Errorf("history: open log: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	f.last[key] = ts

	if f.index != nil {
		if err := f.index.Record(item); err != nil && f.logger != nil {
			f.logger.Warn("history index update failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// LoadRecent implements ports.HistoryStore. Items are returned most recent
// last; malformed lines are skipped. A limit of zero or less returns everything.
func (f *FileStore) LoadRecent(cwd string, limit int) ([]domain.HistoryItem, error) {
	file, err := os.Open(f.Path(cwd))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open log: %w", err)
	}
	defer file.Close()

	var items []domain.HistoryItem
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := readRecord(reader)
		if len(line) > 0 {
			var item domain.HistoryItem
			if json.Unmarshal(line, &item) == nil && item.Kind.Valid() {
				items = append(items, item)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("history: read log: %w", err)
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return items, nil
}

// readRecord returns the next trimmed line. A line longer than maxRecordSize
// is consumed and returned empty.
func readRecord(reader *bufio.Reader) ([]byte, error) {
	var record []byte
	oversize := false
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			return nil, err
		}
		if !oversize {
			if len(record)+len(chunk) > maxRecordSize {
				oversize = true
				record = nil
			} else {
				record = append(record, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}
	if oversize {
		return nil, nil
	}
	return bytes.TrimSpace(record), nil
}

// Canonical returns the absolute, cleaned and (when possible) symlink-free form of dir.
func Canonical(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	abs = filepath.Clean(abs)
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// Key is the stable log name for dir.
func Key(dir string) string {
	sum := sha256.Sum256([]byte(Canonical(dir)))
	return hex.EncodeToString(sum[:])
}

func lastTimestamp(path string) time.Time {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return time.Time{}
	}
	offset := info.Size() - tailWindow
	if offset < 0 {
		offset = 0
	}
	buf, err := io.ReadAll(io.NewSectionReader(file, offset, info.Size()-offset))
	if err != nil {
		return time.Time{}
	}
	lines := bytes.Split(bytes.TrimSpace(buf), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		var item domain.HistoryItem
		if err := json.Unmarshal(lines[i], &item); err == nil && !item.Timestamp.IsZero() {
			return item.Timestamp
		}
	}
	return time.Time{}
}

var _ ports.HistoryStore = (*FileStore)(nil)
