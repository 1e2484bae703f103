package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

// SQLiteIndex mirrors history items from every directory into one database so
// they can be searched. The JSONL logs stay the source of truth.
type SQLiteIndex struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteIndex creates (or opens) the index database at path.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("history index: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history index: open: %w", err)
	}
	index := &SQLiteIndex{db: db, path: path}
	if err := index.init(); err != nil {
		db.Close()
		return nil, err
	}
	return index, nil
}

func (s *SQLiteIndex) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		cwd TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		session TEXT
	);`)
	if err == nil {
		_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS items_ts ON items(ts)`)
	}
	if err != nil {
		return fmt.Errorf("history index: init schema: %w", err)
	}
	return nil
}

// Record implements ports.HistoryIndex.
func (s *SQLiteIndex) Record(item domain.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO items (ts, cwd, kind, text, session) VALUES (?, ?, ?, ?, ?)`,
		item.Timestamp.UnixNano(),
		item.Cwd,
		string(item.Kind),
		item.Text,
		item.Session,
	)
	return err
}

// Search implements ports.HistoryIndex. Matching is a case-insensitive
// substring test on text and cwd; newest first.
func (s *SQLiteIndex) Search(query string, limit int) ([]domain.HistoryItem, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT ts, cwd, kind, text, session FROM items")
	var args []interface{}
	if query = strings.TrimSpace(query); query != "" {
		builder.WriteString(" WHERE text LIKE ? ESCAPE '\\' OR cwd LIKE ? ESCAPE '\\'")
		pattern := "%" + escapeLike(query) + "%"
		args = append(args, pattern, pattern)
	}
	builder.WriteString(" ORDER BY ts DESC, id DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("history index: search: %w", err)
	}
	defer rows.Close()

	var items []domain.HistoryItem
	for rows.Next() {
		var item domain.HistoryItem
		var ts int64
		var kind string
		var session sql.NullString
		if err := rows.Scan(&ts, &item.Cwd, &kind, &item.Text, &session); err != nil {
			return nil, err
		}
		item.Timestamp = time.Unix(0, ts).UTC()
		item.Kind = domain.HistoryKind(kind)
		item.Session = session.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// Path returns the sqlite database path.
func (s *SQLiteIndex) Path() string {
	return s.path
}

// Close implements ports.HistoryIndex.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

var _ ports.HistoryIndex = (*SQLiteIndex)(nil)
