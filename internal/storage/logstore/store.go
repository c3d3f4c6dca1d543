package logstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

var ErrNoMatch = errors.New("no content match")

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	text TEXT NOT NULL,
	metadata TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);

CREATE TABLE IF NOT EXISTS content (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword TEXT NOT NULL UNIQUE,
	answer TEXT NOT NULL
);
`

// Entry is one keyword-addressed content row used by keyword fallback.
type Entry struct {
	Keyword string
	Answer  string
}

// Store persists the conversation log and a keyword-addressed content
// table in sqlite. Write failures must never block answer generation;
// callers log and continue.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates or migrates the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}

	return &Store{db: db, logger: logger.Named("logstore")}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert appends one turn to the log.
func (s *Store) Insert(ctx context.Context, turn conv.Turn) (int64, error) {
	meta := ""
	if turn.Metadata != nil {
		if encoded, err := json.Marshal(turn.Metadata); err == nil {
			meta = string(encoded)
		}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (turn_id, session_id, role, text, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, string(turn.Role), turn.Text, meta, turn.Timestamp.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert turn: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns the newest turns, oldest first, optionally scoped to one
// session.
func (s *Store) Recent(ctx context.Context, limit int, sessionID string) ([]conv.Turn, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT turn_id, session_id, role, text, metadata, created_at FROM turns`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	var turns []conv.Turn
	for rows.Next() {
		var turn conv.Turn
		var role, meta string
		var created time.Time
		if err := rows.Scan(&turn.ID, &turn.SessionID, &role, &turn.Text, &meta, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Role = conv.Role(role)
		turn.Timestamp = created
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &turn.Metadata)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into insertion order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// SeedContent upserts the keyword-addressed content rows.
func (s *Store) SeedContent(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO content (keyword, answer) VALUES (?, ?)
			 ON CONFLICT(keyword) DO UPDATE SET answer = excluded.answer`,
			strings.ToLower(e.Keyword), e.Answer); err != nil {
			return fmt.Errorf("seed content %q: %w", e.Keyword, err)
		}
	}
	return nil
}

// KeywordMatch finds the best content row for a query: exact keyword
// matches first, then widened substring matches ordered by keyword length
// descending so the most specific entry wins.
func (s *Store) KeywordMatch(ctx context.Context, query string) (Entry, error) {
	words := queryWords(query)
	if len(words) == 0 {
		return Entry{}, ErrNoMatch
	}

	// Exact pass: a query word equals a stored keyword.
	for _, w := range words {
		var e Entry
		err := s.db.QueryRowContext(ctx,
			`SELECT keyword, answer FROM content WHERE keyword = ?`, w).Scan(&e.Keyword, &e.Answer)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("exact keyword lookup: %w", err)
		}
	}

	// Widened pass: stored keyword appears anywhere in the query.
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword, answer FROM content ORDER BY LENGTH(keyword) DESC`)
	if err != nil {
		return Entry{}, fmt.Errorf("widened keyword lookup: %w", err)
	}
	defer rows.Close()

	lower := strings.ToLower(query)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Keyword, &e.Answer); err != nil {
			return Entry{}, err
		}
		if strings.Contains(lower, e.Keyword) {
			return e, nil
		}
	}
	if err := rows.Err(); err != nil {
		return Entry{}, err
	}
	return Entry{}, ErrNoMatch
}

func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	// Longest first so the exact pass also prefers specific words.
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	return words
}
