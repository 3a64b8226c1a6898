package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionSummary is one row of the saved conversation listing.
type SessionSummary struct {
	Key          string
	UpdatedAt    time.Time
	MessageCount int
	Preview      string
}

// transcriptLine is the subset of a stored session that gets indexed.
type transcriptLine struct {
	Role string `json:"role"`
	Body string `json:"body"`
}

type storedSession struct {
	Messages []transcriptLine `json:"messages"`
}

func (s *SQLite) LoadSession(ctx context.Context, key string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM sessions WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", key, err)
	}
	return []byte(body), nil
}

// SaveSession stores the encoded session and reindexes its message bodies
// for search.
func (s *SQLite) SaveSession(ctx context.Context, key string, body []byte) error {
	var decoded storedSession
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("decode session %s for index: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions(key, body, updated_at, message_count, preview)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at,
			message_count=excluded.message_count,
			preview=excluded.preview
	`, key, string(body), time.Now().UnixMilli(), countConversational(decoded.Messages), pickPreview(decoded.Messages)); err != nil {
		return fmt.Errorf("upsert session %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions_fts WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("clear session index %s: %w", key, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sessions_fts(session_key, role, body) VALUES(?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare session index insert: %w", err)
	}
	defer stmt.Close()
	for _, m := range decoded.Messages {
		if strings.TrimSpace(m.Body) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, key, m.Role, m.Body); err != nil {
			return fmt.Errorf("index session %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) DeleteSession(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions_fts WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("clear session index %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return tx.Commit()
}

// ListSessions returns saved conversations, newest first. A non-empty query
// ranks sessions by how many of their messages match.
func (s *SQLite) ListSessions(ctx context.Context, query string, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 200
	}
	query = strings.TrimSpace(query)

	var rows *sql.Rows
	var err error
	if query == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT key, COALESCE(updated_at, 0), COALESCE(message_count, 0), COALESCE(preview, '')
			FROM sessions
			ORDER BY updated_at DESC, key
			LIMIT ?
		`, limit)
	} else {
		rows, err = s.searchRows(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var ms int64
		if err := rows.Scan(&sum.Key, &ms, &sum.MessageCount, &sum.Preview); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sum.UpdatedAt = fromMillis(ms)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return out, nil
}

func (s *SQLite) searchRows(ctx context.Context, query string, limit int) (*sql.Rows, error) {
	if s.ftsEnabled {
		rows, err := s.searchRowsFTS(ctx, query, limit)
		if err == nil {
			return rows, nil
		}
		fallback, fbErr := s.searchRowsLike(ctx, query, limit)
		if fbErr != nil {
			return nil, fmt.Errorf("search sessions (fts and fallback failed): fts=%w, fallback=%v", err, fbErr)
		}
		return fallback, nil
	}
	return s.searchRowsLike(ctx, query, limit)
}

func (s *SQLite) searchRowsFTS(ctx context.Context, query string, limit int) (*sql.Rows, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return nil, fmt.Errorf("empty fts query")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.key, COALESCE(s.updated_at, 0), COALESCE(s.message_count, 0), COALESCE(s.preview, '')
		FROM sessions s
		JOIN (
			SELECT session_key, COUNT(*) AS score
			FROM sessions_fts
			WHERE sessions_fts MATCH ?
			GROUP BY session_key
			ORDER BY score DESC
			LIMIT ?
		) ranked ON ranked.session_key = s.key
		ORDER BY ranked.score DESC, s.updated_at DESC
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query failed: %w", err)
	}
	return rows, nil
}

func (s *SQLite) searchRowsLike(ctx context.Context, query string, limit int) (*sql.Rows, error) {
	terms := tokenizeSearchTerms(query)
	if len(terms) == 0 {
		terms = []string{strings.ToLower(strings.TrimSpace(query))}
	}

	var b strings.Builder
	b.WriteString(`
		SELECT s.key, COALESCE(s.updated_at, 0), COALESCE(s.message_count, 0), COALESCE(s.preview, '')
		FROM sessions s
		JOIN (
			SELECT session_key, COUNT(*) AS score
			FROM sessions_fts
			WHERE `)
	args := make([]any, 0, len(terms)+1)
	for idx, term := range terms {
		if idx > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString("LOWER(body) LIKE ?")
		args = append(args, "%"+term+"%")
	}
	b.WriteString(`
			GROUP BY session_key
			ORDER BY score DESC
			LIMIT ?
		) ranked ON ranked.session_key = s.key
		ORDER BY ranked.score DESC, s.updated_at DESC
	`)
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("like query failed: %w", err)
	}
	return rows, nil
}

func buildFTSQuery(raw string) string {
	parts := tokenizeSearchTerms(raw)
	if len(parts) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, `"`, "")
		if p == "" {
			continue
		}
		quoted = append(quoted, fmt.Sprintf(`"%s"*`, p))
	}
	return strings.Join(quoted, " AND ")
}

func tokenizeSearchTerms(raw string) []string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "`\"'.,:;!?()[]{}<>|")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func countConversational(lines []transcriptLine) int {
	n := 0
	for _, m := range lines {
		if strings.TrimSpace(m.Body) != "" {
			n++
		}
	}
	return n
}

// pickPreview prefers the first thing the user typed over the greeting.
func pickPreview(lines []transcriptLine) string {
	for _, m := range lines {
		if m.Role == "user" && strings.TrimSpace(m.Body) != "" {
			return trimPreview(m.Body)
		}
	}
	for _, m := range lines {
		if strings.TrimSpace(m.Body) != "" {
			return trimPreview(m.Body)
		}
	}
	return ""
}

func trimPreview(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if len(s) <= 120 {
		return s
	}
	return s[:117] + "..."
}
