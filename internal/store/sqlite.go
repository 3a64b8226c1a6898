package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"capture-chat/internal/records"
)

// SQLite backs the record ports, the timer and saved conversations with a
// single database file.
type SQLite struct {
	path       string
	db         *sql.DB
	ftsEnabled bool
	mu         sync.Mutex
}

// Open creates the schema if needed. fresh removes any existing file first.
func Open(path string, fresh bool) (*SQLite, error) {
	if fresh {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(path + suffix)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &SQLite{path: path, db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			updated_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS people (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			company_id TEXT,
			updated_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS service_types (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS team_members (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			company_id TEXT,
			updated_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS deliverables (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			name TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_deliverables_job_id ON deliverables(job_id);`,
		`CREATE TABLE IF NOT EXISTS quick_tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			anchor TEXT,
			company_id TEXT,
			person_id TEXT,
			service_type_id TEXT,
			loe_hours REAL,
			due_date TEXT,
			assignee_id TEXT,
			updated_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS job_tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			job_id TEXT,
			deliverable_id TEXT,
			service_type_id TEXT,
			loe_hours REAL,
			due_date TEXT,
			assignee_id TEXT,
			updated_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS list_items (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			notes TEXT,
			created_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS time_entries (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			task_kind TEXT NOT NULL,
			hours REAL NOT NULL,
			date TEXT NOT NULL,
			note TEXT,
			created_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_time_entries_task ON time_entries(task_kind, task_id);`,
		`CREATE TABLE IF NOT EXISTS timer (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			active INTEGER NOT NULL,
			task_id TEXT,
			started_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			key TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at INTEGER,
			message_count INTEGER,
			preview TEXT
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return s.ensureFTSTable()
}

func (s *SQLite) ensureFTSTable() error {
	var sqlDef string
	err := s.db.QueryRow(`SELECT sql FROM sqlite_master WHERE name = 'sessions_fts'`).Scan(&sqlDef)
	if err == nil {
		lower := strings.ToLower(sqlDef)
		s.ftsEnabled = strings.Contains(lower, "virtual table") && strings.Contains(lower, "fts5")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("inspect sessions_fts table: %w", err)
	}

	_, err = s.db.Exec(`CREATE VIRTUAL TABLE sessions_fts USING fts5(
		session_key UNINDEXED,
		role UNINDEXED,
		body
	);`)
	if err == nil {
		s.ftsEnabled = true
		return nil
	}

	if !strings.Contains(strings.ToLower(err.Error()), "no such module: fts5") {
		return fmt.Errorf("create sessions_fts: %w", err)
	}

	// Fallback for sqlite builds without FTS5 support.
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions_fts (
		rowid INTEGER PRIMARY KEY,
		session_key TEXT,
		role TEXT,
		body TEXT
	);`); err != nil {
		return fmt.Errorf("create sessions_fts fallback table: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_fts_key ON sessions_fts(session_key);`); err != nil {
		return fmt.Errorf("create fallback sessions_fts index: %w", err)
	}
	s.ftsEnabled = false
	return nil
}

// Seed upserts every fixture row in one transaction.
func (s *SQLite) Seed(ctx context.Context, f Fixtures) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback()

	for _, c := range f.Companies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO companies(id, name, updated_at) VALUES(?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name=excluded.name, updated_at=excluded.updated_at
		`, c.ID, c.Name, toMillis(c.UpdatedAt)); err != nil {
			return fmt.Errorf("seed company %s: %w", c.ID, err)
		}
	}
	for _, p := range f.People {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO people(id, name, company_id, updated_at) VALUES(?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name=excluded.name, company_id=excluded.company_id, updated_at=excluded.updated_at
		`, p.ID, p.Name, p.CompanyID, toMillis(p.UpdatedAt)); err != nil {
			return fmt.Errorf("seed person %s: %w", p.ID, err)
		}
	}
	for _, st := range f.ServiceTypes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO service_types(id, name) VALUES(?, ?)
			ON CONFLICT(id) DO UPDATE SET name=excluded.name
		`, st.ID, st.Name); err != nil {
			return fmt.Errorf("seed service type %s: %w", st.ID, err)
		}
	}
	for _, m := range f.TeamMembers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO team_members(id, name, email) VALUES(?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name=excluded.name, email=excluded.email
		`, m.ID, m.Name, m.Email); err != nil {
			return fmt.Errorf("seed team member %s: %w", m.ID, err)
		}
	}
	for _, j := range f.Jobs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO jobs(id, name, company_id, updated_at) VALUES(?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name=excluded.name, company_id=excluded.company_id, updated_at=excluded.updated_at
		`, j.ID, j.Name, j.CompanyID, toMillis(j.UpdatedAt)); err != nil {
			return fmt.Errorf("seed job %s: %w", j.ID, err)
		}
		for _, d := range j.Deliverables {
			jobID := d.JobID
			if jobID == "" {
				jobID = j.ID
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO deliverables(id, job_id, name) VALUES(?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET job_id=excluded.job_id, name=excluded.name
			`, d.ID, jobID, d.Name); err != nil {
				return fmt.Errorf("seed deliverable %s: %w", d.ID, err)
			}
		}
	}
	for _, q := range f.QuickTasks {
		if err := upsertQuickTask(ctx, tx, q); err != nil {
			return err
		}
	}
	for _, jt := range f.JobTasks {
		if err := upsertJobTask(ctx, tx, jt); err != nil {
			return err
		}
	}
	for _, it := range f.ListItems {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO list_items(id, title, notes, created_at) VALUES(?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title=excluded.title, notes=excluded.notes, created_at=excluded.created_at
		`, it.ID, it.Title, it.Notes, toMillis(it.CreatedAt)); err != nil {
			return fmt.Errorf("seed list item %s: %w", it.ID, err)
		}
	}
	if f.CurrentUser != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings(key, value) VALUES('current_user', ?)
			ON CONFLICT(key) DO UPDATE SET value=excluded.value
		`, f.CurrentUser); err != nil {
			return fmt.Errorf("seed current user: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertQuickTask(ctx context.Context, db execer, q records.QuickTask) error {
	if _, err := db.ExecContext(ctx, `
		INSERT INTO quick_tasks(id, title, description, anchor, company_id, person_id, service_type_id, loe_hours, due_date, assignee_id, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			description=excluded.description,
			anchor=excluded.anchor,
			company_id=excluded.company_id,
			person_id=excluded.person_id,
			service_type_id=excluded.service_type_id,
			loe_hours=excluded.loe_hours,
			due_date=excluded.due_date,
			assignee_id=excluded.assignee_id,
			updated_at=excluded.updated_at
	`, q.ID, q.Title, q.Description, string(q.Anchor), q.CompanyID, q.PersonID, q.ServiceTypeID, q.LOEHours, q.DueDate, q.AssigneeID, toMillis(q.UpdatedAt)); err != nil {
		return fmt.Errorf("upsert quick task %s: %w", q.ID, err)
	}
	return nil
}

func upsertJobTask(ctx context.Context, db execer, j records.JobTask) error {
	if _, err := db.ExecContext(ctx, `
		INSERT INTO job_tasks(id, title, description, job_id, deliverable_id, service_type_id, loe_hours, due_date, assignee_id, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			description=excluded.description,
			job_id=excluded.job_id,
			deliverable_id=excluded.deliverable_id,
			service_type_id=excluded.service_type_id,
			loe_hours=excluded.loe_hours,
			due_date=excluded.due_date,
			assignee_id=excluded.assignee_id,
			updated_at=excluded.updated_at
	`, j.ID, j.Title, j.Description, j.JobID, j.DeliverableID, j.ServiceTypeID, j.LOEHours, j.DueDate, j.AssigneeID, toMillis(j.UpdatedAt)); err != nil {
		return fmt.Errorf("upsert job task %s: %w", j.ID, err)
	}
	return nil
}

// queryAll runs query and scans every row with scan.
func queryAll[T any](ctx context.Context, db *sql.DB, what, query string, scan func(*sql.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", what, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

func (s *SQLite) Companies(ctx context.Context) ([]records.Company, error) {
	return queryAll(ctx, s.db, "companies", `
		SELECT id, name, COALESCE(updated_at, 0) FROM companies ORDER BY id
	`, func(rows *sql.Rows) (records.Company, error) {
		var c records.Company
		var ms int64
		err := rows.Scan(&c.ID, &c.Name, &ms)
		c.UpdatedAt = fromMillis(ms)
		return c, err
	})
}

func (s *SQLite) People(ctx context.Context) ([]records.Person, error) {
	return queryAll(ctx, s.db, "people", `
		SELECT id, name, COALESCE(company_id, ''), COALESCE(updated_at, 0) FROM people ORDER BY id
	`, func(rows *sql.Rows) (records.Person, error) {
		var p records.Person
		var ms int64
		err := rows.Scan(&p.ID, &p.Name, &p.CompanyID, &ms)
		p.UpdatedAt = fromMillis(ms)
		return p, err
	})
}

func (s *SQLite) ServiceTypes(ctx context.Context) ([]records.ServiceType, error) {
	return queryAll(ctx, s.db, "service types", `
		SELECT id, name FROM service_types ORDER BY id
	`, func(rows *sql.Rows) (records.ServiceType, error) {
		var st records.ServiceType
		err := rows.Scan(&st.ID, &st.Name)
		return st, err
	})
}

func (s *SQLite) TeamMembers(ctx context.Context) ([]records.TeamMember, error) {
	return queryAll(ctx, s.db, "team members", `
		SELECT id, name, COALESCE(email, '') FROM team_members ORDER BY id
	`, func(rows *sql.Rows) (records.TeamMember, error) {
		var m records.TeamMember
		err := rows.Scan(&m.ID, &m.Name, &m.Email)
		return m, err
	})
}

func (s *SQLite) Jobs(ctx context.Context) ([]records.Job, error) {
	return queryAll(ctx, s.db, "jobs", `
		SELECT id, name, COALESCE(company_id, ''), COALESCE(updated_at, 0) FROM jobs ORDER BY id
	`, func(rows *sql.Rows) (records.Job, error) {
		var j records.Job
		var ms int64
		err := rows.Scan(&j.ID, &j.Name, &j.CompanyID, &ms)
		j.UpdatedAt = fromMillis(ms)
		return j, err
	})
}

func (s *SQLite) Deliverables(ctx context.Context, jobID string) ([]records.Deliverable, error) {
	return queryAll(ctx, s.db, "deliverables", `
		SELECT id, job_id, name FROM deliverables WHERE job_id = ? ORDER BY id
	`, func(rows *sql.Rows) (records.Deliverable, error) {
		var d records.Deliverable
		err := rows.Scan(&d.ID, &d.JobID, &d.Name)
		return d, err
	}, jobID)
}

func (s *SQLite) QuickTasks(ctx context.Context) ([]records.QuickTask, error) {
	return queryAll(ctx, s.db, "quick tasks", `
		SELECT id, title, COALESCE(description, ''), COALESCE(anchor, 'internal'), COALESCE(company_id, ''),
			COALESCE(person_id, ''), COALESCE(service_type_id, ''), COALESCE(loe_hours, 0), COALESCE(due_date, ''),
			COALESCE(assignee_id, ''), COALESCE(updated_at, 0)
		FROM quick_tasks ORDER BY id
	`, func(rows *sql.Rows) (records.QuickTask, error) {
		var q records.QuickTask
		var anchor string
		var ms int64
		err := rows.Scan(&q.ID, &q.Title, &q.Description, &anchor, &q.CompanyID, &q.PersonID,
			&q.ServiceTypeID, &q.LOEHours, &q.DueDate, &q.AssigneeID, &ms)
		q.Anchor = records.AnchorType(anchor)
		q.UpdatedAt = fromMillis(ms)
		return q, err
	})
}

func (s *SQLite) JobTasks(ctx context.Context) ([]records.JobTask, error) {
	return queryAll(ctx, s.db, "job tasks", `
		SELECT id, title, COALESCE(description, ''), COALESCE(job_id, ''), COALESCE(deliverable_id, ''),
			COALESCE(service_type_id, ''), COALESCE(loe_hours, 0), COALESCE(due_date, ''),
			COALESCE(assignee_id, ''), COALESCE(updated_at, 0)
		FROM job_tasks ORDER BY id
	`, func(rows *sql.Rows) (records.JobTask, error) {
		var j records.JobTask
		var ms int64
		err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.JobID, &j.DeliverableID,
			&j.ServiceTypeID, &j.LOEHours, &j.DueDate, &j.AssigneeID, &ms)
		j.UpdatedAt = fromMillis(ms)
		return j, err
	})
}

func (s *SQLite) ListItems(ctx context.Context) ([]records.ListItem, error) {
	return queryAll(ctx, s.db, "list items", `
		SELECT id, title, COALESCE(notes, ''), COALESCE(created_at, 0) FROM list_items ORDER BY created_at, id
	`, func(rows *sql.Rows) (records.ListItem, error) {
		var it records.ListItem
		var ms int64
		err := rows.Scan(&it.ID, &it.Title, &it.Notes, &ms)
		it.CreatedAt = fromMillis(ms)
		return it, err
	})
}

func (s *SQLite) TimeEntries(ctx context.Context) ([]records.TimeEntry, error) {
	return queryAll(ctx, s.db, "time entries", `
		SELECT id, task_id, task_kind, hours, date, COALESCE(note, ''), COALESCE(created_at, 0)
		FROM time_entries ORDER BY created_at, id
	`, func(rows *sql.Rows) (records.TimeEntry, error) {
		var e records.TimeEntry
		var kind string
		var ms int64
		err := rows.Scan(&e.ID, &e.TaskID, &kind, &e.Hours, &e.Date, &e.Note, &ms)
		e.TaskKind = records.TaskKind(kind)
		e.CreatedAt = fromMillis(ms)
		return e, err
	})
}

func (s *SQLite) CurrentUser(ctx context.Context) (records.TeamMember, error) {
	var m records.TeamMember
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.name, COALESCE(t.email, '')
		FROM settings s JOIN team_members t ON t.id = s.value
		WHERE s.key = 'current_user'
	`).Scan(&m.ID, &m.Name, &m.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return records.TeamMember{}, fmt.Errorf("current user: %w", records.ErrNotFound)
	}
	if err != nil {
		return records.TeamMember{}, fmt.Errorf("current user: %w", err)
	}
	return m, nil
}

func (s *SQLite) CreateListItem(ctx context.Context, item records.ListItem) (records.ListItem, error) {
	item = withListItemDefaults(item)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO list_items(id, title, notes, created_at) VALUES(?, ?, ?, ?)
	`, item.ID, item.Title, item.Notes, toMillis(item.CreatedAt)); err != nil {
		return records.ListItem{}, fmt.Errorf("create list item: %w", err)
	}
	return item, nil
}

func (s *SQLite) DeleteListItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM list_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete list item %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete list item %s: %w", id, records.ErrNotFound)
	}
	return nil
}

func (s *SQLite) CreateQuickTask(ctx context.Context, task records.QuickTask) (records.QuickTask, error) {
	task = withQuickTaskDefaults(task)
	if err := upsertQuickTask(ctx, s.db, task); err != nil {
		return records.QuickTask{}, fmt.Errorf("create quick task: %w", err)
	}
	return task, nil
}

func (s *SQLite) CreateJobTask(ctx context.Context, task records.JobTask) (records.JobTask, error) {
	task = withJobTaskDefaults(task)
	if err := upsertJobTask(ctx, s.db, task); err != nil {
		return records.JobTask{}, fmt.Errorf("create job task: %w", err)
	}
	return task, nil
}

func (s *SQLite) AppendTimeEntry(ctx context.Context, entry records.TimeEntry) (records.TimeEntry, error) {
	entry = withTimeEntryDefaults(entry)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries(id, task_id, task_kind, hours, date, note, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.TaskID, string(entry.TaskKind), entry.Hours, entry.Date, entry.Note, toMillis(entry.CreatedAt)); err != nil {
		return records.TimeEntry{}, fmt.Errorf("append time entry: %w", err)
	}
	return entry, nil
}

func (s *SQLite) Timer(ctx context.Context) (records.TimerState, error) {
	var active bool
	var taskID string
	var ms int64
	err := s.db.QueryRowContext(ctx, `
		SELECT active, COALESCE(task_id, ''), COALESCE(started_at, 0) FROM timer WHERE id = 1
	`).Scan(&active, &taskID, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return records.StoppedTimer(), nil
	}
	if err != nil {
		return records.TimerState{}, fmt.Errorf("read timer: %w", err)
	}
	if !active {
		return records.StoppedTimer(), nil
	}
	return records.RunningTimer(taskID, fromMillis(ms)), nil
}

func (s *SQLite) SetTimer(ctx context.Context, state records.TimerState) error {
	if !state.Active {
		state = records.StoppedTimer()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO timer(id, active, task_id, started_at) VALUES(1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			active=excluded.active,
			task_id=excluded.task_id,
			started_at=excluded.started_at
	`, state.Active, state.TaskID, toMillis(state.StartedAt)); err != nil {
		return fmt.Errorf("write timer: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var (
	_ records.Directory = (*SQLite)(nil)
	_ records.Commands  = (*SQLite)(nil)
	_ records.Directory = (*Memory)(nil)
	_ records.Commands  = (*Memory)(nil)
)
