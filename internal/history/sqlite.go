package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gamedev-ai/internal/connector"
	"gamedev-ai/internal/fanout"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate history: %w", err)
		}
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// SchemaVersion returns the newest migration version applied to the database.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, err
	}
	return int(v.Int64), nil
}

// Save writes a report and its results in one transaction. Saving the same
// ID twice replaces the earlier copy.
func (s *SQLiteStore) Save(ctx context.Context, report *fanout.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sum := report.Summary()
	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE report_id = ?`, report.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (id, mode, prompt, started_at, finished_at, succeeded, attempted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ID, string(report.Mode), report.Prompt,
		report.StartedAt.UnixMilli(), report.FinishedAt.UnixMilli(),
		sum.Succeeded, sum.Attempted,
	); err != nil {
		return err
	}

	for i, res := range report.Results {
		kind := ""
		if !res.OK {
			kind = res.Kind.String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (report_id, position, provider, ok, text, kind, message, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.ID, i, string(res.Provider), res.OK, res.Text, kind, res.Message, res.Duration.Milliseconds(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns the newest reports first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, prompt, started_at, succeeded, attempted
		 FROM reports ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var mode string
		var started int64
		if err := rows.Scan(&e.ID, &mode, &e.Prompt, &started, &e.Summary.Succeeded, &e.Summary.Attempted); err != nil {
			return nil, err
		}
		e.Mode = fanout.Mode(mode)
		e.StartedAt = time.UnixMilli(started)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*fanout.Report, error) {
	var (
		mode              string
		started, finished int64
	)
	report := &fanout.Report{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT mode, prompt, started_at, finished_at FROM reports WHERE id = ?`, id,
	).Scan(&mode, &report.Prompt, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	report.Mode = fanout.Mode(mode)
	report.StartedAt = time.UnixMilli(started)
	report.FinishedAt = time.UnixMilli(finished)

	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, ok, text, kind, message, duration_ms
		 FROM results WHERE report_id = ? ORDER BY position ASC`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report.Results = []fanout.Result{}
	for rows.Next() {
		var (
			res      fanout.Result
			provider string
			kind     string
			ms       int64
		)
		if err := rows.Scan(&provider, &res.OK, &res.Text, &kind, &res.Message, &ms); err != nil {
			return nil, err
		}
		res.Provider = connector.ProviderName(provider)
		res.Duration = time.Duration(ms) * time.Millisecond
		if kind != "" {
			_ = res.Kind.UnmarshalText([]byte(kind))
		}
		report.Results = append(report.Results, res)
	}
	return report, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
