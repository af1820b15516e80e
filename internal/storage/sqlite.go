package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.

	"github.com/hammamikhairi/buildpace/internal/domain"
)

var _ domain.HistoryStore = (*SQLiteHistory)(nil)

// SQLiteHistory keeps archived sessions in a SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenSQLiteHistory opens or creates the database at path and applies
// migrations.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w: %v", domain.ErrIO, err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w: %v", domain.ErrIO, err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	h := &SQLiteHistory{db: db}
	if err := h.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating history database: %w: %v", domain.ErrIO, err)
	}
	return h, nil
}

// Close closes the database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

func (h *SQLiteHistory) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			build_order_id TEXT NOT NULL,
			build_order_name TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_steps (
			session_seq INTEGER NOT NULL REFERENCES sessions(seq) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			step_id TEXT NOT NULL,
			description TEXT NOT NULL,
			expected_timing TEXT NOT NULL,
			actual_seconds INTEGER NOT NULL,
			delta_seconds INTEGER NOT NULL,
			PRIMARY KEY (session_seq, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_build_order ON sessions(build_order_id);`,
	}
	for _, stmt := range stmts {
		if _, err := h.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append stores rec as the newest session and drops everything beyond
// limit. limit <= 0 keeps everything.
func (h *SQLiteHistory) Append(ctx context.Context, rec domain.SessionRecord, limit int) (err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w: %v", domain.ErrIO, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, build_order_id, build_order_name, started_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.BuildOrderID, rec.BuildOrderName, rec.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w: %v", rec.ID, domain.ErrIO, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert session %s: %w: %v", rec.ID, domain.ErrIO, err)
	}

	if len(rec.Steps) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_steps (session_seq, position, step_id, description, expected_timing, actual_seconds, delta_seconds)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare steps: %w: %v", domain.ErrIO, err)
		}
		defer stmt.Close()
		for i, st := range rec.Steps {
			if _, err := stmt.ExecContext(ctx, seq, i, st.StepID, st.Description, st.ExpectedTiming, st.ActualSeconds, st.DeltaSeconds); err != nil {
				return fmt.Errorf("insert step %s: %w: %v", st.StepID, domain.ErrIO, err)
			}
		}
	}

	if limit > 0 {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM sessions WHERE seq NOT IN (SELECT seq FROM sessions ORDER BY seq DESC LIMIT ?)`, limit,
		); err != nil {
			return fmt.Errorf("trim history: %w: %v", domain.ErrIO, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w: %v", domain.ErrIO, err)
	}
	return nil
}

// List returns up to limit sessions, newest first. limit <= 0 means all.
func (h *SQLiteHistory) List(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT seq, id, build_order_id, build_order_name, started_at FROM sessions ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w: %v", domain.ErrIO, err)
	}

	var (
		out  []domain.SessionRecord
		seqs []int64
	)
	for rows.Next() {
		var (
			rec     domain.SessionRecord
			seq     int64
			started string
		)
		if err := rows.Scan(&seq, &rec.ID, &rec.BuildOrderID, &rec.BuildOrderName, &started); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session: %w: %v", domain.ErrIO, err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, rec)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sessions: %w: %v", domain.ErrIO, err)
	}
	rows.Close()

	for i, seq := range seqs {
		steps, err := h.steps(ctx, seq)
		if err != nil {
			return nil, err
		}
		out[i].Steps = steps
	}
	return out, nil
}

func (h *SQLiteHistory) steps(ctx context.Context, seq int64) ([]domain.StepRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT step_id, description, expected_timing, actual_seconds, delta_seconds
		 FROM session_steps WHERE session_seq = ? ORDER BY position`, seq)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w: %v", domain.ErrIO, err)
	}
	defer rows.Close()

	var out []domain.StepRecord
	for rows.Next() {
		var st domain.StepRecord
		if err := rows.Scan(&st.StepID, &st.Description, &st.ExpectedTiming, &st.ActualSeconds, &st.DeltaSeconds); err != nil {
			return nil, fmt.Errorf("scan step: %w: %v", domain.ErrIO, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w: %v", domain.ErrIO, err)
	}
	return out, nil
}

// Clear deletes every session.
func (h *SQLiteHistory) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear history: %w: %v", domain.ErrIO, err)
	}
	return nil
}
