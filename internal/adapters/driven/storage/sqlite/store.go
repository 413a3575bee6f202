// Package sqlite persists extraction run history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RunStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS object_type_runs (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	object_type  TEXT NOT NULL,
	table_name   TEXT NOT NULL,
	disposition  TEXT NOT NULL,
	primary_key  TEXT NOT NULL,
	status       TEXT NOT NULL,
	emitted      INTEGER NOT NULL,
	skipped      INTEGER NOT NULL,
	pages        INTEGER NOT NULL,
	error        TEXT,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.sfmc-extract/data/runs.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".sfmc-extract", "data", "runs.db"), nil
}

// NewStore opens or creates the database at path.
// An empty path uses DefaultPath. ":memory:" opens an in-memory database.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps in-memory databases shared and serialises writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveReport stores a run and its outcomes, replacing any run with the same ID.
func (s *Store) SaveReport(ctx context.Context, report *domain.RunReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("%w: run report requires an id", domain.ErrInvalidConfig)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, report.RunID); err != nil {
		return fmt.Errorf("delete previous run: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at) VALUES (?, ?, ?)`,
		report.RunID, formatTime(report.StartedAt), formatTime(report.FinishedAt),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, o := range report.Outcomes {
		errText := sql.NullString{String: o.Error, Valid: o.Error != ""}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO object_type_runs (
				run_id, position, object_type, table_name, disposition, primary_key,
				status, emitted, skipped, pages, error, started_at, finished_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, i, o.Stream.ObjectType, o.Stream.Table, string(o.Stream.Disposition),
			o.Stream.PrimaryKey, string(o.Status), o.Emitted, o.Skipped, o.Pages, errText,
			formatTime(o.StartedAt), formatTime(o.FinishedAt),
		); err != nil {
			return fmt.Errorf("insert outcome for %s: %w", o.Stream.ObjectType, err)
		}
	}

	return tx.Commit()
}

// LatestReport returns the most recently started run, or domain.ErrNotFound.
func (s *Store) LatestReport(ctx context.Context) (*domain.RunReport, error) {
	var id, started, finished string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&id, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	report := &domain.RunReport{
		RunID:      id,
		StartedAt:  parseTime(started),
		FinishedAt: parseTime(finished),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT object_type, table_name, disposition, primary_key, status,
		       emitted, skipped, pages, error, started_at, finished_at
		FROM object_type_runs WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o                 domain.ObjectTypeOutcome
			disposition       string
			status            string
			errText           sql.NullString
			oStarted, oFinish string
		)
		if err := rows.Scan(
			&o.Stream.ObjectType, &o.Stream.Table, &disposition, &o.Stream.PrimaryKey, &status,
			&o.Emitted, &o.Skipped, &o.Pages, &errText, &oStarted, &oFinish,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Stream.Disposition = domain.WriteDisposition(disposition)
		o.Status = domain.OutcomeStatus(status)
		if errText.Valid {
			o.Error = errText.String
		}
		o.StartedAt = parseTime(oStarted)
		o.FinishedAt = parseTime(oFinish)
		report.Outcomes = append(report.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return report, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
