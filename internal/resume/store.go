package resume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, registers as "sqlite"
)

// walJournalSizeLimit bounds the WAL file size, matching the teacher's
// SQLiteStore pragma choice (state.go).
const walJournalSizeLimit = 67_108_864 // 64 MiB

// Store is the durable (task_id, path) key-value table behind the Resume
// Store component. A single-writer discipline (one active sync per task) is
// enforced by the Engine, not by Store itself.
type Store interface {
	Upsert(record Record) error
	Get(taskID, path string) (Record, bool, error)
	Delete(taskID, path string) error
	ListByTask(taskID string) ([]Record, error)
	Close() error
}

// SQLiteStore implements Store over an embedded SQLite database in WAL
// mode, ported from the teacher's SQLiteStore (internal/sync/state.go).
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	stmts statements
}

type statements struct {
	upsert, get, deleteByKey, listByTask *sql.Stmt
}

// NewSQLiteStore opens the database at dbPath (use ":memory:" for tests),
// applies pending migrations, and prepares repeated statements.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("resume: opening database", slog.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("resume: open sqlite: %w", err)
	}

	if err := setPragmas(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.prepareStatements(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("resume: prepare statements: %w", err)
	}

	return s, nil
}

func setPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA journal_size_limit = %d", walJournalSizeLimit),
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("resume: set pragma %q: %w", p, err)
		}
	}

	return nil
}

func (s *SQLiteStore) prepareStatements(ctx context.Context) error {
	var err error

	s.stmts.upsert, err = s.db.PrepareContext(ctx, `
		INSERT INTO resume_data (task_id, path, status, last_modified, size, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id, path) DO UPDATE SET
			status = excluded.status,
			last_modified = excluded.last_modified,
			size = excluded.size,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}

	s.stmts.get, err = s.db.PrepareContext(ctx, `
		SELECT task_id, path, status, last_modified, size, checksum, updated_at
		FROM resume_data WHERE task_id = ? AND path = ?
	`)
	if err != nil {
		return err
	}

	s.stmts.deleteByKey, err = s.db.PrepareContext(ctx, `
		DELETE FROM resume_data WHERE task_id = ? AND path = ?
	`)
	if err != nil {
		return err
	}

	s.stmts.listByTask, err = s.db.PrepareContext(ctx, `
		SELECT task_id, path, status, last_modified, size, checksum, updated_at
		FROM resume_data WHERE task_id = ?
	`)

	return err
}

func (s *SQLiteStore) Upsert(r Record) error {
	if r.UpdatedAt == 0 {
		r.UpdatedAt = time.Now().UnixNano()
	}

	_, err := s.stmts.upsert.Exec(r.TaskID, r.Path, string(r.Status), r.LastModified, r.Size, r.Checksum, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("resume: upsert %s/%s: %w", r.TaskID, r.Path, err)
	}

	return nil
}

func (s *SQLiteStore) Get(taskID, path string) (Record, bool, error) {
	var (
		r      Record
		status string
	)

	err := s.stmts.get.QueryRow(taskID, path).Scan(
		&r.TaskID, &r.Path, &status, &r.LastModified, &r.Size, &r.Checksum, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}

	if err != nil {
		return Record{}, false, fmt.Errorf("resume: get %s/%s: %w", taskID, path, err)
	}

	r.Status = Status(status)

	return r, true, nil
}

func (s *SQLiteStore) Delete(taskID, path string) error {
	if _, err := s.stmts.deleteByKey.Exec(taskID, path); err != nil {
		return fmt.Errorf("resume: delete %s/%s: %w", taskID, path, err)
	}

	return nil
}

func (s *SQLiteStore) ListByTask(taskID string) ([]Record, error) {
	rows, err := s.stmts.listByTask.Query(taskID)
	if err != nil {
		return nil, fmt.Errorf("resume: list by task %s: %w", taskID, err)
	}
	defer rows.Close()

	var out []Record

	for rows.Next() {
		var (
			r      Record
			status string
		)

		if err := rows.Scan(&r.TaskID, &r.Path, &status, &r.LastModified, &r.Size, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("resume: scan row: %w", err)
		}

		r.Status = Status(status)
		out = append(out, r)
	}

	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection so other single-writer components
// (the Report Aggregator's persistence layer) can share it rather than
// opening a second handle to the same file, mirroring the teacher's
// BaselineManager/Ledger shared-*sql.DB discipline (ledger.go).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}
