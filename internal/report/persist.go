package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Persister saves and loads SyncReports from the sync_reports table, sharing
// a *sql.DB with the Resume Store (single-writer discipline, one DB file per
// engine instance).
type Persister struct {
	db *sql.DB
}

// NewPersister wraps db. Callers typically pass resume.SQLiteStore.DB().
func NewPersister(db *sql.DB) *Persister {
	return &Persister{db: db}
}

// Save persists rep as a new row, minting a fresh report id.
func (p *Persister) Save(ctx context.Context, rep SyncReport) (string, error) {
	id := uuid.New().String()

	body, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("report: marshal: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO sync_reports (id, task_id, started_at, finished_at, status, report_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, rep.TaskID, rep.StartedAt.Unix(), rep.FinishedAt.Unix(), string(rep.Status), string(body))
	if err != nil {
		return "", fmt.Errorf("report: insert: %w", err)
	}

	return id, nil
}

// Get loads one report by id.
func (p *Persister) Get(ctx context.Context, id string) (SyncReport, error) {
	var body string

	err := p.db.QueryRowContext(ctx, `SELECT report_json FROM sync_reports WHERE id = ?`, id).Scan(&body)
	if err != nil {
		return SyncReport{}, fmt.Errorf("report: get %s: %w", id, err)
	}

	var rep SyncReport
	if err := json.Unmarshal([]byte(body), &rep); err != nil {
		return SyncReport{}, fmt.Errorf("report: unmarshal %s: %w", id, err)
	}

	return rep, nil
}

// ListByTask returns every persisted report for taskID, most recent first.
func (p *Persister) ListByTask(ctx context.Context, taskID string) ([]SyncReport, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT report_json FROM sync_reports
		WHERE task_id = ? ORDER BY finished_at DESC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("report: list by task %s: %w", taskID, err)
	}
	defer rows.Close()

	var out []SyncReport

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("report: scan row: %w", err)
		}

		var rep SyncReport
		if err := json.Unmarshal([]byte(body), &rep); err != nil {
			return nil, fmt.Errorf("report: unmarshal row: %w", err)
		}

		out = append(out, rep)
	}

	return out, rows.Err()
}
