package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
)

// StartRun inserts a run_records row in the running state and returns it as
// the handle for FinishRun. source is "" for the cycle-level record.
func StartRun(ctx context.Context, db *sql.DB, source string, spiderCount int) (domain.RunRecord, error) {
	rec := domain.RunRecord{
		ID:          uuid.NewString(),
		Source:      source,
		StartedAt:   time.Now().UTC(),
		Status:      domain.RunRunning,
		SpiderCount: spiderCount,
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO run_records (id, source, started_at, status, spider_count)
VALUES (?,?,?,?,?);`,
		rec.ID, rec.Source, rec.StartedAt.Format(time.RFC3339), string(rec.Status), rec.SpiderCount,
	)
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("start run: %w", err)
	}
	return rec, nil
}

// FinishRun transitions a running record to its terminal state. A record is
// finished exactly once; a crash before FinishRun leaves the row running
// forever, which the scheduler reads as "never completed".
func FinishRun(ctx context.Context, db *sql.DB, rec domain.RunRecord, status domain.RunStatus, scraped, saved int) error {
	if status != domain.RunCompleted && status != domain.RunFailed {
		return fmt.Errorf("finish run: %q is not a terminal status", status)
	}
	res, err := db.ExecContext(ctx, `
UPDATE run_records
SET ended_at = ?, status = ?, items_scraped = ?, items_saved = ?
WHERE id = ? AND status = 'running';`,
		time.Now().UTC().Format(time.RFC3339), string(status), scraped, saved, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: record %s is not running", rec.ID)
	}
	return nil
}

// LastCompletedRun returns the most recent cycle-level record that reached
// the completed state, or nil if none exists. Rows stuck in running and
// failed rows are both ignored so that a crashed or failed cycle forces a
// catch-up run after restart.
func LastCompletedRun(ctx context.Context, db *sql.DB) (*domain.RunRecord, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, source, started_at, ended_at, status, spider_count, items_scraped, items_saved
FROM run_records
WHERE source = '' AND status = 'completed'
ORDER BY ended_at DESC
LIMIT 1;`)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, source, started_at, ended_at, status, spider_count, items_scraped, items_saved
FROM run_records
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRun(r rowScanner) (domain.RunRecord, error) {
	var rec domain.RunRecord
	var started string
	var ended sql.NullString
	var status string
	if err := r.Scan(
		&rec.ID,
		&rec.Source,
		&started,
		&ended,
		&status,
		&rec.SpiderCount,
		&rec.ItemsScraped,
		&rec.ItemsSaved,
	); err != nil {
		return domain.RunRecord{}, err
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339, started)
	if ended.Valid {
		rec.EndedAt, _ = time.Parse(time.RFC3339, ended.String)
	}
	rec.Status = domain.RunStatus(status)
	return rec, nil
}
