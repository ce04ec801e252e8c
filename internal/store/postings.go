package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
)

// ErrMissingSourceID marks a malformed record: without an identity key the
// store cannot answer whether a posting is new.
var ErrMissingSourceID = errors.New("posting has no source_id")

// InsertPostingIgnore atomically checks-and-inserts a posting. It returns
// added=true when this call created the row, added=false when a posting with
// the same source_id already exists. The existing row is never touched
// (first-write-wins). Atomicity comes from the unique index on source_id plus
// INSERT OR IGNORE, so two racing callers get exactly one insert between them.
func InsertPostingIgnore(ctx context.Context, db *sql.DB, p domain.Posting) (added bool, err error) {
	if strings.TrimSpace(p.SourceID) == "" {
		return false, ErrMissingSourceID
	}

	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO postings
  (source_id, title, company, location, description, salary, url, date_posted, date_extracted, was_opened)
VALUES (?,?,?,?,?,?,?,?,?,?);`,
		p.SourceID,
		p.Title,
		p.Company,
		p.Location,
		nullable(p.Description),
		nullable(p.Salary),
		p.URL,
		nullable(p.DatePosted),
		p.DateExtracted.UTC().Format(time.RFC3339),
		boolToInt(p.WasOpened),
	)
	if err != nil {
		return false, fmt.Errorf("insert posting: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert posting rows affected: %w", err)
	}
	return n > 0, nil
}

type ListPostingsOpts struct {
	Window string // 24h | 7d | all
	Limit  int
}

func ListPostings(ctx context.Context, db *sql.DB, opts ListPostingsOpts) ([]domain.Posting, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 500
	}

	where := ""
	switch opts.Window {
	case "24h":
		where = "WHERE date_extracted >= datetime('now','-24 hours')"
	case "all":
		// no filter
	default:
		where = "WHERE date_extracted >= datetime('now','-7 days')"
	}

	query := fmt.Sprintf(`
SELECT source_id, title, company, location, description, salary, url, date_posted, date_extracted, was_opened
FROM postings
%s
ORDER BY date_extracted DESC
LIMIT ?;`, where)

	rows, err := db.QueryContext(ctx, query, opts.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPosting looks one posting up by identity. Used by tests and the status
// API; the ingest path only ever goes through InsertPostingIgnore.
func GetPosting(ctx context.Context, db *sql.DB, sourceID string) (domain.Posting, error) {
	row := db.QueryRowContext(ctx, `
SELECT source_id, title, company, location, description, salary, url, date_posted, date_extracted, was_opened
FROM postings
WHERE source_id = ?;`, sourceID)
	return scanPosting(row)
}

func CountPostings(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings;`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(r rowScanner) (domain.Posting, error) {
	var p domain.Posting
	var desc, salary, datePosted sql.NullString
	var extracted string
	var wasOpened int
	if err := r.Scan(
		&p.SourceID,
		&p.Title,
		&p.Company,
		&p.Location,
		&desc,
		&salary,
		&p.URL,
		&datePosted,
		&extracted,
		&wasOpened,
	); err != nil {
		return domain.Posting{}, err
	}
	p.Description = fromNull(desc)
	p.Salary = fromNull(salary)
	p.DatePosted = fromNull(datePosted)
	p.DateExtracted, _ = time.Parse(time.RFC3339, extracted)
	p.WasOpened = wasOpened != 0
	return p, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
