package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coursepilot/coursepilot-lms/internal/stats"
)

// ResultStore appends and lists immutable test attempt records. Dates are
// stored as unix seconds so both drivers share one schema.
type ResultStore struct{ db *sql.DB }

func NewResultStore(db *sql.DB) *ResultStore { return &ResultStore{db: db} }

func (s *ResultStore) Append(ctx context.Context, userID int64, score, maxScore int, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO test_results (user_id, test_date, score, max_score) VALUES ($1,$2,$3,$4)`,
		userID, at.Unix(), score, maxScore)
	if err != nil {
		return fmt.Errorf("save test result: %w", err)
	}
	return nil
}

func (s *ResultStore) ListByUser(ctx context.Context, userID int64) ([]stats.TestResult, error) {
	return s.list(ctx,
		`SELECT id, user_id, test_date, score, max_score FROM test_results
		 WHERE user_id=$1 ORDER BY test_date DESC, id DESC`, userID)
}

// ListAll is the admin view over every user's attempts.
func (s *ResultStore) ListAll(ctx context.Context) ([]stats.TestResult, error) {
	return s.list(ctx,
		`SELECT id, user_id, test_date, score, max_score FROM test_results
		 ORDER BY test_date DESC, id DESC`)
}

func (s *ResultStore) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM test_results WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete test results: %w", err)
	}
	return nil
}

func (s *ResultStore) list(ctx context.Context, query string, args ...any) ([]stats.TestResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list test results: %w", err)
	}
	defer rows.Close()
	out := []stats.TestResult{}
	for rows.Next() {
		var r stats.TestResult
		var ts int64
		if err := rows.Scan(&r.ID, &r.UserID, &ts, &r.Score, &r.MaxScore); err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}
		r.TestDate = time.Unix(ts, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
