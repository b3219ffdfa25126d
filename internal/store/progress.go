package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ProgressStore keeps one row per user: the last topic index they reached.
type ProgressStore struct{ db *sql.DB }

func NewProgressStore(db *sql.DB) *ProgressStore { return &ProgressStore{db: db} }

func (s *ProgressStore) GetLastTopic(ctx context.Context, userID int64) (int, bool, error) {
	var idx int
	err := s.db.QueryRowContext(ctx,
		`SELECT last_topic_id FROM progress WHERE user_id=$1`, userID).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load progress: %w", err)
	}
	return idx, true, nil
}

func (s *ProgressStore) UpsertLastTopic(ctx context.Context, userID int64, topicIndex int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress (user_id, last_topic_id, updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (user_id) DO UPDATE SET last_topic_id=EXCLUDED.last_topic_id, updated_at=EXCLUDED.updated_at`,
		userID, topicIndex, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
