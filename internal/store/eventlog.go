package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventLog is an append-only audit trail of session-level happenings
// (topic_completed, course_completed, test_submitted).
type EventLog struct{ db *sql.DB }

func NewEventLog(db *sql.DB) *EventLog { return &EventLog{db: db} }

func (l *EventLog) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
