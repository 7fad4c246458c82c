package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the slice of pgxpool.Pool the journal needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgJournal appends events to the event_logs table.
type PgJournal struct {
	db execer
}

func NewPgJournal(db execer) *PgJournal {
	return &PgJournal{db: db}
}

func (j *PgJournal) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = j.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, ev.Type, nullableString(ev.BookingID), payload, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
