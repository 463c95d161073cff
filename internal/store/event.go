package store

import (
	"database/sql"
	"time"
)

// Event is one journaled recognizer transition.
type Event struct {
	ID           int64     `json:"id"`
	RecognizerID string    `json:"recognizer_id"`
	Kind         string    `json:"kind"`
	Reason       string    `json:"reason"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventRepository appends to and reads the event journal.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append records an event and sets its ID.
func (r *EventRepository) Append(e *Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO events (recognizer_id, kind, reason, occurred_at) VALUES (?, ?, ?, ?)`,
		e.RecognizerID, e.Kind, e.Reason, e.OccurredAt,
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// List returns up to limit of the most recent events, newest first.
// An empty recognizerID lists events of every recognizer.
func (r *EventRepository) List(recognizerID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, recognizer_id, kind, reason, occurred_at FROM events`
	args := []any{}
	if recognizerID != "" {
		query += ` WHERE recognizer_id = ?`
		args = append(args, recognizerID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.RecognizerID, &e.Kind, &e.Reason, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Prune keeps only the newest keep events and returns how many were removed.
func (r *EventRepository) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM events WHERE id NOT IN (SELECT id FROM events ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
