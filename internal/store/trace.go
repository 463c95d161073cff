package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Trace is a recorded pose stream stored for replay against a recognizer.
type Trace struct {
	ID           int64           `json:"id"`
	RecognizerID string          `json:"recognizer_id"`
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TraceRepository provides CRUD operations for traces.
type TraceRepository struct {
	db *sql.DB
}

// Traces returns the trace repository for this store.
func (s *Store) Traces() *TraceRepository {
	return &TraceRepository{db: s.db}
}

// Create inserts a trace and sets its ID.
func (r *TraceRepository) Create(t *Trace) error {
	t.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO traces (recognizer_id, name, data, created_at) VALUES (?, ?, ?, ?)`,
		t.RecognizerID, t.Name, string(t.Data), t.CreatedAt,
	)
	if err != nil {
		return err
	}

	t.ID, err = result.LastInsertId()
	return err
}

// GetByID retrieves a trace by its ID.
func (r *TraceRepository) GetByID(id int64) (*Trace, error) {
	t := &Trace{}
	var data string

	err := r.db.QueryRow(
		`SELECT id, recognizer_id, name, data, created_at FROM traces WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.RecognizerID, &t.Name, &data, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	t.Data = json.RawMessage(data)
	return t, nil
}

// ListByRecognizer retrieves all traces recorded for a recognizer.
func (r *TraceRepository) ListByRecognizer(recognizerID string) ([]Trace, error) {
	rows, err := r.db.Query(
		`SELECT id, recognizer_id, name, data, created_at
		 FROM traces
		 WHERE recognizer_id = ?
		 ORDER BY id`,
		recognizerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var traces []Trace
	for rows.Next() {
		var t Trace
		var data string
		if err := rows.Scan(&t.ID, &t.RecognizerID, &t.Name, &data, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Data = json.RawMessage(data)
		traces = append(traces, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return traces, nil
}

// Delete removes a trace by its ID.
func (r *TraceRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM traces WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(result)
}
