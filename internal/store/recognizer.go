package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Recognizer is a stored recognizer configuration. Definition holds the
// JSON gesture definition for Family.
type Recognizer struct {
	ID         string
	Name       string
	Family     string
	Definition json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RecognizerRepository provides CRUD operations for recognizers.
type RecognizerRepository struct {
	db *sql.DB
}

// Recognizers returns the recognizer repository for this store.
func (s *Store) Recognizers() *RecognizerRepository {
	return &RecognizerRepository{db: s.db}
}

const recognizerColumns = `id, name, family, definition, enabled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecognizer(row rowScanner) (*Recognizer, error) {
	rec := &Recognizer{}
	var definition string
	var enabled int

	err := row.Scan(&rec.ID, &rec.Name, &rec.Family, &definition, &enabled, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Definition = json.RawMessage(definition)
	rec.Enabled = enabled != 0
	return rec, nil
}

// Create inserts a new recognizer into the database.
func (r *RecognizerRepository) Create(rec *Recognizer) error {
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO recognizers (`+recognizerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Family, string(definitionOrEmpty(rec.Definition)), boolInt(rec.Enabled), rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// GetByID retrieves a recognizer by its ID.
func (r *RecognizerRepository) GetByID(id string) (*Recognizer, error) {
	return r.getOne(`SELECT `+recognizerColumns+` FROM recognizers WHERE id = ?`, id)
}

// GetByName retrieves a recognizer by its name.
func (r *RecognizerRepository) GetByName(name string) (*Recognizer, error) {
	return r.getOne(`SELECT `+recognizerColumns+` FROM recognizers WHERE name = ?`, name)
}

func (r *RecognizerRepository) getOne(query string, arg any) (*Recognizer, error) {
	rec, err := scanRecognizer(r.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves all recognizers, oldest first.
func (r *RecognizerRepository) List() ([]*Recognizer, error) {
	return r.list(`SELECT ` + recognizerColumns + ` FROM recognizers ORDER BY created_at, name`)
}

// ListEnabled retrieves the recognizers that should be running.
func (r *RecognizerRepository) ListEnabled() ([]*Recognizer, error) {
	return r.list(`SELECT ` + recognizerColumns + ` FROM recognizers WHERE enabled = 1 ORDER BY created_at, name`)
}

func (r *RecognizerRepository) list(query string) ([]*Recognizer, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recognizer
	for rows.Next() {
		rec, err := scanRecognizer(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// Update updates an existing recognizer in the database.
func (r *RecognizerRepository) Update(rec *Recognizer) error {
	rec.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE recognizers SET name = ?, family = ?, definition = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		rec.Name, rec.Family, string(definitionOrEmpty(rec.Definition)), boolInt(rec.Enabled), rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return err
	}
	return affected(result)
}

// Delete removes a recognizer and, through cascades, its actions, events
// and traces.
func (r *RecognizerRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM recognizers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(result)
}

func definitionOrEmpty(d json.RawMessage) json.RawMessage {
	if len(d) == 0 {
		return json.RawMessage("{}")
	}
	return d
}
