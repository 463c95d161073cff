package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Action triggers.
const (
	TriggerActivated   = "activated"
	TriggerDeactivated = "deactivated"
)

// Action binds a recognizer transition to a plugin action.
type Action struct {
	ID           string
	RecognizerID string
	PluginName   string
	ActionName   string
	Trigger      string
	Config       json.RawMessage
	Enabled      bool
	CreatedAt    time.Time
}

// ActionRepository provides CRUD operations for actions.
type ActionRepository struct {
	db *sql.DB
}

// Actions returns the action repository for this store.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{db: s.db}
}

const actionColumns = `id, recognizer_id, plugin_name, action_name, trigger_kind, config, enabled, created_at`

func scanAction(row rowScanner) (*Action, error) {
	a := &Action{}
	var config string
	var enabled int

	err := row.Scan(&a.ID, &a.RecognizerID, &a.PluginName, &a.ActionName, &a.Trigger, &config, &enabled, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.Config = json.RawMessage(config)
	a.Enabled = enabled != 0
	return a, nil
}

// Create inserts a new action into the database. An empty trigger means
// TriggerActivated.
func (r *ActionRepository) Create(a *Action) error {
	a.CreatedAt = time.Now()
	if a.Trigger == "" {
		a.Trigger = TriggerActivated
	}

	config := a.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.RecognizerID, a.PluginName, a.ActionName, a.Trigger, string(config), boolInt(a.Enabled), a.CreatedAt,
	)
	return err
}

// GetByID retrieves an action by its ID.
func (r *ActionRepository) GetByID(id string) (*Action, error) {
	a, err := scanAction(r.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List retrieves all actions from the database.
func (r *ActionRepository) List() ([]*Action, error) {
	return r.list(`SELECT ` + actionColumns + ` FROM actions ORDER BY created_at DESC`)
}

// ListFor retrieves the enabled actions bound to a recognizer transition.
func (r *ActionRepository) ListFor(recognizerID, trigger string) ([]*Action, error) {
	return r.list(
		`SELECT `+actionColumns+` FROM actions
		 WHERE recognizer_id = ? AND trigger_kind = ? AND enabled = 1
		 ORDER BY created_at`,
		recognizerID, trigger,
	)
}

func (r *ActionRepository) list(query string, args ...any) ([]*Action, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return actions, nil
}

// Update updates an existing action in the database.
func (r *ActionRepository) Update(a *Action) error {
	config := a.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	if a.Trigger == "" {
		a.Trigger = TriggerActivated
	}

	result, err := r.db.Exec(
		`UPDATE actions SET recognizer_id = ?, plugin_name = ?, action_name = ?, trigger_kind = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		a.RecognizerID, a.PluginName, a.ActionName, a.Trigger, string(config), boolInt(a.Enabled), a.ID,
	)
	if err != nil {
		return err
	}
	return affected(result)
}

// Delete removes an action from the database by its ID.
func (r *ActionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(result)
}
