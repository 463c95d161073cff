package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Recognizers table - one configured gesture recognizer per row
		`CREATE TABLE IF NOT EXISTS recognizers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			family TEXT NOT NULL CHECK(family IN ('palm_flip', 'wave', 'swipe')),
			definition TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Actions table - plugin actions fired on recognizer transitions
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			recognizer_id TEXT NOT NULL REFERENCES recognizers(id) ON DELETE CASCADE,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			trigger_kind TEXT NOT NULL DEFAULT 'activated' CHECK(trigger_kind IN ('activated', 'deactivated')),
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Events table - journal of recognizer transitions
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recognizer_id TEXT NOT NULL REFERENCES recognizers(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			reason TEXT NOT NULL,
			occurred_at DATETIME NOT NULL
		)`,

		// Traces table - recorded pose streams for replay
		`CREATE TABLE IF NOT EXISTS traces (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recognizer_id TEXT NOT NULL REFERENCES recognizers(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_actions_recognizer_id ON actions(recognizer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_recognizer_id ON events(recognizer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_traces_recognizer_id ON traces(recognizer_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
