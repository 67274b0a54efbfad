package store

import (
	"fmt"
	"strings"
)

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS notes (
			id VARCHAR(36) PRIMARY KEY,
			uid VARCHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS api_keys (
			id VARCHAR(36) PRIMARY KEY,
			uid VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			scope TEXT NOT NULL,
			api_key VARCHAR(100) NOT NULL,
			prefix VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		// The prefix is the lookup half of every credential; without this
		// index each authentication scans the full key table.
		`CREATE INDEX idx_api_keys_prefix ON api_keys(prefix)`,
		`CREATE INDEX idx_notes_uid ON notes(uid)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; treat re-created
			// indexes as a no-op so migrations stay idempotent.
			lower := strings.ToLower(err.Error())
			if strings.Contains(lower, "duplicate key name") ||
				strings.Contains(lower, "already exists") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
