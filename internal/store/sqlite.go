// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLitePersistence stores the state in a SQLite database. The state is
// small, so every save rewrites it inside one transaction; the database
// is never read partially updated.
type SQLitePersistence struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	position   INTEGER PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS selection (
	key        INTEGER PRIMARY KEY CHECK (key = 0),
	current_id TEXT NOT NULL
);
`

// NewSQLitePersistence opens (or creates) the database at path and
// ensures the schema exists.
func NewSQLitePersistence(path string) (*SQLitePersistence, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer keeps the rewrite-all save transactional.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLitePersistence{db: db}, nil
}

// Close releases the database handle.
func (s *SQLitePersistence) Close() error {
	return s.db.Close()
}

// Load reads the full state, ordered most-recent-created first.
func (s *SQLitePersistence) Load() (State, error) {
	rows, err := s.db.Query(`SELECT id, title, created_at, updated_at FROM conversations ORDER BY position`)
	if err != nil {
		return State{}, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var state State
	for rows.Next() {
		var meta ConversationMeta
		if err := rows.Scan(&meta.ID, &meta.Title, &meta.CreatedAt, &meta.UpdatedAt); err != nil {
			return State{}, fmt.Errorf("failed to scan conversation: %w", err)
		}
		state.Conversations = append(state.Conversations, meta)
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("failed to read conversations: %w", err)
	}

	err = s.db.QueryRow(`SELECT current_id FROM selection WHERE key = 0`).Scan(&state.CurrentID)
	if err != nil && err != sql.ErrNoRows {
		return State{}, fmt.Errorf("failed to read selection: %w", err)
	}
	return state, nil
}

// Save rewrites the full state in one transaction.
func (s *SQLitePersistence) Save(state State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM conversations`); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM selection`); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}

	for i, meta := range state.Conversations {
		_, err := tx.Exec(
			`INSERT INTO conversations (position, id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			i, meta.ID, meta.Title, meta.CreatedAt, meta.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}
	}
	if state.CurrentID != "" {
		if _, err := tx.Exec(`INSERT INTO selection (key, current_id) VALUES (0, ?)`, state.CurrentID); err != nil {
			return fmt.Errorf("failed to save selection: %w", err)
		}
	}
	return tx.Commit()
}
