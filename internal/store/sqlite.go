package store

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite as a bounded list per channel.
type SQLiteStore struct {
	db  *sql.DB
	cap int
}

// NewSQLite opens or creates a SQLite database at the given path.
// Use ":memory:" for an in-memory database. cap is the per-channel
// history limit.
func NewSQLite(path string, cap int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, cap: cap}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel TEXT NOT NULL,
			pic TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pics_channel_id ON pics(channel, id);
	`)
	return err
}

// Push appends a pic and evicts the oldest rows past the channel cap.
// Insert and trim run in one transaction so readers never observe more
// than cap entries.
func (s *SQLiteStore) Push(channel, pic string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO pics (channel, pic, created_at) VALUES (?, ?, ?)",
		channel, pic, time.Now().UTC(),
	); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		DELETE FROM pics WHERE channel = ? AND id NOT IN (
			SELECT id FROM pics WHERE channel = ? ORDER BY id DESC LIMIT ?
		)
	`, channel, channel, s.cap); err != nil {
		return err
	}
	return tx.Commit()
}

// Range returns the cached pics for a channel, oldest first.
func (s *SQLiteStore) Range(channel string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT pic FROM pics
		WHERE channel = ?
		ORDER BY id DESC
		LIMIT ?
	`, channel, s.cap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pics []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pics = append(pics, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest-first order.
	for i, j := 0, len(pics)-1; i < j; i, j = i+1, j-1 {
		pics[i], pics[j] = pics[j], pics[i]
	}
	return pics, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
