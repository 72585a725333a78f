package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// RoomRow represents a room in the database.
type RoomRow struct {
	Code      string
	CreatedAt time.Time
}

// ResultRow represents one finished game.
type ResultRow struct {
	ID         int64     `json:"id"`
	RoomCode   string    `json:"roomCode"`
	Winner     string    `json:"winner"`
	Loser      string    `json:"loser"`
	LoserCards int       `json:"loserCards"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Store handles SQLite persistence. It records rooms and finished-game
// results; live game state is never persisted, so a restart clears all
// in-flight sessions.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			code       TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS results (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			room_code   TEXT NOT NULL,
			winner      TEXT NOT NULL,
			loser       TEXT NOT NULL,
			loser_cards INTEGER NOT NULL,
			moves       INTEGER NOT NULL,
			finished_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// CreateRoom inserts a new room.
func (s *Store) CreateRoom(code string) error {
	_, err := s.db.Exec("INSERT INTO rooms (code) VALUES (?)", code)
	return err
}

// GetRoom retrieves a room by code.
func (s *Store) GetRoom(code string) (*RoomRow, error) {
	row := s.db.QueryRow("SELECT code, created_at FROM rooms WHERE code = ?", code)
	var rr RoomRow
	if err := row.Scan(&rr.Code, &rr.CreatedAt); err != nil {
		return nil, err
	}
	return &rr, nil
}

// DeleteRoom removes a room. Recorded results are kept.
func (s *Store) DeleteRoom(code string) error {
	_, err := s.db.Exec("DELETE FROM rooms WHERE code = ?", code)
	return err
}

// RecordResult appends one finished game to the results log.
func (s *Store) RecordResult(roomCode, winner, loser string, loserCards, moves int) error {
	_, err := s.db.Exec(`
		INSERT INTO results (room_code, winner, loser, loser_cards, moves)
		VALUES (?, ?, ?, ?, ?)
	`, roomCode, winner, loser, loserCards, moves)
	return err
}

// ListResults returns the most recent results, newest first.
func (s *Store) ListResults(limit int) ([]ResultRow, error) {
	rows, err := s.db.Query(`
		SELECT id, room_code, winner, loser, loser_cards, moves, finished_at
		FROM results ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ResultRow
	for rows.Next() {
		var rr ResultRow
		if err := rows.Scan(&rr.ID, &rr.RoomCode, &rr.Winner, &rr.Loser, &rr.LoserCards, &rr.Moves, &rr.FinishedAt); err != nil {
			return nil, err
		}
		result = append(result, rr)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
