package store

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/arena"
)

// DB is the match-result archive. Session state itself never touches disk;
// only finished games are recorded here.
type DB struct {
	conn *sql.DB
}

// MatchRow is one archived game
type MatchRow struct {
	ID         int64
	SessionID  string
	WinnerSide int
	Score1     int
	Score2     int
	Rounds     int
	Duration   float64 // seconds
	Name1      string
	Name2      string
	Reason     string
	CreatedAt  time.Time
}

// Open opens (or creates) the archive database
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps archive writes off the critical path of readers
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		winner_side INTEGER NOT NULL,
		score1 INTEGER NOT NULL DEFAULT 0,
		score2 INTEGER NOT NULL DEFAULT 0,
		rounds INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		name1 TEXT NOT NULL DEFAULT '',
		name2 TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_matches_session ON matches(session_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordMatch archives a finished game. Implements arena.Archiver.
func (db *DB) RecordMatch(res arena.GameResult) error {
	_, err := db.conn.Exec(`
		INSERT INTO matches (session_id, winner_side, score1, score2, rounds, duration, name1, name2, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SessionID, res.WinnerSide, res.Score[0], res.Score[1], res.Rounds,
		res.Duration.Seconds(), res.Names[0], res.Names[1], res.Reason,
	)
	return err
}

// RecentMatches returns the most recently archived games, newest first
func (db *DB) RecentMatches(limit int) ([]MatchRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, session_id, winner_side, score1, score2, rounds, duration, name1, name2, reason, created_at
		FROM matches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(&m.ID, &m.SessionID, &m.WinnerSide, &m.Score1, &m.Score2,
			&m.Rounds, &m.Duration, &m.Name1, &m.Name2, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
