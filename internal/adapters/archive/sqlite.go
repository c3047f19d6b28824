// Package archive is the optional persistence collaborator behind the room
// store. The in-memory bounded log stays the source of truth; this just lets
// history survive a restart.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dkeye/Chatter/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	room       TEXT NOT NULL,
	sender     TEXT NOT NULL,
	text       TEXT,
	file       TEXT,
	timestamp  INTEGER NOT NULL,
	read_by    TEXT NOT NULL,
	reactions  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages(room, timestamp);
`

type SQLite struct {
	db *sql.DB
}

func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Save upserts one message. Annotation updates reuse the same path, so the
// archived row tracks readBy/reactions growth.
func (s *SQLite) Save(msg domain.Message) error {
	readBy, err := json.Marshal(msg.ReadBy)
	if err != nil {
		return err
	}
	reactions, err := json.Marshal(msg.Reactions)
	if err != nil {
		return err
	}
	var file []byte
	if msg.File != nil {
		if file, err = json.Marshal(msg.File); err != nil {
			return err
		}
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO messages (id, room, sender, text, file, timestamp, read_by, reactions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, string(msg.Room), string(msg.Sender), msg.Text, nullable(file), msg.Timestamp, string(readBy), string(reactions),
	)
	return err
}

// Recent returns the newest limit messages of a room, oldest first.
func (s *SQLite) Recent(room domain.RoomName, limit int) ([]domain.Message, error) {
	rows, err := s.db.Query(
		`SELECT id, room, sender, text, file, timestamp, read_by, reactions
		 FROM messages WHERE room = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		string(room), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			msg       domain.Message
			roomStr   string
			senderStr string
			file      sql.NullString
			readBy    string
			reactions string
		)
		if err := rows.Scan(&msg.ID, &roomStr, &senderStr, &msg.Text, &file, &msg.Timestamp, &readBy, &reactions); err != nil {
			return nil, err
		}
		msg.Room = domain.RoomName(roomStr)
		msg.Sender = domain.Identity(senderStr)
		if file.Valid && file.String != "" {
			var f domain.File
			if err := json.Unmarshal([]byte(file.String), &f); err != nil {
				return nil, err
			}
			msg.File = &f
		}
		if err := json.Unmarshal([]byte(readBy), &msg.ReadBy); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(reactions), &msg.Reactions); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Newest-first from the query, flip to chronological.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Rooms lists every room with at least one archived message.
func (s *SQLite) Rooms() ([]domain.RoomName, error) {
	rows, err := s.db.Query(`SELECT DISTINCT room FROM messages`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomName
	for rows.Next() {
		var room string
		if err := rows.Scan(&room); err != nil {
			return nil, err
		}
		out = append(out, domain.RoomName(room))
	}
	return out, rows.Err()
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
