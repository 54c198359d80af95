package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
)

// CreateMessage durably stores m, assigning its id and timestamp.
func (db *DB) CreateMessage(m *model.Message) error {
	m.ID = uuid.NewString()
	now := time.Now()
	m.CreatedAt = now.UTC().Truncate(time.Millisecond)
	_, err := db.Exec(`
		INSERT INTO messages (id, sender_id, receiver_id, text, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.Image, now.UnixMilli())
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// ListMessages returns every message exchanged between a and b, oldest first.
func (db *DB) ListMessages(a, b string) ([]model.Message, error) {
	rows, err := db.Query(`
		SELECT id, sender_id, receiver_id, text, image, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at, rowid`, a, b, b, a)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer func() { _ = rows.Close() }()

	msgs := []model.Message{}
	for rows.Next() {
		var (
			m       model.Message
			created int64
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &created); err != nil {
			return nil, apperr.Storage(err)
		}
		m.CreatedAt = time.UnixMilli(created).UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return msgs, nil
}

// CountMessages returns the total number of stored messages.
func (db *DB) CountMessages() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, apperr.Storage(err)
	}
	return n, nil
}
