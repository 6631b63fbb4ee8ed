package messages

import (
	"chatline/db"
	"chatline/types"
	"database/sql"
	"fmt"
	"time"
)

// Append persists one message for the addressed user. The timestamp is
// assigned here, at persistence time, so it is non-decreasing within a
// user's append sequence regardless of when the message was submitted.
func Append(userID, text, senderName string) (types.Message, error) {
	if text == "" {
		return types.Message{}, fmt.Errorf("%w: text", types.ErrValidation)
	}
	if err := ensureUserExists(userID); err != nil {
		return types.Message{}, err
	}

	timestamp := time.Now().UTC()
	result, err := db.ChatDB.Exec(
		`INSERT INTO messages (user_id, text, sender_name, timestamp) VALUES (?, ?, ?, ?)`,
		userID, text, senderName, timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return types.Message{}, fmt.Errorf("inserting message failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return types.Message{}, fmt.Errorf("inserting message failed: %w", err)
	}

	return types.Message{
		ID:         int(id),
		UserID:     userID,
		Text:       text,
		SenderName: senderName,
		Timestamp:  timestamp,
	}, nil
}

// ListForUser returns the user's full message sequence, oldest first.
func ListForUser(userID string) ([]types.Message, error) {
	if err := ensureUserExists(userID); err != nil {
		return nil, err
	}

	rows, err := db.ChatDB.Query(
		`SELECT id, user_id, text, sender_name, timestamp FROM messages WHERE user_id = ? ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages failed: %w", err)
	}
	defer rows.Close()

	messages := []types.Message{}
	for rows.Next() {
		var message types.Message
		var timestamp string
		if err := rows.Scan(&message.ID, &message.UserID, &message.Text, &message.SenderName, &timestamp); err != nil {
			return nil, fmt.Errorf("scanning message failed: %w", err)
		}
		message.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing message timestamp failed: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("message row error: %w", err)
	}
	return messages, nil
}

func ensureUserExists(userID string) error {
	var exists int
	err := db.ChatDB.QueryRow(`SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("user existence check failed: %w", err)
	}
	return nil
}
