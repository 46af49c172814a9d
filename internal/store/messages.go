package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a session's conversation history.
type Message struct {
	SessionID string
	Role      string
	Content   string
	Timestamp time.Time
}

// SessionInfo summarizes one conversation session.
type SessionInfo struct {
	SessionID    string
	MessageCount int
	StartedAt    time.Time
	LastActivity time.Time
}

// AddMessage appends a message to a session's history. Messages are
// immutable once appended.
func (s *Store) AddMessage(sessionID, role, content string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("message id: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO conversation_history (id, session_id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, id.String(), sessionID, role, content, time.Now())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// History returns the most recent limit messages of a session in
// chronological order. limit <= 0 means all messages.
func (s *Store) History(sessionID string, limit int) ([]Message, error) {
	query := `
		SELECT session_id, role, content, timestamp
		FROM conversation_history
		WHERE session_id = ?
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.SessionID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order (oldest first).
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ContextString renders the last limit messages of a session as a
// transcript for prompt assembly.
func (s *Store) ContextString(sessionID string, limit int) string {
	history, err := s.History(sessionID, limit)
	if err != nil || len(history) == 0 {
		return "No previous conversation."
	}

	var b strings.Builder
	b.WriteString("Previous conversation:")
	for _, m := range history {
		label := "Agent"
		if m.Role == RoleUser {
			label = "Customer"
		}
		b.WriteString("\n")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

// Sessions lists all conversation sessions, most recently active first.
func (s *Store) Sessions() ([]SessionInfo, error) {
	rows, err := s.db.Query(`
		SELECT session_id, COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM conversation_history
		GROUP BY session_id
		ORDER BY MAX(timestamp) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var si SessionInfo
		var started, last string
		if err := rows.Scan(&si.SessionID, &si.MessageCount, &started, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		// MIN/MAX lose the column's declared type, so the driver hands
		// the timestamps back as text.
		si.StartedAt = parseTimestamp(started)
		si.LastActivity = parseTimestamp(last)
		sessions = append(sessions, si)
	}
	return sessions, rows.Err()
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
