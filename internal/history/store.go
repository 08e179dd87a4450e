package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
	"github.com/ziadkadry99/runbookqa/internal/db"
)

// ErrSessionNotFound is returned when a session does not exist or belongs
// to another user.
var ErrSessionNotFound = errors.New("chat session not found")

// Store manages persistence of chat sessions.
type Store struct {
	db *db.DB
}

// NewStore creates a new history store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateSession creates a new chat session.
func (s *Store) CreateSession(ctx context.Context, userID string) (*Session, error) {
	return s.insertSession(ctx, s.db, uuid.New().String(), userID)
}

func (s *Store) insertSession(ctx context.Context, q querier, id, userID string) (*Session, error) {
	if userID == "" {
		userID = "anonymous"
	}
	now := time.Now().UTC()
	sess := Session{
		ID:        id,
		UserID:    userID,
		Title:     DefaultTitle,
		State:     assistant.State{Phase: assistant.PhaseNormal},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, title, phase, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Title, string(sess.State.Phase), sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &sess, nil
}

// EnsureSession returns the session with id, creating it when it does not
// exist yet. An empty id always creates a new session.
func (s *Store) EnsureSession(ctx context.Context, id, userID string) (*Session, error) {
	if id == "" {
		return s.CreateSession(ctx, userID)
	}
	sess, err := s.GetSession(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return s.insertSession(ctx, s.db, id, userID)
	}
	if err != nil {
		return nil, err
	}
	if userID != "" && sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var phase string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, phase, pending_query, pending_runbook, created_at, updated_at
		 FROM chat_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.Title, &phase, &sess.State.PendingQuery, &sess.State.PendingRunbook,
		&sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	sess.State.Phase = assistant.Phase(phase)
	return &sess, nil
}

// ListSessions returns a user's sessions, most recently active first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, phase, pending_query, pending_runbook, created_at, updated_at
		 FROM chat_sessions WHERE user_id = ? ORDER BY updated_at DESC, created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		var phase string
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Title, &phase, &sess.State.PendingQuery,
			&sess.State.PendingRunbook, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.State.Phase = assistant.Phase(phase)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// AddMessage appends a message to a chat session. The first user message
// also titles the session.
func (s *Store) AddMessage(ctx context.Context, msg Message) (*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertMessage(ctx, tx, &msg); err != nil {
		return nil, err
	}
	if msg.Role == assistant.RoleUser {
		_, err = tx.ExecContext(ctx,
			`UPDATE chat_sessions SET title = ? WHERE id = ? AND title = ?`,
			Title(msg.Content), msg.SessionID, DefaultTitle)
		if err != nil {
			return nil, fmt.Errorf("titling session: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}
	return &msg, nil
}

func (s *Store) insertMessage(ctx context.Context, q querier, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Sources == nil {
		msg.Sources = []string{}
	}
	msg.Role = normalizeRole(msg.Role)
	msg.CreatedAt = time.Now().UTC()

	sources, err := json.Marshal(msg.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, seq, role, content, sources, is_runbook, runbook_type, created_at)
		 SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?
		 FROM chat_messages WHERE session_id = ?`,
		msg.ID, msg.SessionID, string(msg.Role), msg.Content, string(sources), msg.IsRunbook, msg.RunbookType,
		msg.CreatedAt, msg.SessionID,
	)
	if err != nil {
		return fmt.Errorf("adding message: %w", err)
	}

	// Update session timestamp.
	_, err = q.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, msg.CreatedAt, msg.SessionID)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// GetMessages returns the first limit messages of a session in order, or
// all of them when limit is not positive.
func (s *Store) GetMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, sources, is_runbook, runbook_type, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY seq ASC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		var role, sources string
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &sources, &m.IsRunbook, &m.RunbookType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = assistant.Role(role)
		if err := json.Unmarshal([]byte(sources), &m.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources of message %s: %w", m.ID, err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ReplaceMessages overwrites a session's messages with msgs, creating the
// session when needed. The title is re-derived from the first message.
func (s *Store) ReplaceMessages(ctx context.Context, sessionID, userID string, msgs []Message) (*Session, error) {
	sess, err := s.EnsureSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sess.ID); err != nil {
		return nil, fmt.Errorf("clearing messages: %w", err)
	}
	for i := range msgs {
		msgs[i].ID = ""
		msgs[i].SessionID = sess.ID
		if err := s.insertMessage(ctx, tx, &msgs[i]); err != nil {
			return nil, err
		}
	}

	sess.Title = DefaultTitle
	if len(msgs) > 0 {
		sess.Title = Title(msgs[0].Content)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET title = ? WHERE id = ?`, sess.Title, sess.ID); err != nil {
		return nil, fmt.Errorf("titling session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing messages: %w", err)
	}
	return sess, nil
}

// DeleteSession removes a session and its messages and returns how many
// messages were deleted. A non-empty userID must own the session.
func (s *Store) DeleteSession(ctx context.Context, id, userID string) (int, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return 0, err
	}
	if userID != "" && sess.UserID != userID {
		return 0, ErrSessionNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting messages: %w", err)
	}
	n, _ := res.RowsAffected()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("deleting session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing delete: %w", err)
	}
	return int(n), nil
}

// SaveState stores the conversation state to use for the session's next turn.
func (s *Store) SaveState(ctx context.Context, id string, state assistant.State) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET phase = ?, pending_query = ?, pending_runbook = ?, updated_at = ? WHERE id = ?`,
		string(state.Phase), state.PendingQuery, state.PendingRunbook, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CountSessions returns the total number of chat sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions`).Scan(&count)
	return count, err
}
