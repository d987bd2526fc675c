package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lumiere-assistant-backend/internal/session"
)

// Querier is the subset of *sql.DB used by DatabaseStore.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DatabaseStore stores session state as JSONB in PostgreSQL
type DatabaseStore struct {
	db          Querier
	maxMessages int
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database Querier, maxMessages int) *DatabaseStore {
	return &DatabaseStore{db: database, maxMessages: maxMessages}
}

// Put saves or updates the state for a session
func (ds *DatabaseStore) Put(ctx context.Context, sessionID string, st *session.State) error {
	if sessionID == "" {
		return ErrInvalidSessionID
	}
	c := st.Clone()
	c.TrimHistory(ds.maxMessages)
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	query := `
		INSERT INTO sessions (session_id, state, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = NOW()
	`

	if _, err := ds.db.ExecContext(ctx, query, sessionID, string(b)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Get retrieves the state for a session
func (ds *DatabaseStore) Get(ctx context.Context, sessionID string) (*session.State, bool, error) {
	if sessionID == "" {
		return nil, false, ErrInvalidSessionID
	}

	var raw string
	var updatedAt sql.NullTime
	query := `
		SELECT state, updated_at
		FROM sessions
		WHERE session_id = $1
	`

	err := ds.db.QueryRowContext(ctx, query, sessionID).Scan(&raw, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session: %w", err)
	}

	st := session.New()
	if err := json.Unmarshal([]byte(raw), st); err != nil {
		return nil, false, fmt.Errorf("failed to decode session: %w", err)
	}
	if updatedAt.Valid {
		st.UpdatedAt = updatedAt.Time
	}
	return st, true, nil
}

// Delete removes a session
func (ds *DatabaseStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSessionID
	}

	query := `DELETE FROM sessions WHERE session_id = $1`
	if _, err := ds.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
