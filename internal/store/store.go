package store

import (
	"context"
	"errors"

	"lumiere-assistant-backend/internal/session"
)

var ErrInvalidSessionID = errors.New("invalid session id")

// Store persists session state by session id. Get returns ok=false when the
// session does not exist. Delete is idempotent.
type Store interface {
	Get(ctx context.Context, sessionID string) (*session.State, bool, error)
	Put(ctx context.Context, sessionID string, st *session.State) error
	Delete(ctx context.Context, sessionID string) error
}
