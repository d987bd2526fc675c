package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"lumiere-assistant-backend/internal/session"
)

var safeSessionID = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// FileStore persists each session as a JSON document in a directory.
type FileStore struct {
	dir         string
	maxMessages int
}

func NewFileStore(dir string, maxMessages int) *FileStore {
	return &FileStore{dir: dir, maxMessages: maxMessages}
}

func (f *FileStore) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrInvalidSessionID
	}
	if !safeSessionID.MatchString(sessionID) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return filepath.Join(f.dir, sessionID+".json"), nil
}

func (f *FileStore) Get(_ context.Context, sessionID string) (*session.State, bool, error) {
	p, err := f.path(sessionID)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	st := session.New()
	if err := json.Unmarshal(b, st); err != nil {
		return nil, false, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return st, true, nil
}

func (f *FileStore) Put(_ context.Context, sessionID string, st *session.State) error {
	p, err := f.path(sessionID)
	if err != nil {
		return err
	}
	c := st.Clone()
	c.TrimHistory(f.maxMessages)
	c.UpdatedAt = time.Now().UTC()
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	// Restrictive permissions: sessions carry allergy data
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (f *FileStore) Delete(_ context.Context, sessionID string) error {
	p, err := f.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
