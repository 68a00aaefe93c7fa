// Package prefs persists the small key-value state that lives outside the
// relational cache: the last successful sync timestamp and the signed-in
// user id.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type state struct {
	LastSyncTimestamp int64  `json:"last_sync_timestamp"`
	UserID            string `json:"user_id,omitempty"`
}

// Store is a file-backed preference store. All accessors are safe for
// concurrent use within one process; writes go through an atomic rename.
type Store struct {
	mu   sync.Mutex
	path string
	st   state
}

// Open loads the preference file at path, creating empty state when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := json.Unmarshal(data, &s.st); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	return s, nil
}

// LastSyncTimestamp returns the persisted sync cursor in unix milliseconds,
// zero when no pull has succeeded yet.
func (s *Store) LastSyncTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.LastSyncTimestamp
}

// SetLastSyncTimestamp advances (or regresses, the cursor is not guarded)
// the persisted sync cursor.
func (s *Store) SetLastSyncTimestamp(ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.LastSyncTimestamp = ts
	return s.flushLocked()
}

// UserID returns the signed-in user id, empty when signed out.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UserID
}

// SetUserID persists the signed-in user id.
func (s *Store) SetUserID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.UserID = id
	return s.flushLocked()
}

// Clear wipes all persisted preference state (sign-out).
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = state{}
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	data, err := json.Marshal(&s.st)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return fmt.Errorf("failed to stage preferences: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to flush preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}
