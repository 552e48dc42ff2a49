package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps a single session as plain JSON, like a saved settings file
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file
func (f *FileStore) Path() string {
	return f.path
}

// Store overwrites the file with session
func (f *FileStore) Store(session *Session) error {
	if session == nil || session.Username == "" {
		return ErrInvalidSession
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// Retrieve returns the saved session when it belongs to username.
// An empty username matches whatever session is saved.
func (f *FileStore) Retrieve(username string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.read()
	if err != nil {
		return nil, err
	}
	if username != "" && s.Username != username {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns the saved session, if any
func (f *FileStore) List() ([]*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.read()
	if err == ErrSessionNotFound {
		return []*Session{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []*Session{s}, nil
}

// Delete removes the file when it holds username's session
func (f *FileStore) Delete(username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.read()
	if err != nil {
		return err
	}
	if s.Username != username {
		return ErrSessionNotFound
	}
	return os.Remove(f.path)
}

// Exists reports whether the file holds username's session
func (f *FileStore) Exists(username string) bool {
	s, err := f.Retrieve(username)
	return err == nil && s != nil
}

func (f *FileStore) read() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if s.Username == "" {
		return nil, ErrInvalidSession
	}
	return &s, nil
}
