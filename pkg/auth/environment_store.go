package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads a session cookie pair from the environment.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported
func (e *EnvironmentStore) Store(session *Session) error {
	return ErrStoreUnavailable
}

// Retrieve builds a session from IGRELATIONS_SESSION_ID and
// IGRELATIONS_CSRF_TOKEN. The username comes from ACCOUNT_USERNAME and must
// match the requested one when both are set.
func (e *EnvironmentStore) Retrieve(username string) (*Session, error) {
	sessionID := os.Getenv("IGRELATIONS_SESSION_ID")
	csrfToken := os.Getenv("IGRELATIONS_CSRF_TOKEN")
	if sessionID == "" || csrfToken == "" {
		return nil, ErrSessionNotFound
	}

	envUser := os.Getenv("ACCOUNT_USERNAME")
	switch {
	case username == "" && envUser == "":
		username = "default"
	case username == "":
		username = envUser
	case envUser != "" && envUser != username:
		return nil, ErrSessionNotFound
	}

	return &Session{
		Username:     username,
		SessionID:    sessionID,
		CSRFToken:    csrfToken,
		DSUserID:     os.Getenv("IGRELATIONS_DS_USER_ID"),
		UserAgent:    os.Getenv("IGRELATIONS_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns the environment session if one is set
func (e *EnvironmentStore) List() ([]*Session, error) {
	s, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{s}, nil
}

// Delete is not supported
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists reports whether a session for username can be built
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
