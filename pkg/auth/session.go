package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"igrelations/pkg/models"
)

// Session is an authenticated Instagram session
type Session struct {
	Username      string           `json:"username"`
	UserID        models.AccountID `json:"user_id"`
	SessionID     string           `json:"session_id"`
	CSRFToken     string           `json:"csrf_token"`
	DSUserID      string           `json:"ds_user_id,omitempty"`
	MID           string           `json:"mid,omitempty"`
	Authorization string           `json:"authorization,omitempty"`
	DeviceID      string           `json:"device_id,omitempty"`
	UserAgent     string           `json:"user_agent,omitempty"`
	LastModified  time.Time        `json:"last_modified"`
}

// Valid reports whether the session carries enough to make requests
func (s *Session) Valid() bool {
	return s != nil && s.Username != "" && (s.SessionID != "" || s.Authorization != "")
}

// SessionStore persists sessions by username
type SessionStore interface {
	Store(session *Session) error
	Retrieve(username string) (*Session, error)
	List() ([]*Session, error)
	Delete(username string) error
	Exists(username string) bool
}

// Manager handles session storage with fallback stores
type Manager struct {
	stores []SessionStore
}

// ManagerOptions selects the stores a Manager uses
type ManagerOptions struct {
	// SessionFile, when set, is tried first as a plain JSON session file
	SessionFile string
	// ConfigDir overrides the per-user configuration directory
	ConfigDir string
	// DisableKeyring skips the system keychain
	DisableKeyring bool
}

// NewManager creates a manager trying the session file, the system keyring,
// an encrypted file and finally the environment.
func NewManager(opts ManagerOptions) (*Manager, error) {
	var stores []SessionStore

	if opts.SessionFile != "" {
		stores = append(stores, NewFileStore(opts.SessionFile))
	}

	if !opts.DisableKeyring {
		if ks, err := NewKeyringStore(); err == nil {
			stores = append(stores, ks)
		}
	}

	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := getConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		configDir = dir
	}

	passphrase, err := loadPassphrase(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	encrypted, err := NewEncryptedFileStore(filepath.Join(configDir, "sessions.enc"), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encrypted, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over explicit stores
func NewManagerWithStores(stores ...SessionStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the session in the first store that accepts it
func (m *Manager) Store(session *Session) error {
	if session == nil || session.Username == "" {
		return errors.New("username is required")
	}
	if session.SessionID == "" && session.Authorization == "" {
		return errors.New("session ID or authorization header is required")
	}

	session.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(session)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the session from the first store that has it
func (m *Manager) Retrieve(username string) (*Session, error) {
	for _, store := range m.stores {
		if s, err := store.Retrieve(username); err == nil && s != nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrSessionNotFound, username)
}

// List returns every stored session, newest copy per username, sorted by username
func (m *Manager) List() ([]*Session, error) {
	byUser := make(map[string]*Session)

	for _, store := range m.stores {
		sessions, err := store.List()
		if err != nil {
			continue
		}
		for _, s := range sessions {
			if existing, ok := byUser[s.Username]; !ok || s.LastModified.After(existing.LastModified) {
				byUser[s.Username] = s
			}
		}
	}

	result := make([]*Session, 0, len(byUser))
	for _, s := range byUser {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

// Delete removes the session from every store holding it
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete session: %w", lastErr)
	}
	return fmt.Errorf("%w for user: %s", ErrSessionNotFound, username)
}

func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igrelations")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igrelations")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "igrelations")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igrelations")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeSession returns a copy with secrets masked, for display
func SanitizeSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.SessionID = maskString(s.SessionID)
	out.CSRFToken = maskString(s.CSRFToken)
	out.Authorization = maskString(s.Authorization)
	return &out
}

// maskString keeps the first and last 4 characters of long secrets
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
