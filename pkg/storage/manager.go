package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Manager owns the output directory and tracks the files written to it
type Manager struct {
	outputDir string
	written   map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		written:   make(map[string]bool),
	}, nil
}

// OutputName returns "{username}_{slug}.{ext}", with "_{stamp}" before the
// extension when stamp is positive.
func OutputName(username, slug, ext string, stamp int64) string {
	base := slug
	if username = sanitize(username); username != "" {
		base = username + "_" + slug
	}
	if stamp > 0 {
		base = fmt.Sprintf("%s_%d", base, stamp)
	}
	return base + "." + strings.TrimPrefix(ext, ".")
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}

// Path returns the absolute location of name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// WriteFile writes name atomically, streaming its content from write
func (m *Manager) WriteFile(name string, write func(w io.Writer) error) (string, error) {
	filename := m.Path(name)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	err = write(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.written[filename] = true
	m.mu.Unlock()

	return filename, nil
}

// SaveFile copies r into name atomically
func (m *Manager) SaveFile(r io.Reader, name string) (string, error) {
	return m.WriteFile(name, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

// Exists reports whether name is present in the output directory
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Written returns the files written by this manager, sorted
func (m *Manager) Written() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]string, 0, len(m.written))
	for f := range m.written {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
