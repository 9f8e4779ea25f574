// Package auth manages session credentials: the bearer token and user ID
// written at login, read by every outbound request, and destroyed at logout.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// Source provides the current session credentials. Components receive a
// Source instead of reaching into ambient storage; a missing session is
// reported as domain.ErrUnauthenticated, never a panic.
type Source interface {
	Credentials() (domain.Credentials, error)
}

// FileStore persists credentials as a JSON file under the user's home
// directory. Reads are concurrent-safe; writes happen only at login/logout.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultCredentialsPath returns ~/.taskdeck/credentials.json.
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./taskdeck-credentials.json"
	}
	return filepath.Join(home, ".taskdeck", "credentials.json")
}

// Credentials loads the stored credentials. Returns
// domain.ErrUnauthenticated if no session exists or the stored record is
// incomplete.
func (s *FileStore) Credentials() (domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.Credentials{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read credentials file: %w", err)
	}

	var creds domain.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("parse credentials file: %w", err)
	}
	if !creds.Valid() {
		return domain.Credentials{}, domain.ErrUnauthenticated
	}
	return creds, nil
}

// Save writes credentials to disk, creating the parent directory if needed.
// The file is written 0600: it holds a bearer token.
func (s *FileStore) Save(creds domain.Credentials) error {
	if !creds.Valid() {
		return fmt.Errorf("refusing to save incomplete credentials")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is not an
// error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials file: %w", err)
	}
	return nil
}

// StaticSource is a Source with fixed credentials, used in tests and by
// components that already hold a session.
type StaticSource struct {
	Creds domain.Credentials
}

// Credentials returns the fixed credentials, or domain.ErrUnauthenticated
// if they are incomplete.
func (s StaticSource) Credentials() (domain.Credentials, error) {
	if !s.Creds.Valid() {
		return domain.Credentials{}, domain.ErrUnauthenticated
	}
	return s.Creds, nil
}
