// Package client is a Go wrapper around the ProfHack REST API. It covers
// the same surface the web frontend uses: auth, profile, teams with their
// eligibility-rule errors, invitations, notifications and submissions.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CanonicalTokenKey is the single storage key new tokens are written under.
// Earlier frontend builds stored the token under "token" or "authToken";
// those keys are still read for migration and removed on Clear.
const CanonicalTokenKey = "profhack_token"

var legacyTokenKeys = []string{"token", "authToken"}

// ErrNoToken means the store holds no credential at all.
var ErrNoToken = errors.New("client: no stored token")

// CredentialStore holds the bearer token between requests. Implementations
// must be safe for concurrent use.
type CredentialStore interface {
	// Token returns the stored bearer token, migrating any legacy key to
	// the canonical one. Returns ErrNoToken when nothing is stored.
	Token() (string, error)
	SetToken(token string) error
	// Clear removes the canonical key and every known legacy key.
	Clear() error
}

// MemoryStore keeps tokens in process memory. The zero value is usable.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// Seed stores a raw key/value pair, bypassing migration. Intended for
// loading state captured from an older client.
func (s *MemoryStore) Seed(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
}

func (s *MemoryStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return migrateToken(s.values)
}

func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[CanonicalTokenKey] = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clearTokens(s.values)
	return nil
}

// FileStore persists tokens as a JSON object in a single file, so a CLI
// session survives restarts. The file is created with 0600 permissions.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}

	token, err := migrateToken(values)
	if err != nil {
		return "", err
	}

	// Migration may have rewritten keys; persist the canonical layout.
	if err := s.save(values); err != nil {
		return "", err
	}
	return token, nil
}

func (s *FileStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[CanonicalTokenKey] = token
	return s.save(values)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	clearTokens(values)
	return s.save(values)
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("client: failed to read token file: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("client: failed to parse token file %s: %w", s.path, err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("client: failed to encode token file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("client: failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("client: failed to write token file: %w", err)
	}
	return nil
}

// migrateToken returns the stored token, preferring the canonical key and
// falling back to legacy keys in order. A token found under a legacy key is
// moved to the canonical key and the legacy keys are dropped.
func migrateToken(values map[string]string) (string, error) {
	if token, ok := values[CanonicalTokenKey]; ok && token != "" {
		return token, nil
	}
	for _, key := range legacyTokenKeys {
		token, ok := values[key]
		if !ok || token == "" {
			continue
		}
		values[CanonicalTokenKey] = token
		for _, legacy := range legacyTokenKeys {
			delete(values, legacy)
		}
		return token, nil
	}
	return "", ErrNoToken
}

func clearTokens(values map[string]string) {
	delete(values, CanonicalTokenKey)
	for _, key := range legacyTokenKeys {
		delete(values, key)
	}
}
