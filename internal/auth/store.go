package auth

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
)

// TokenKey is the single key under which the credential is persisted.
const TokenKey = "token"

// TokenStore holds at most one bearer token.
//
// Implementations must be safe for concurrent use. Remove on an empty
// store is not an error.
type TokenStore interface {
	// Token returns the stored token, or "" when none is stored.
	Token() (string, error)

	// SetToken replaces the stored token.
	SetToken(token string) error

	// Remove deletes the stored token.
	Remove() error
}

// MemoryStore keeps the token in process memory.
//
// Used for tests and for runs configured without a token file.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Token returns the stored token.
func (m *MemoryStore) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// SetToken replaces the stored token.
func (m *MemoryStore) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Remove clears the stored token.
func (m *MemoryStore) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// FileStore persists the token as {"token": "..."} in a 0600 file.
//
// The file is removed wholesale on Remove.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by path. The file is created lazily.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

// Token reads the stored token.
func (f *FileStore) Token() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", WrapError(ErrStoreRead, "failed to read token file", err, map[string]interface{}{
			"path": f.path,
		})
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", WrapError(ErrStoreCorrupt, "token file is not valid JSON", err, map[string]interface{}{
			"path": f.path,
		})
	}

	return doc[TokenKey], nil
}

// SetToken writes the token, creating the parent directory if needed.
func (f *FileStore) SetToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return WrapError(ErrStoreWrite, "failed to create token directory", err, map[string]interface{}{
			"path": f.path,
		})
	}

	data, err := json.MarshalIndent(map[string]string{TokenKey: token}, "", "  ")
	if err != nil {
		return WrapError(ErrStoreWrite, "failed to encode token", err, nil)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return WrapError(ErrStoreWrite, "failed to write token file", err, map[string]interface{}{
			"path": f.path,
		})
	}
	return nil
}

// Remove deletes the token file.
func (f *FileStore) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return WrapError(ErrStoreRemove, "failed to remove token file", err, map[string]interface{}{
			"path": f.path,
		})
	}
	return nil
}
