// internal/domain/session/token_store.go
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TokenStore is the persistence capability for the session token. It is the
// only client-side state that survives restarts.
type TokenStore interface {
	Save(token string, expiresAt time.Time) error
	Load() (string, error)
	Clear() error
}

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"` // for diagnostics; claims govern validity
}

// FileTokenStore persists the token as a JSON file with owner-only permissions
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a file-backed token store at the given path
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Save writes the token file, creating parent directories as needed
func (f *FileTokenStore) Save(token string, expiresAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(tokenFile{AccessToken: token, ExpiresAt: expiresAt}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Load returns the persisted token, or empty when none is stored
func (f *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("failed to decode token file: %w", err)
	}
	return tf.AccessToken, nil
}

// Clear removes the token file; missing files are not an error
func (f *FileTokenStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
