package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	credentialsFileMode = 0o600
	credentialsDirMode  = 0o700
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the credential pair in a JSON file, conventionally under the
// user config directory (~/.config/gestion/credentials.json on Linux). Writes
// go through a temp file and rename so a crash never leaves a half-written
// pair behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultCredentialsPath returns the conventional credential file location for
// the current user.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "gestion", "credentials.json"), nil
}

func (fs *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		return nil, ErrNoCredentials
	}
	return &creds, nil
}

func (fs *FileStore) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), credentialsDirMode); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, credentialsFileMode); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("replace credentials file: %w", err)
	}
	return nil
}

func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials file: %w", err)
	}
	return nil
}
