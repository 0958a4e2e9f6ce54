// credentials.go - Local persistence of the doctor's token pair so a
// restart resumes the session. Plain JSON files, owner-readable only.

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Credentials is the persisted token set.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	CSRF    string `json:"csrf_token"`
}

// CredentialsRepository stores credentials under the data directory.
type CredentialsRepository struct {
	file string
}

// NewCredentialsRepository creates a repository rooted at dir.
func NewCredentialsRepository(dir string) *CredentialsRepository {
	return &CredentialsRepository{file: filepath.Join(dir, "credentials.json")}
}

// Load returns the stored credentials, or nil when none are saved.
func (r *CredentialsRepository) Load() (*Credentials, error) {
	data, err := os.ReadFile(r.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Save writes the credentials with owner-only permissions.
func (r *CredentialsRepository) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(r.file), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.file, data, 0600)
}

// Clear removes stored credentials. Missing file is not an error.
func (r *CredentialsRepository) Clear() error {
	if err := os.Remove(r.file); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
