// preferences.go - UI preferences that survive restarts: clock format and
// the last open chat session.

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Preferences is the persisted UI state.
type Preferences struct {
	Clock24     bool   `json:"clock_24"`
	LastSession string `json:"last_session,omitempty"`
}

// PreferencesRepository stores preferences under the data directory.
type PreferencesRepository struct {
	file string
}

// NewPreferencesRepository creates a repository rooted at dir.
func NewPreferencesRepository(dir string) *PreferencesRepository {
	return &PreferencesRepository{file: filepath.Join(dir, "preferences.json")}
}

// Load returns stored preferences, or the zero value when none exist.
func (r *PreferencesRepository) Load() (Preferences, error) {
	var prefs Preferences
	data, err := os.ReadFile(r.file)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return prefs, err
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}

// Save writes the preferences.
func (r *PreferencesRepository) Save(prefs Preferences) error {
	if err := os.MkdirAll(filepath.Dir(r.file), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.file, data, 0644)
}
