// internal/session/store.go
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name for keyring storage.
	keyringService = "harvest"
	// fallbackDir holds file-based sessions when no keyring is available.
	fallbackDir = ".harvest/sessions"
)

// Cookie is one persisted browser cookie. The field shapes mirror what
// the DevTools protocol reports so state survives a round trip.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// State is the serialized browsing-state blob for one named session. The
// format is owned by this package; callers treat it as opaque.
type State struct {
	Name      string    `json:"name"`
	Site      string    `json:"site"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Store persists session state to the OS keyring, falling back to files
// under the user's home directory when no keyring is reachable
// (CI, containers, headless servers).
type Store struct {
	dir          string
	useFiles     bool
	fileProbeRan bool
}

// NewStore creates a session store rooted at the default directory.
func NewStore() *Store {
	dir := fallbackDir
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, fallbackDir)
	}
	return &Store{dir: dir}
}

// NewFileStore creates a store that always uses the given directory,
// bypassing the keyring. Used by tests and explicit file-backed setups.
func NewFileStore(dir string) *Store {
	return &Store{dir: dir, useFiles: true, fileProbeRan: true}
}

// fileBased decides once whether to bypass the keyring.
func (s *Store) fileBased() bool {
	if s.fileProbeRan {
		return s.useFiles
	}
	s.fileProbeRan = true

	if os.Getenv("CI") != "" || os.Getenv("CODESPACES") != "" {
		s.useFiles = true
		return true
	}

	probe := "_keyring_probe_"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		s.useFiles = true
		return true
	}
	_ = keyring.Delete(keyringService, probe)
	s.useFiles = false
	return false
}

func (s *Store) path(name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Save persists a session state under its name. Losing a session is an
// inconvenience, not data loss, so callers may treat errors as non-fatal.
func (s *Store) Save(state *State) error {
	if state.Name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if s.fileBased() {
		path, err := s.path(state.Name)
		if err != nil {
			return fmt.Errorf("failed to resolve session path: %w", err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("failed to save session file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(keyringService, state.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// Load retrieves a session state by name. Expired sessions are rejected.
func (s *Store) Load(name string) (*State, error) {
	if name == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}

	var raw string
	if s.fileBased() {
		path, err := s.path(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session path: %w", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load session file: %w", err)
		}
		raw = string(data)
	} else {
		data, err := keyring.Get(keyringService, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
		raw = data
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}

	if !state.ExpiresAt.IsZero() && time.Now().After(state.ExpiresAt) {
		return nil, fmt.Errorf("session %q expired", name)
	}

	return &state, nil
}

// Delete removes a stored session. Unknown names are not an error.
func (s *Store) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if s.fileBased() {
		path, err := s.path(name)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete session file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(keyringService, name); err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// List returns the names of stored sessions. Keyring-backed stores keep
// a manifest entry; file-backed stores list the directory.
func (s *Store) List() ([]string, error) {
	if s.fileBased() {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			if os.IsNotExist(err) {
				return []string{}, nil
			}
			return nil, err
		}

		var names []string
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
				names = append(names, strings.TrimSuffix(e.Name(), ".json"))
			}
		}
		return names, nil
	}

	raw, err := keyring.Get(keyringService, "_manifest")
	if err != nil {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	return names, nil
}

// SaveWithManifest saves a session and records it in the keyring
// manifest so List can find it later.
func (s *Store) SaveWithManifest(state *State) error {
	if err := s.Save(state); err != nil {
		return err
	}
	if s.fileBased() {
		return nil
	}
	return s.updateManifest(state.Name, true)
}

// DeleteWithManifest deletes a session and removes its manifest entry.
func (s *Store) DeleteWithManifest(name string) error {
	if err := s.Delete(name); err != nil {
		return err
	}
	if s.fileBased() {
		return nil
	}
	return s.updateManifest(name, false)
}

func (s *Store) updateManifest(name string, add bool) error {
	names, _ := s.List()

	if add {
		found := false
		for _, n := range names {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			names = append(names, name)
		}
	} else {
		kept := names[:0]
		for _, n := range names {
			if n != name {
				kept = append(kept, n)
			}
		}
		names = kept
	}

	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, "_manifest", string(data))
}
