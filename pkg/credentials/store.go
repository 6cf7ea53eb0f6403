// Package credentials manages the single JSON credentials artifact
// the CLI runner authenticates with: an access/refresh
// token pair plus an expiry, persisted at a configured file path and
// read back for the /credentials/status admin endpoint.
package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/relayhq/relayd/pkg/apperr"
)

const minTokenLength = 10

// Credentials is the persisted artifact shape.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAtMS  int64  `json:"expires_at"`
}

func (c Credentials) expiresAt() time.Time {
	return time.UnixMilli(c.ExpiresAtMS)
}

// Status is the summary returned by GET /credentials/status.
type Status struct {
	Available bool      `json:"available"`
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Store persists Credentials as a single JSON file, written
// atomically via a temp-file-then-rename so a crash mid-write never
// leaves a truncated artifact behind.
type Store struct {
	path string
}

// New returns a Store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Status reads the current credentials, if any, and reports whether
// they are present and unexpired.
func (s *Store) Status() (Status, error) {
	creds, err := s.load()
	if err != nil {
		if os.IsNotExist(err) {
			return Status{}, nil
		}
		return Status{}, apperr.Wrap(apperr.KindBackend, "read credentials", err)
	}
	return Status{
		Available: true,
		Valid:     creds.expiresAt().After(time.Now()),
		ExpiresAt: creds.expiresAt(),
	}, nil
}

// Upload validates and persists a new Credentials artifact, rejecting
// short tokens and already-expired expiry timestamps.
func (s *Store) Upload(creds Credentials) error {
	if len(creds.AccessToken) < minTokenLength {
		return apperr.New(apperr.KindInvalid, "access_token is too short")
	}
	if len(creds.RefreshToken) < minTokenLength {
		return apperr.New(apperr.KindInvalid, "refresh_token is too short")
	}
	if !creds.expiresAt().After(time.Now()) {
		return apperr.New(apperr.KindInvalid, "credentials expired")
	}

	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindInvalid, "encode credentials", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return apperr.Wrap(apperr.KindBackend, "create credentials dir", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return apperr.Wrap(apperr.KindBackend, "write credentials", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return apperr.Wrap(apperr.KindBackend, "commit credentials", err)
	}
	return nil
}

func (s *Store) load() (Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
