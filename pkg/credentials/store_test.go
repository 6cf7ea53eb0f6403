package credentials

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusWithNoFileIsUnavailable(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.json"))
	status, err := s.Status()
	require.NoError(t, err)
	assert.False(t, status.Available)
}

func TestUploadRejectsExpiredCredentials(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "creds.json"))
	err := s.Upload(Credentials{
		AccessToken:  "access-token-long-enough",
		RefreshToken: "refresh-token-long-enough",
		ExpiresAtMS:  time.Now().Add(-1 * time.Millisecond).UnixMilli(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestUploadRejectsShortTokens(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "creds.json"))
	err := s.Upload(Credentials{
		AccessToken:  "short",
		RefreshToken: "refresh-token-long-enough",
		ExpiresAtMS:  time.Now().Add(2 * time.Hour).UnixMilli(),
	})
	require.Error(t, err)
}

func TestUploadThenStatusReportsValid(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "creds.json"))
	err := s.Upload(Credentials{
		AccessToken:  "access-token-long-enough",
		RefreshToken: "refresh-token-long-enough",
		ExpiresAtMS:  time.Now().Add(2 * time.Hour).UnixMilli(),
	})
	require.NoError(t, err)

	status, err := s.Status()
	require.NoError(t, err)
	assert.True(t, status.Available)
	assert.True(t, status.Valid)
}
