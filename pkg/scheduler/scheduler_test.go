package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relayhq/relayd/pkg/credentials"
)

func TestScheduler_StartRegistersJobsAndStopReturns(t *testing.T) {
	creds := credentials.New(filepath.Join(t.TempDir(), "creds.json"))
	s := New(nil, creds, 24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.Len(t, s.cron.Entries(), 2)

	s.Stop()
}

func TestScheduler_CheckCredentialExpiry_NoCredentialsIsANoop(t *testing.T) {
	creds := credentials.New(filepath.Join(t.TempDir(), "creds.json"))
	s := New(nil, creds, 24*time.Hour)

	// No credentials uploaded yet: Status().Available is false, so
	// checkCredentialExpiry must return without touching s.store.
	s.checkCredentialExpiry()
}

func TestScheduler_CheckCredentialExpiry_ExpiringSoonLogsWarning(t *testing.T) {
	creds := credentials.New(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, creds.Upload(credentials.Credentials{
		AccessToken:  "access-token-long-enough",
		RefreshToken: "refresh-token-long-enough",
		ExpiresAtMS:  time.Now().Add(time.Hour).UnixMilli(),
	}))

	s := New(nil, creds, 24*time.Hour)
	s.checkCredentialExpiry()
}
