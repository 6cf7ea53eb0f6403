package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayhq/relayd/pkg/apperr"
)

func TestVerifyGithubAcceptsValidSignature(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{"action":"opened"}`)
	sig := "sha256=" + hmacHex(secret, body)
	require.NoError(t, VerifyGithub(secret, sig, body))
}

func TestVerifyGithubRejectsBadSignature(t *testing.T) {
	err := VerifyGithub("s3cret", "sha256=deadbeef", []byte(`{}`))
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestVerifyGithubRejectsMissingPrefix(t *testing.T) {
	err := VerifyGithub("s3cret", hmacHex("s3cret", []byte(`{}`)), []byte(`{}`))
	require.Error(t, err)
}

func TestVerifySlackAcceptsWithinReplayWindow(t *testing.T) {
	secret := "s3cret"
	body := []byte(`payload=1`)
	now := time.Unix(1_700_000_000, 0)
	ts := fmt.Sprintf("%d", now.Add(-replayWindow).Unix()) // exactly at the boundary
	base := fmt.Sprintf("v0:%s:%s", ts, body)
	sig := "v0=" + hmacHex(secret, []byte(base))
	require.NoError(t, VerifySlack(secret, sig, ts, body, now))
}

func TestVerifySlackRejectsJustOutsideReplayWindow(t *testing.T) {
	secret := "s3cret"
	body := []byte(`payload=1`)
	now := time.Unix(1_700_000_000, 0)
	ts := fmt.Sprintf("%d", now.Add(-replayWindow-time.Second).Unix())
	base := fmt.Sprintf("v0:%s:%s", ts, body)
	sig := "v0=" + hmacHex(secret, []byte(base))
	err := VerifySlack(secret, sig, ts, body, now)
	require.Error(t, err)
}

func TestVerifySentryPlainHMAC(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{"id":"1"}`)
	sig := hmacHex(secret, body)
	require.NoError(t, VerifySentry(secret, sig, body))
}

func TestVerifyJiraJWTRoundTrip(t *testing.T) {
	secret := "s3cret"
	header := base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64URLEncode([]byte(`{"iss":"jira"}`))
	signingInput := header + "." + payload
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signingInput))
	sig := base64URLEncode(mac.Sum(nil))
	token := signingInput + "." + sig
	require.NoError(t, VerifyJiraJWT(secret, token))
}

func TestVerifyJiraJWTRejectsTamperedPayload(t *testing.T) {
	secret := "s3cret"
	header := base64URLEncode([]byte(`{"alg":"HS256"}`))
	payload := base64URLEncode([]byte(`{"iss":"jira"}`))
	sig := base64URLEncode(hmacSumRaw(secret, header+"."+payload))
	tamperedPayload := base64URLEncode([]byte(`{"iss":"attacker"}`))
	token := header + "." + tamperedPayload + "." + sig
	require.Error(t, VerifyJiraJWT(secret, token))
}

func hmacSumRaw(secret, signingInput string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signingInput))
	return mac.Sum(nil)
}

func TestHmacHexIsHex(t *testing.T) {
	out := hmacHex("k", []byte("v"))
	_, err := hex.DecodeString(out)
	require.NoError(t, err)
}
