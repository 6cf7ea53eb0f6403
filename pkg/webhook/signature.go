package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relayhq/relayd/pkg/apperr"
)

func base64URLEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// replayWindow is the slack (and equivalents) signature replay
// rejection window.
const replayWindow = 5 * time.Minute

// VerifyGithub checks X-Hub-Signature-256 (sha256= prefix, hex HMAC
// over the raw body).
func VerifyGithub(secret, header string, body []byte) error {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return apperr.New(apperr.KindUnauthorized, "missing sha256= signature prefix")
	}
	expected := hmacHex(secret, body)
	if !hmac.Equal([]byte(header[len(prefix):]), []byte(expected)) {
		return apperr.New(apperr.KindUnauthorized, "signature mismatch")
	}
	return nil
}

// VerifySlack checks X-Slack-Signature over "v0:<timestamp>:<body>",
// rejecting requests where the timestamp is more than replayWindow
// away from now.
func VerifySlack(secret, header, timestampHeader string, body []byte, now time.Time) error {
	const prefix = "v0="
	if !strings.HasPrefix(header, prefix) {
		return apperr.New(apperr.KindUnauthorized, "missing v0= signature prefix")
	}
	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return apperr.New(apperr.KindUnauthorized, "invalid timestamp header")
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > replayWindow {
		return apperr.New(apperr.KindUnauthorized, "request timestamp outside replay window")
	}
	base := fmt.Sprintf("v0:%s:%s", timestampHeader, body)
	expected := prefix + hmacHex(secret, []byte(base))
	if !hmac.Equal([]byte(header), []byte(expected)) {
		return apperr.New(apperr.KindUnauthorized, "signature mismatch")
	}
	return nil
}

// VerifySentry checks Sentry-Hook-Signature (hex HMAC over the raw
// body, no prefix).
func VerifySentry(secret, header string, body []byte) error {
	expected := hmacHex(secret, body)
	if !hmac.Equal([]byte(header), []byte(expected)) {
		return apperr.New(apperr.KindUnauthorized, "signature mismatch")
	}
	return nil
}

// VerifyJiraHMAC checks a configured header against a plain HMAC of
// the raw body — jira's verification scheme is operator-configured
//;
// JWT validation is handled by VerifyJiraJWT below when configured.
func VerifyJiraHMAC(secret, header string, body []byte) error {
	expected := hmacHex(secret, body)
	if !hmac.Equal([]byte(header), []byte(expected)) {
		return apperr.New(apperr.KindUnauthorized, "signature mismatch")
	}
	return nil
}

// VerifyJiraJWT verifies an HS256-signed JWT's signature (the `iss`/
// `exp` claims are the caller's concern; this only authenticates the
// token came from the configured secret holder).
func VerifyJiraJWT(secret, token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return apperr.New(apperr.KindUnauthorized, "malformed jwt")
	}
	signingInput := parts[0] + "." + parts[1]
	expected := base64URLHMAC(secret, signingInput)
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return apperr.New(apperr.KindUnauthorized, "jwt signature mismatch")
	}
	return nil
}

func base64URLHMAC(secret, signingInput string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signingInput))
	return base64URLEncode(mac.Sum(nil))
}

func hmacHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
