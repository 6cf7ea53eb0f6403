package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayhq/relayd/pkg/credentials"
)

func newMultipartCredentials(t *testing.T, creds credentials.Credentials) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "credentials.json")
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(part).Encode(creds))
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestCredentialsStatusHandler_NoFileYetIsUnavailable(t *testing.T) {
	s := &Server{creds: credentials.New(filepath.Join(t.TempDir(), "creds.json"))}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/credentials/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.credentialsStatusHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":false`)
}

func TestCredentialsUploadHandler_MissingFileField(t *testing.T) {
	s := &Server{creds: credentials.New(filepath.Join(t.TempDir(), "creds.json"))}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/credentials/upload", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := s.credentialsUploadHandler(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCredentialsUploadHandler_RejectsExpiredCredentials(t *testing.T) {
	s := &Server{creds: credentials.New(filepath.Join(t.TempDir(), "creds.json"))}

	body, contentType := newMultipartCredentials(t, credentials.Credentials{
		AccessToken:  "access-token-long-enough",
		RefreshToken: "refresh-token-long-enough",
		ExpiresAtMS:  time.Now().Add(-time.Hour).UnixMilli(),
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/credentials/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := s.credentialsUploadHandler(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCredentialsUploadHandler_ValidCredentialsRoundTrip(t *testing.T) {
	s := &Server{creds: credentials.New(filepath.Join(t.TempDir(), "creds.json"))}

	body, contentType := newMultipartCredentials(t, credentials.Credentials{
		AccessToken:  "access-token-long-enough",
		RefreshToken: "refresh-token-long-enough",
		ExpiresAtMS:  time.Now().Add(time.Hour).UnixMilli(),
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/credentials/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.credentialsUploadHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	status, err := s.creds.Status()
	require.NoError(t, err)
	assert.True(t, status.Available)
	assert.True(t, status.Valid)
}
