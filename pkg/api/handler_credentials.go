package api

import (
	"encoding/json"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/relayhq/relayd/pkg/credentials"
)

func (s *Server) credentialsStatusHandler(c *echo.Context) error {
	status, err := s.creds.Status()
	if err != nil {
		return mapError(err)
	}
	payload := map[string]any{"available": status.Available}
	if status.Available {
		payload["status"] = map[bool]string{true: "valid", false: "expired"}[status.Valid]
		payload["expires_at"] = status.ExpiresAt
	}
	return c.JSON(http.StatusOK, payload)
}

// credentialsUploadHandler handles POST /api/credentials/upload: a
// multipart form carrying the credentials JSON file under field name
// "file".
func (s *Server) credentialsUploadHandler(c *echo.Context) error {
	file, _, err := c.Request().FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	defer file.Close()

	var req credentials.Credentials
	if err := json.NewDecoder(file).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed credentials JSON")
	}
	if err := s.creds.Upload(req); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "valid"})
}
