package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relayhq/relayd/pkg/apperr"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", apperr.New(apperr.KindNotFound, "task not found"), http.StatusNotFound},
		{"invalid", apperr.New(apperr.KindInvalid, "bad input"), http.StatusBadRequest},
		{"conflict", apperr.New(apperr.KindConflict, "already exists"), http.StatusConflict},
		{"backend", apperr.New(apperr.KindBackend, "db down"), http.StatusInternalServerError},
		{"unclassified error masked as internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapError(tt.err)
			assert.Equal(t, tt.wantCode, he.Code)
		})
	}

	t.Run("unclassified error message is not leaked to the client", func(t *testing.T) {
		he := mapError(errors.New("leaked db password in error string"))
		assert.NotContains(t, he.Message, "leaked db password")
	})
}
