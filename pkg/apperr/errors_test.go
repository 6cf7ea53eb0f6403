package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKind_Status(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalid, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindBackend, http.StatusInternalServerError},
		{KindExternal, http.StatusBadGateway},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s.Status() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	wrapped := Wrap(KindConflict, "task id already exists", fmt.Errorf("unique violation"))
	if got := KindOf(wrapped); got != KindConflict {
		t.Errorf("KindOf(wrapped) = %s, want conflict", got)
	}

	plain := errors.New("boom")
	if got := KindOf(plain); got != KindUnknown {
		t.Errorf("KindOf(plain) = %s, want unknown", got)
	}

	if got := KindOf(fmt.Errorf("outer: %w", wrapped)); got != KindConflict {
		t.Errorf("KindOf should unwrap through fmt.Errorf wrapping, got %s", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindBackend, "ping", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if err.Error() != "ping: connection refused" {
		t.Errorf("Error() = %q, want %q", err.Error(), "ping: connection refused")
	}
}

func TestNew_HasNoCause(t *testing.T) {
	err := New(KindInvalid, "bad input")
	if err.Error() != "bad input" {
		t.Errorf("Error() = %q, want %q", err.Error(), "bad input")
	}
	if err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
	}
}
