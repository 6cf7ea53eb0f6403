package api

import "testing"

func TestAtoiOr(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		fallback int
		want     int
	}{
		{"empty uses fallback", "", 50, 50},
		{"valid int parsed", "7", 50, 7},
		{"non-numeric uses fallback", "abc", 50, 50},
		{"negative is parsed verbatim, not clamped here", "-1", 50, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := atoiOr(tt.in, tt.fallback); got != tt.want {
				t.Errorf("atoiOr(%q, %d) = %d, want %d", tt.in, tt.fallback, got, tt.want)
			}
		})
	}
}
