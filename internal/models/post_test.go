package models

import (
	"strings"
	"testing"
)

func TestPostSnippet(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short text unchanged", "hello world", "hello world"},
		{"exactly fifty runes", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"long text truncated", strings.Repeat("a", 51), strings.Repeat("a", 50) + "..."},
		{"multibyte runes counted as runes", strings.Repeat("й", 60), strings.Repeat("й", 50) + "..."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{Text: tt.text}
			if got := p.Snippet(); got != tt.want {
				t.Errorf("Snippet() = %q, want %q", got, tt.want)
			}
		})
	}
}
