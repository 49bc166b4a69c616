package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnique(t *testing.T) {
	tests := []struct {
		name  string
		input string
		taken []string
		want  string
	}{
		{name: "free name kept", input: "a.txt", want: "a.txt"},
		{name: "first collision", input: "a.txt", taken: []string{"a.txt"}, want: "a (1).txt"},
		{name: "second collision", input: "a.txt", taken: []string{"a.txt", "a (1).txt"}, want: "a (2).txt"},
		{name: "no extension", input: "dir", taken: []string{"dir"}, want: "dir (1)"},
		{name: "dotfile keeps whole name as base", input: ".env", taken: []string{".env"}, want: ".env (1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taken := make(map[string]bool)
			for _, n := range tt.taken {
				taken[n] = true
			}
			assert.Equal(t, tt.want, Unique(tt.input, taken))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("report.pdf"))
	assert.False(t, Valid(""))
	assert.False(t, Valid(".."))
	assert.False(t, Valid("a/b"))
}
