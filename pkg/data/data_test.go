package data

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestSanitizeAnswer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"tasks": ["a"]}`, `{"tasks": ["a"]}`},
		{"wrapped", "Sure!\n```json\n{\"command\": \"ls\"}\n```", `{"command": "ls"}`},
		{"nested", `Action Input: {"a": {"b": 1}, "c": 2} trailing`, `{"a": {"b": 1}, "c": 2}`},
		{"brace in string", `{"text": "a } b {"}`, `{"text": "a } b {"}`},
		{"escaped quote", `{"text": "say \"}\""}`, `{"text": "say \"}\""}`},
		{"unbalanced first", `{ broken and then {"ok": true}`, `{"ok": true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeAnswer(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeAnswer_NoObject(t *testing.T) {
	_, err := SanitizeAnswer("no json here")
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestBudget_TruncateChars(t *testing.T) {
	b := Budget{MaxChars: 10}

	out, cut := b.Truncate(strings.Repeat("x", 25))
	assert.True(t, cut)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("x", 10)+"\n"))
	assert.Contains(t, out, "truncated 15 of 25 characters")

	out, cut = b.Truncate("short")
	assert.False(t, cut)
	assert.Equal(t, "short", out)
}

func TestBudget_TruncateTokens(t *testing.T) {
	b := Budget{MaxTokens: 2, Tokenizer: ApproxTokenizer()}

	out, cut := b.Truncate("abcdefghijkl")
	assert.True(t, cut)
	assert.True(t, strings.HasPrefix(out, "abcdefgh\n"))
}

func TestTruncate_RuneSafe(t *testing.T) {
	assert.Equal(t, "héł", Truncate("héłło", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
