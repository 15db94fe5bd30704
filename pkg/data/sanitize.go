package data

import (
	"errors"
	"strings"
)

var ErrNoObject = errors.New("error sanitizing answer")

// SanitizeAnswer returns the first balanced JSON object found in a model answer. Braces inside
// string literals are ignored, so nested objects and values such as "{x}" are kept intact.
func SanitizeAnswer(ans string) (string, error) {
	start := strings.IndexByte(ans, '{')
	for start >= 0 {
		if end := matchBrace(ans[start:]); end > 0 {
			return ans[start : start+end+1], nil
		}
		next := strings.IndexByte(ans[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoObject
}

func matchBrace(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
