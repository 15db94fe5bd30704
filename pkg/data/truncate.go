package data

import (
	"fmt"
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
	"unicode/utf8"
)

const truncatedMarker = "\n...[truncated %d of %d characters]"

// Tokenizer counts and clips text in model tokens.
type Tokenizer interface {
	Count(s string) int
	Clip(s string, max int) string
}

// Budget bounds text placed back into a prompt. A zero field disables that bound.
type Budget struct {
	MaxChars  int
	MaxTokens int
	Tokenizer Tokenizer
}

// Truncate applies the character bound, then the token bound, and appends a marker when anything was cut.
func (b Budget) Truncate(s string) (string, bool) {
	total := utf8.RuneCountInString(s)
	out := s
	if b.MaxChars > 0 && total > b.MaxChars {
		out = clipRunes(out, b.MaxChars)
	}
	if b.MaxTokens > 0 && b.Tokenizer != nil && b.Tokenizer.Count(out) > b.MaxTokens {
		out = b.Tokenizer.Clip(out, b.MaxTokens)
	}
	if len(out) == len(s) {
		return s, false
	}
	return out + fmt.Sprintf(truncatedMarker, total-utf8.RuneCountInString(out), total), true
}

// Truncate cuts s to at most max characters without a marker.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return clipRunes(s, max)
}

func clipRunes(s string, max int) string {
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

type tiktokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t tiktokenizer) Count(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}

func (t tiktokenizer) Clip(s string, max int) string {
	tokens := t.enc.Encode(s, nil, nil)
	if len(tokens) <= max {
		return s
	}
	return t.enc.Decode(tokens[:max])
}

// approxTokenizer assumes four characters per token.
type approxTokenizer struct{}

func (approxTokenizer) Count(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

func (approxTokenizer) Clip(s string, max int) string {
	return clipRunes(s, max*4)
}

// NewTokenizer loads a tiktoken encoding such as cl100k_base. Encodings are fetched on first use,
// so offline hosts fall back to a character estimate. "" and "approx" skip tiktoken entirely.
func NewTokenizer(encoding string) Tokenizer {
	if encoding == "" || encoding == "approx" {
		return approxTokenizer{}
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		log.Warn().Err(err).Str("encoding", encoding).Msg("tiktoken unavailable, estimating tokens")
		return approxTokenizer{}
	}
	return tiktokenizer{enc: enc}
}

func ApproxTokenizer() Tokenizer {
	return approxTokenizer{}
}
