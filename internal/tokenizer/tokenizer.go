package tokenizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits text into lowercase runs of letters from a fixed alphabet.
// Anything outside the alphabet (digits, punctuation, spaces, foreign
// letters) separates tokens.
type Tokenizer struct {
	letters map[rune]struct{}
}

// New builds a Tokenizer over the runes of alphabet, compared case-insensitively.
func New(alphabet string) *Tokenizer {
	letters := make(map[rune]struct{}, len(alphabet))
	for _, r := range Normalize(alphabet) {
		letters[r] = struct{}{}
	}
	return &Tokenizer{letters: letters}
}

// Normalize lowercases s and composes combining accents (NFC), so that a
// decomposed "é" tokenizes the same as a precomposed one.
func Normalize(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

// Tokenize returns tokens in input order. Empty or letterless input yields nil.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	start := -1
	s := Normalize(text)
	for i, r := range s {
		if _, ok := t.letters[r]; ok {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}
