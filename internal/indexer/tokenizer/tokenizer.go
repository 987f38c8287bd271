// Package tokenizer turns field values into normalised search terms and
// splits terms into character n-grams for fuzzy candidate lookup.
package tokenizer

import (
	"strings"
)

// MinTermLength is the shortest term kept by Tokenize.
const MinTermLength = 2

// DefaultNGramSize is the n-gram length used by the fuzzy index.
const DefaultNGramSize = 2

// Token represents a single normalised term and its position in the
// tokenised sequence. Positions count kept tokens only.
type Token struct {
	Term     string
	Position int
}

// Tokenize lower-cases text, treats every character outside [A-Za-z0-9_]
// as a separator and drops terms shorter than MinTermLength.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordChar(r)
	})
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, word := range words {
		if len(word) < MinTermLength {
			continue
		}
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms is Tokenize without positions.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return terms
}

// NGrams returns every contiguous substring of length n of the lower-cased,
// trimmed token, left to right with stride 1. A token shorter than n is its
// own single n-gram.
func NGrams(token string, n int) []string {
	if n <= 0 {
		n = DefaultNGramSize
	}
	s := []rune(strings.TrimSpace(strings.ToLower(token)))
	if len(s) < n {
		return []string{string(s)}
	}
	grams := make([]string, 0, len(s)-n+1)
	for i := 0; i+n <= len(s); i++ {
		grams = append(grams, string(s[i:i+n]))
	}
	return grams
}

// isWordChar mirrors the ASCII \w class.
func isWordChar(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
