// Package normalize canonicalizes argument and stdin strings so that
// differently quoted but equivalent shell input compares equal.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/anmitsu/go-shlex"
)

// ErrMalformedInput is returned when the input can't be split into shell
// words, e.g. because of an unterminated quote.
var ErrMalformedInput = errors.New("malformed shell input")

var (
	quotedEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	bareEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `'`, `\'`)
)

// Args splits raw using POSIX shell quoting rules and renders the words back
// into a canonical string. Words containing whitespace are double quoted,
// everything else is left bare.
//
// Args is applied to both the registered match values and the actual
// invocation; they only compare equal if both went through it.
func Args(raw string) (string, error) {
	words, err := split(raw)
	if err != nil {
		return "", err
	}
	return Join(words), nil
}

// Pattern splits raw like Args but renders the words without escaping quotes
// or backslashes, so regular expression escapes such as \d survive.
func Pattern(raw string) (string, error) {
	words, err := split(raw)
	if err != nil {
		return "", err
	}
	return join(words, plainQuote), nil
}

// Join renders already split words, like a shim's "$@", into the same form
// Args produces.
func Join(words []string) string {
	return join(words, quote)
}

func split(raw string) ([]string, error) {
	// The tokenizer replaces invalid bytes with U+FFFD, which would make
	// different inputs compare equal.
	if !utf8.ValidString(raw) {
		return nil, fmt.Errorf("%w: %q: invalid UTF-8", ErrMalformedInput, raw)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	tokens, err := shlex.Split(raw, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedInput, raw, err)
	}
	return tokens, nil
}

func join(words []string, quoteWord func(string) string) string {
	var sb strings.Builder
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(quoteWord(word))
	}

	return sb.String()
}

func hasSpace(word string) bool {
	return strings.IndexFunc(word, unicode.IsSpace) >= 0
}

func quote(word string) string {
	if hasSpace(word) {
		return `"` + quotedEscaper.Replace(word) + `"`
	}

	return bareEscaper.Replace(word)
}

func plainQuote(word string) string {
	if hasSpace(word) {
		return `"` + word + `"`
	}
	return word
}
