// Package match holds the policies used to compare an actual invocation with
// a registered expectation.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Type is a match policy.
type Type int

const (
	// Exact requires the trimmed values to be equal.
	Exact Type = iota
	// Partial requires the actual value to start with the expected one.
	Partial
	// Regex treats the expected value as a regular expression that must match
	// at the start of the actual value.
	Regex
)

var (
	// ErrInvalidRegex is returned when a Regex policy carries a pattern that
	// doesn't compile.
	ErrInvalidRegex = errors.New("invalid regex")

	// ErrUnknownType is returned when parsing an unknown policy name.
	ErrUnknownType = errors.New("unknown match type")
)

var typeNames = map[Type]string{
	Exact:   "exact",
	Partial: "partial",
	Regex:   "regex",
}

// Types lists the textual names of all policies.
func Types() []string {
	return []string{typeNames[Exact], typeNames[Partial], typeNames[Regex]}
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Parse converts a policy name into a Type.
func Parse(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return Exact, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownType, name, strings.Join(Types(), ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	name, ok := typeNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Validate checks that expected can be used with the policy.
func (t Type) Validate(expected string) error {
	switch t {
	case Exact, Partial:
		return nil
	case Regex:
		_, err := compile(expected)
		return err
	default:
		return fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
}

// Matches reports whether actual satisfies expected under the policy.
func (t Type) Matches(actual, expected string) (bool, error) {
	switch t {
	case Exact:
		return strings.TrimSpace(actual) == strings.TrimSpace(expected), nil
	case Partial:
		return strings.HasPrefix(actual, expected), nil
	case Regex:
		re, err := compile(expected)
		if err != nil {
			return false, err
		}
		return re.MatchString(actual), nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
}

var (
	regexCacheMu sync.Mutex
	regexCache   = make(map[string]*regexp.Regexp)
)

// compile anchors the pattern at the start of the input only, a trailing
// match is not required.
func compile(pattern string) (*regexp.Regexp, error) {
	regexCacheMu.Lock()
	defer regexCacheMu.Unlock()

	if re, ok := regexCache[pattern]; ok {
		return re, nil
	}

	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRegex, pattern, err)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRegex, pattern, err)
	}
	regexCache[pattern] = re
	return re, nil
}
