// Package namematch decides whether two differently formatted name strings
// denote the same person.
//
// Both checks are pure: they fold case with full Unicode case folding, split
// on any run of whitespace and never touch shared state.
package namematch

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrMissingName is returned when either input is empty after trimming.
	ErrMissingName = errors.New("name is empty")
	// ErrCannotRotate is returned when a candidate name has fewer than two tokens.
	ErrCannotRotate = errors.New("name has fewer than two tokens")
)

// fold normalizes s to NFKC and applies full case folding. A fresh Caser is
// used per call since cases.Caser is not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

func tokens(s string) []string {
	return strings.Fields(fold(s))
}

// TokensEqual reports whether a and b agree on their first and last tokens.
// Middle tokens are ignored, so "Ravi Sharma" matches "Ravi Kumar Sharma".
// The relation is symmetric.
func TokensEqual(a, b string) (bool, error) {
	at, bt := tokens(a), tokens(b)
	if len(at) == 0 || len(bt) == 0 {
		return false, ErrMissingName
	}
	return at[0] == bt[0] && at[len(at)-1] == bt[len(bt)-1], nil
}

// Rotate moves the first token of name to the end, joining tokens with a
// single space. Transcripts print the surname first; rotating restores the
// given-name-first order used by the record.
func Rotate(name string) (string, error) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ErrMissingName
	}
	if len(parts) < 2 {
		return "", ErrCannotRotate
	}
	rotated := append(parts[1:len(parts):len(parts)], parts[0])
	return strings.Join(rotated, " "), nil
}

// RotatedEquals rotates candidate and compares it, case folded, with the
// trimmed form name.
func RotatedEquals(candidate, form string) (bool, error) {
	if strings.TrimSpace(form) == "" {
		return false, ErrMissingName
	}
	rotated, err := Rotate(candidate)
	if err != nil {
		return false, err
	}
	return fold(rotated) == strings.TrimSpace(fold(form)), nil
}
