// Package textnorm normalizes element text content for semantic
// extraction and matching: Unicode NFC normalization, whitespace
// collapsing, and length capping so near-identical strings compare
// equal and pathological text content can't blow up downstream
// similarity computations.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxLength is the cap applied to normalized text before a truncation
// marker is appended.
const MaxLength = 100

// TruncationMarker is appended to text cut off at MaxLength.
const TruncationMarker = "…" // "…"

// Normalize applies NFC normalization, collapses runs of whitespace
// (including newlines and tabs) to a single space, trims leading and
// trailing space, and caps the result to MaxLength runes.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = collapseWhitespace(s)
	s = strings.TrimSpace(s)
	return truncate(s)
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxLength {
		return s
	}
	return string(runes[:MaxLength]) + TruncationMarker
}

// Compact produces a lowercase, whitespace-free form of s suitable for
// cheap equality probes (e.g. "Sign Up" and "sign-up" both normalize
// toward "signup"-style forms once classifiers strip punctuation); it
// does not itself strip punctuation, only case and whitespace.
func Compact(s string) string {
	s = Normalize(s)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, " ", "")
}

// Empty reports whether s normalizes to nothing, i.e. is entirely
// whitespace or empty.
func Empty(s string) bool {
	return Normalize(s) == ""
}
