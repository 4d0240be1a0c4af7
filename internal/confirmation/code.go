// Package confirmation recognizes, normalizes and mints booking confirmation
// codes of the form AC followed by twelve upper-case alphanumerics.
package confirmation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// Prefix is carried by every normalized code.
const Prefix = "AC"

// BodyLength is the number of alphanumerics after the prefix.
const BodyLength = 12

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	prefixedPattern = regexp.MustCompile(`^AC[A-Z0-9]{12}$`)
	barePattern     = regexp.MustCompile(`^[A-Z0-9]{12}$`)
	wordRunPattern  = regexp.MustCompile(`\b(?:AC)?([A-Z0-9]{12})\b`)
	anyRunPattern   = regexp.MustCompile(`(?:AC)?([A-Z0-9]{12})`)
)

// LooksLikeCode reports whether text is a code with or without its prefix.
func LooksLikeCode(text string) bool {
	candidate := canonical(text)
	return prefixedPattern.MatchString(candidate) || barePattern.MatchString(candidate)
}

// Normalize returns the prefixed form of the first code found in text.
// When nothing resembling a code is present the upper-cased, trimmed input is
// returned unchanged so the caller surfaces the miss at lookup time.
func Normalize(text string) string {
	candidate := canonical(text)
	switch {
	case prefixedPattern.MatchString(candidate):
		return candidate
	case barePattern.MatchString(candidate):
		return Prefix + candidate
	}
	if m := wordRunPattern.FindStringSubmatch(candidate); m != nil {
		return Prefix + m[1]
	}
	if m := anyRunPattern.FindStringSubmatch(candidate); m != nil {
		return Prefix + m[1]
	}
	return candidate
}

// Generate mints a fresh prefixed code from crypto/rand.
func Generate() (string, error) {
	var b strings.Builder
	b.Grow(len(Prefix) + BodyLength)
	b.WriteString(Prefix)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < BodyLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("confirmation: generate code: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

func canonical(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}
