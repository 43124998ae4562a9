package user

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeEmail produces the case- and diacritic-insensitive lookup key
// for an email address. "José@Example.COM " and "jose@example.com" collapse
// to the same key.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if folded, _, err := transform.String(diacriticStripper, email); err == nil {
		email = folded
	}
	return strings.ToLower(email)
}
