// Package knol derives stable identifiers for catalog cards from their content.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/lingodeck/internal/domain"
)

// Normalize joins the card's term, definition and example after lowercasing,
// trimming and normalizing line endings of each.
func Normalize(card domain.Card) string {
	clean := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		return strings.ReplaceAll(p, "\r\n", "\n")
	}

	// Fields are newline-separated so "ab"+"c" and "a"+"bc" differ.
	return strings.Join([]string{
		clean(card.Term),
		clean(card.Definition),
		clean(card.Example),
	}, "\n")
}

// Hash returns the hex SHA-256 of the normalized card.
func Hash(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}

// ID returns the short form of Hash used as a card identifier.
func ID(card domain.Card) string {
	return Hash(card)[:16]
}
