// Package slug derives URL-safe identifiers from article titles.
//
// A slug is a DERIVED field: computed from the title whenever we need it,
// never written to the database. That keeps it a pure function with no
// store access, which in turn makes it trivially property-testable.
//
// The cost of not persisting: slugs are not guaranteed unique, and editing
// a title changes the slug. Both are accepted — the canonical article URL
// uses the id, the slug is cosmetic.
package slug

import (
	"strings"
	"unicode"
)

// Make converts a title into a slug.
//
// Transformation, in order:
//  1. lowercase
//  2. collapse every run of whitespace into a single hyphen
//  3. drop any rune outside [a-z0-9-]
//
// The order matters: stripping happens AFTER the whitespace pass, so a
// symbol standing between two spaces leaves both hyphens behind —
// "Tips & Tricks" → "tips--tricks", not "tips-tricks". Collapsing is for
// whitespace runs only, never for hyphens.
//
// Make is total: every input (including "") produces some string, possibly
// empty. It is also idempotent — Make(Make(s)) == Make(s) — because its
// output alphabet is a fixed point of the transformation.
//
// Example: "Hello, World! 2024" → "hello-world-2024"
func Make(s string) string {
	s = strings.ToLower(s)

	// Pass 1: every whitespace run becomes exactly one hyphen.
	var spaced strings.Builder
	spaced.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inRun {
				spaced.WriteByte('-')
				inRun = true
			}
			continue
		}
		inRun = false
		spaced.WriteRune(r)
	}

	// Pass 2: keep only the slug alphabet. Punctuation, symbols and
	// non-ASCII letters vanish; hyphens from pass 1 survive untouched.
	var b strings.Builder
	b.Grow(spaced.Len())
	for _, r := range spaced.String() {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
