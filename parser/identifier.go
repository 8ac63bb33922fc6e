package parser

import (
	"fmt"
	"strings"
)

// unsafeNameChars replaces characters that cannot appear in a file name
var unsafeNameChars = strings.NewReplacer(
	"/", "_",
	":", "",
	" ", "_",
	"\n", "_",
	"\r", "",
	"\t", "_",
)

// BuildIdentifier builds the candidate identifier "<date>-<title>".
// The title is trimmed and cut to limit runes when limit > 0.
func BuildIdentifier(date, title string, limit int) string {
	title = strings.TrimSpace(title)
	if limit > 0 {
		runes := []rune(title)
		if len(runes) > limit {
			title = string(runes[:limit])
		}
	}
	return unsafeNameChars.Replace(date + "-" + title)
}

// IdentifierSet hands out identifiers that are unique within one keyword pass.
// Matching is exact, so "a-b" and "a-bc" never collide.
type IdentifierSet struct {
	seen map[string]struct{}
}

// NewIdentifierSet creates an empty set
func NewIdentifierSet() *IdentifierSet {
	return &IdentifierSet{seen: make(map[string]struct{})}
}

// Claim reserves base, or base-1, base-2 ... whichever is free first
func (s *IdentifierSet) Claim(base string) string {
	candidate := base
	for counter := 1; s.Has(candidate); counter++ {
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
	s.seen[candidate] = struct{}{}
	return candidate
}

// Has reports whether id was already claimed
func (s *IdentifierSet) Has(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of claimed identifiers
func (s *IdentifierSet) Len() int {
	return len(s.seen)
}
