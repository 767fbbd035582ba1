// Package slug derives URL-safe identifiers from human-readable names.
package slug

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Fallback is used when a name contains no slug-able characters.
const Fallback = "product"

var (
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)
)

// Make lowercases name, drops everything except word characters, whitespace
// and hyphens, collapses whitespace/hyphen runs into one hyphen and trims
// hyphens from both ends.
func Make(name string) string {
	s := strings.ToLower(name)
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Unique returns the base slug of name when free, otherwise the first free
// candidate of base-1, base-2, ...
func Unique(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base := Make(name)
	if base == "" {
		base = Fallback
	}

	candidate := base
	for n := 1; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
