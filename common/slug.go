package common

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases input and joins its alphanumeric runs with hyphens,
// e.g. "User Story" -> "user-story". The fallback is slugified when input has
// nothing usable.
func Slugify(input, fallback string) (string, error) {
	if slug := slugify(input); slug != "" {
		return slug, nil
	}
	if slug := slugify(fallback); slug != "" {
		return slug, nil
	}
	return "", ErrEmptySlug
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(nonSlugChars.ReplaceAllString(lower, "-"), "-")
}
