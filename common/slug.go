package common

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	nonExtChars  = regexp.MustCompile(`[^a-z0-9]`)
)

const maxSlugLen = 60

func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

// SplitFilename reduces an uploaded file name to a slugged stem and a
// lower-cased extension (with dot). Directory parts are dropped.
func SplitFilename(name string) (stem, ext string) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext = strings.ToLower(filepath.Ext(base))
	ext = nonExtChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	if ext != "" {
		ext = "." + ext
	}
	stem = slugify(strings.TrimSuffix(base, filepath.Ext(base)))
	return stem, ext
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := strings.Trim(nonSlugChars.ReplaceAllString(lower, "-"), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}
