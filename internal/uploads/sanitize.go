package uploads

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxNameLength = 255
	fallbackName  = "unnamed"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Sanitize turns an uploaded filename into a flat token that is safe to use
// as a key inside the upload root. The result is deterministic, ASCII only,
// never contains a path separator and never starts with a dot.
func Sanitize(filename string) string {
	ascii := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))

	name, _, err := transform.String(ascii, filename)
	if err != nil {
		name = ""
	}

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if len(name) > maxNameLength {
		ext := filepath.Ext(name)
		if len(ext) >= maxNameLength {
			ext = ""
		}
		name = strings.TrimRight(name[:maxNameLength-len(ext)], "._") + ext
	}

	if name == "" {
		return fallbackName
	}
	return name
}

// IsCanonical reports whether name is already in sanitized form.
func IsCanonical(name string) bool {
	return name != "" && Sanitize(name) == name
}
