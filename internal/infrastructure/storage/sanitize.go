package storage

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultNameLimit caps sanitized titles, in characters.
const DefaultNameLimit = 50

// FallbackName is used when nothing survives sanitization.
const FallbackName = "article"

var (
	reservedChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	spaceRuns     = regexp.MustCompile(`\s+`)
)

// SafeName turns a title into a file-system friendly name of at most limit characters.
func SafeName(title string, limit int) string {
	if limit <= 0 {
		limit = DefaultNameLimit
	}

	name := norm.NFC.String(title)
	name = reservedChars.ReplaceAllString(name, "_")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(spaceRuns.ReplaceAllString(name, " "))

	if runes := []rune(name); len(runes) > limit {
		name = string(runes[:limit])
	}
	name = strings.TrimRight(name, ". ")

	if strings.TrimSpace(name) == "" {
		return FallbackName
	}
	return name
}
