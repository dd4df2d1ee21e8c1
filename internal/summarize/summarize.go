// Package summarize builds a short rule-based digest from article text.
//
// The output is a pure function of the input: no randomness, no I/O. All
// lengths are counted in characters (Unicode code points).
package summarize

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minTextLen        = 100
	keyContentLen     = 1500
	introLen          = 200
	keyIdeaLen        = 150
	conclusionLen     = 150
	topicBodyLen      = 300
	maxWholeParas     = 3
	minFallbackSents  = 5
	ellipsis          = "..."
	paragraphBoundary = "\n\n"
)

// Fixed messages.
const (
	TooShort    = "text too short to summarize"
	Unavailable = "summary unavailable"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

var errNoParagraphs = errors.New("key content has no paragraphs")

// Summarize returns the digest of text.
func Summarize(text string) string {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextLen {
		return TooShort
	}

	digest, err := structured(keyContent(text))
	if err != nil {
		return fallback(text)
	}
	return digest
}

// keyContent keeps the first paragraph, two paragraphs from the middle and
// the last one, capped at keyContentLen characters.
func keyContent(text string) string {
	paragraphs := Paragraphs(text)
	if len(paragraphs) <= maxWholeParas {
		return truncate(text, keyContentLen)
	}

	parts := []string{paragraphs[0]}
	if len(paragraphs) > maxWholeParas+1 {
		mid := len(paragraphs) / 2
		parts = append(parts, paragraphs[mid:mid+2]...)
	}
	parts = append(parts, paragraphs[len(paragraphs)-1])

	return truncate(strings.Join(parts, paragraphBoundary), keyContentLen)
}

func structured(key string) (string, error) {
	paragraphs := Paragraphs(key)

	switch n := len(paragraphs); {
	case n == 0:
		return "", errNoParagraphs
	case n == 1:
		sentences := Sentences(paragraphs[0])
		if len(sentences) >= 3 {
			return "Main theme: " + strings.Join(sentences[:2], " ") +
				". Key conclusion: " + sentences[len(sentences)-1], nil
		}
		return "Research topic: " + truncate(paragraphs[0], topicBodyLen) + ellipsis, nil
	case n == 2:
		return "TOPIC: " + paragraphs[0] + paragraphBoundary +
			"MAIN CONTENT: " + truncate(paragraphs[1], topicBodyLen) + ellipsis, nil
	default:
		intro := capped(paragraphs[0], introLen)
		idea := capped(paragraphs[n/2], keyIdeaLen)
		conclusion := capped(paragraphs[n-1], conclusionLen)
		return "INTRODUCTION: " + intro + paragraphBoundary +
			"KEY IDEA: " + idea + paragraphBoundary +
			"CONCLUSIONS: " + conclusion, nil
	}
}

func fallback(text string) string {
	sentences := Sentences(text)
	switch {
	case len(sentences) >= minFallbackSents:
		picked := append(append([]string{}, sentences[:2]...), sentences[len(sentences)-2:]...)
		return strings.Join(picked, " ") + "."
	case len(sentences) > 0:
		return strings.Join(sentences[:min(3, len(sentences))], " ") + "."
	default:
		return Unavailable
	}
}

// Paragraphs splits text on blank lines and drops empty paragraphs.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, paragraphBoundary) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentences splits text on runs of sentence terminators and drops empty pieces.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentenceBoundary.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// capped truncates s to n characters and marks the cut with an ellipsis.
func capped(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return truncate(s, n) + ellipsis
}
