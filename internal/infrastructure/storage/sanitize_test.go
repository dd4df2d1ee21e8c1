package storage

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSafeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		title string
		limit int
		want  string
	}{
		{name: "reserved characters", title: `a<b>c:d"e/f\g|h?i*j`, limit: 50, want: "a_b_c_d_e_f_g_h_i_j"},
		{name: "whitespace collapsed", title: "  many \t\n spaces   here ", limit: 50, want: "many spaces here"},
		{name: "control characters", title: "bell\x07tab", limit: 50, want: "bell_tab"},
		{name: "trailing dots", title: "Ends with dots...", limit: 50, want: "Ends with dots"},
		{name: "empty falls back", title: "   ", limit: 50, want: FallbackName},
		{name: "only dots fall back", title: "...", limit: 50, want: FallbackName},
		{name: "cut on a space", title: "Some title with more words", limit: 11, want: "Some title"},
		{name: "cut before dot and space", title: "Intro. Part two", limit: 7, want: "Intro"},
		{name: "cyrillic kept", title: "Теория графов: обзор", limit: 50, want: "Теория графов_ обзор"},
		{name: "zero limit uses default", title: strings.Repeat("x", 80), limit: 0, want: strings.Repeat("x", DefaultNameLimit)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SafeName(tc.title, tc.limit))
		})
	}
}

func TestSafeNameCapsInCharacters(t *testing.T) {
	t.Parallel()

	got := SafeName(strings.Repeat("ё", 120), 100)
	assert.Equal(t, 100, utf8.RuneCountInString(got))
}

func TestSafeNameNormalizesToNFC(t *testing.T) {
	t.Parallel()

	decomposed := "e\u0301cole"
	assert.Equal(t, "\u00e9cole", SafeName(decomposed, 50))
}
