package summarize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeTooShort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TooShort, Summarize(strings.Repeat("a", 80)))
	assert.Equal(t, TooShort, Summarize("   "+strings.Repeat("б", 99)+"   "))
}

func TestSummarizeTwoParagraphs(t *testing.T) {
	t.Parallel()

	first := "Intro paragraph about the topic."
	second := strings.Repeat("Body sentence goes on. ", 30)
	got := Summarize(first + "\n\n" + second)

	require.True(t, strings.HasPrefix(got, "TOPIC: "+first+"\n\nMAIN CONTENT: "))
	require.True(t, strings.HasSuffix(got, "..."))
	body := strings.TrimSuffix(strings.TrimPrefix(got, "TOPIC: "+first+"\n\nMAIN CONTENT: "), "...")
	assert.Equal(t, 300, utf8.RuneCountInString(body))
}

func TestSummarizeManyParagraphs(t *testing.T) {
	t.Parallel()

	paragraphs := []string{
		strings.Repeat("i", 250),
		strings.Repeat("x", 40),
		strings.Repeat("y", 40),
		strings.Repeat("m", 40),
		strings.Repeat("k", 180),
		strings.Repeat("c", 170),
	}
	got := Summarize(strings.Join(paragraphs, "\n\n"))

	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 3)
	assert.Equal(t, "INTRODUCTION: "+strings.Repeat("i", 200)+"...", parts[0])
	assert.Equal(t, "KEY IDEA: "+strings.Repeat("k", 150)+"...", parts[1])
	assert.Equal(t, "CONCLUSIONS: "+strings.Repeat("c", 150)+"...", parts[2])
}

func TestSummarizeShortParagraphsNotMarked(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		strings.Repeat("a", 60),
		strings.Repeat("b", 60),
		strings.Repeat("c", 60),
	}, "\n\n")

	got := Summarize(text)
	assert.Equal(t,
		"INTRODUCTION: "+strings.Repeat("a", 60)+"\n\nKEY IDEA: "+strings.Repeat("b", 60)+"\n\nCONCLUSIONS: "+strings.Repeat("c", 60),
		got)
}

func TestSummarizeSingleParagraph(t *testing.T) {
	t.Parallel()

	withSentences := "First finding is strong and clear. Second finding is weaker! Third remark is noted. Final conclusion holds?"
	got := Summarize(withSentences)
	assert.Equal(t, "Main theme: First finding is strong and clear Second finding is weaker. Key conclusion: Final conclusion holds", got)

	noSentences := strings.Repeat("word ", 30)
	got = Summarize(noSentences)
	assert.True(t, strings.HasPrefix(got, "Research topic: "))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSummarizeIsDeterministic(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("Некоторый текст статьи. ", 20) + "\n\n" + strings.Repeat("Ещё абзац. ", 40)
	assert.Equal(t, Summarize(text), Summarize(text))
}

func TestKeyContentTakesMiddleParagraphs(t *testing.T) {
	t.Parallel()

	text := "p0\n\np1\n\np2\n\np3\n\np4\n\np5"
	assert.Equal(t, "p0\n\np3\n\np4\n\np5", keyContent(text))

	four := "p0\n\np1\n\np2\n\np3"
	assert.Equal(t, "p0\n\np3", keyContent(four))
}

func TestKeyContentCapsLength(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("я", 4000)
	assert.Equal(t, 1500, utf8.RuneCountInString(keyContent(text)))
}

func TestFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "One Two Four Five.", fallback("One. Two. Three. Four. Five."))
	assert.Equal(t, "One Two.", fallback("One. Two."))
	assert.Equal(t, Unavailable, fallback("...!!!"))
}

func TestSplitters(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b c"}, Paragraphs("\n\n a \n\n\n\n b c \n\n"))
	assert.Equal(t, []string{"Hi", "How are you", "Fine"}, Sentences("Hi... How are you?! Fine."))
}
