package browser

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true, "template": true,
}

var paragraphTags = map[string]bool{
	"p": true, "blockquote": true, "pre": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "figure": true, "table": true,
}

var lineTags = map[string]bool{
	"div": true, "section": true, "article": true, "header": true, "footer": true, "main": true,
	"ul": true, "ol": true, "li": true, "tr": true, "dt": true, "dd": true, "dl": true, "nav": true,
	"aside": true, "form": true, "figcaption": true,
}

// VisibleText approximates the rendered text of a selection: paragraphs are
// separated by a blank line, other blocks by a newline.
func VisibleText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		collect(&b, n)
	}
	return normalize(b.String())
}

func collect(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(collapseSpaces(n.Data))
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedTags[tag] {
			return
		}
		if tag == "br" {
			b.WriteString("\n")
			return
		}
		sep := ""
		switch {
		case paragraphTags[tag]:
			sep = "\n\n\n"
		case lineTags[tag]:
			sep = "\n"
		}
		b.WriteString(sep)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(b, c)
		}
		b.WriteString(sep)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(b, c)
	}
}

// collapseSpaces turns every whitespace run, newlines included, into one space.
func collapseSpaces(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// normalize collapses inline whitespace, trims lines and keeps at most one blank line.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank++
			continue
		}
		if len(out) > 0 {
			if blank >= 2 {
				out = append(out, "")
			}
		}
		blank = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
