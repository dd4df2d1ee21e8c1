package browser

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleHarvester/internal/ports"
)

func TestDocumentSessionBeforeNavigation(t *testing.T) {
	t.Parallel()

	s := NewDocumentSession(StaticPages{})
	_, err := s.CurrentURL(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoPage)
	_, err = s.Find(context.Background(), "a")
	assert.ErrorIs(t, err, ports.ErrNoPage)

	err = NewDocumentSession(nil).Navigate(context.Background(), "https://x.example")
	assert.ErrorIs(t, err, ports.ErrSessionUnavailable)
}

func TestDocumentSessionQueries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewDocumentSession(StaticPages{
		"https://site.example/article/one": `<html><head><title> One - Site </title></head>
		<body><a class="pdf" href="/pdf/one.pdf" data-url="/x">Get</a><a href="#">b</a></body></html>`,
	})

	require.Error(t, s.Navigate(ctx, "https://site.example/unknown"))
	require.NoError(t, s.Navigate(ctx, "https://site.example/article/one"))

	current, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://site.example/article/one", current)

	title, err := s.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "One - Site", title)

	markup, err := s.Markup(ctx)
	require.NoError(t, err)
	assert.Contains(t, markup, "/pdf/one.pdf")

	elements, err := s.Find(ctx, "a.pdf")
	require.NoError(t, err)
	require.Len(t, elements, 1)
	href, ok := elements[0].Attribute("href")
	assert.True(t, ok)
	assert.Equal(t, "/pdf/one.pdf", href)
	_, ok = elements[0].Attribute("onclick")
	assert.False(t, ok)
	text, err := elements[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Get", text)

	require.NoError(t, s.Close())
	_, err = s.Markup(ctx)
	assert.ErrorIs(t, err, ports.ErrNoPage)
}

func TestVisibleText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		html string
		want string
	}{
		{name: "paragraphs", html: "<p>First\n   paragraph</p>\n\n<p>Second</p>", want: "First paragraph\n\nSecond"},
		{name: "blocks", html: "<div>A</div>\n<div>B</div>", want: "A\nB"},
		{name: "line break", html: "<p>A<br>B</p>", want: "A\nB"},
		{name: "hidden", html: "<div>Shown<script>var x = 1;</script><style>p{}</style></div>", want: "Shown"},
		{name: "inline", html: "<p>bold <b>word</b> and <i>more</i></p>", want: "bold word and more"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><main>" + tc.html + "</main></body></html>"))
			require.NoError(t, err)
			assert.Equal(t, tc.want, VisibleText(doc.Find("main")))
		})
	}
}

type stubFetcher struct {
	resp *ports.FetchResponse
	err  error
}

func (s stubFetcher) Fetch(context.Context, ports.FetchRequest) (*ports.FetchResponse, error) {
	return s.resp, s.err
}

func TestFetchLoaderUsesFinalURL(t *testing.T) {
	t.Parallel()

	loader := FetchLoader{Fetcher: stubFetcher{resp: &ports.FetchResponse{URL: "https://site.example/final", Body: []byte("<p>x</p>")}}}
	page, err := loader.Load(context.Background(), "https://site.example/start")
	require.NoError(t, err)
	assert.Equal(t, "https://site.example/final", page.URL)
	assert.Equal(t, "<p>x</p>", page.HTML)
}
