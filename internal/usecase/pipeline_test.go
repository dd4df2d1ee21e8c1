package usecase

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleHarvester/internal/discovery"
	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/extract"
	"ArticleHarvester/internal/infrastructure/browser"
	"ArticleHarvester/internal/infrastructure/storage"
	"ArticleHarvester/internal/locator"
	"ArticleHarvester/internal/ports"
	"ArticleHarvester/internal/summarize"
)

const base = "https://cyberleninka.ru"

var longText = strings.Repeat("Graph coloring assigns colors to vertices. ", 10) + "\n\n" +
	strings.Repeat("Adjacent vertices never share a color. ", 10)

func searchPage(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, l := range links {
		b.WriteString(`<div class="search-result"><a href="` + l + `">hit</a></div>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func sitePages() browser.StaticPages {
	return browser.StaticPages{
		base + "/search?q=graphs": searchPage("/article/n/full", "/article/n/pdf-only", "/article/n/empty"),
		base + "/article/n/full": `<html><head><title>Full - КиберЛенинка</title></head><body>
			<h1>Graph Coloring Revisited</h1>
			<div class="abstract">Short abstract.</div>
			<div class="fulltext"><p>` + strings.ReplaceAll(longText, "\n\n", "</p><p>") + `</p></div>
			<a class="download" href="/files/full.pdf">PDF</a>
		</body></html>`,
		base + "/article/n/pdf-only": `<html><head><title>Scanned paper - КиберЛенинка</title></head><body>
			<h1>Scanned Paper Without Text</h1>
		</body></html>`,
		base + "/article/n/empty": `<html><head><title>Empty - КиберЛенинка</title></head><body><h1>Nothing Useful Here</h1></body></html>`,
	}
}

type fakeFetcher map[string]int

func (f fakeFetcher) Fetch(_ context.Context, req ports.FetchRequest) (*ports.FetchResponse, error) {
	size, ok := f[req.URL]
	if !ok {
		return &ports.FetchResponse{URL: req.URL, StatusCode: http.StatusNotFound}, nil
	}
	return &ports.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(strings.Repeat("%", size))}, nil
}

type memoryRepository struct {
	saved  []domain.ArticleRecord
	onSave func()
}

func (r *memoryRepository) SaveHarvested(_ context.Context, _ string, record domain.ArticleRecord) error {
	r.saved = append(r.saved, record)
	if r.onSave != nil {
		r.onSave()
	}
	return nil
}

func (r *memoryRepository) Recent(context.Context, int) ([]domain.HistoryEntry, error) {
	return nil, nil
}

type recordingNotifier struct {
	digests []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return nil
}

type trackedSession struct {
	ports.WebSession
	closed   bool
	failOn   string
	navigate int
}

func (s *trackedSession) Navigate(ctx context.Context, url string) error {
	s.navigate++
	if s.failOn != "" && url == s.failOn {
		return ports.ErrSessionUnavailable
	}
	return s.WebSession.Navigate(ctx, url)
}

func (s *trackedSession) Close() error {
	s.closed = true
	return s.WebSession.Close()
}

type fixture struct {
	pipeline *Pipeline
	session  *trackedSession
	repo     *memoryRepository
	notifier *recordingNotifier
	root     string
}

func newFixture(t *testing.T, pages browser.StaticPages) *fixture {
	t.Helper()

	f := &fixture{
		session:  &trackedSession{WebSession: browser.NewDocumentSession(pages)},
		repo:     &memoryRepository{},
		notifier: &recordingNotifier{},
		root:     t.TempDir(),
	}
	fetcher := fakeFetcher{
		base + "/files/full.pdf":           4096,
		base + "/article/n/pdf-only.pdf":   2048,
		base + "/article/n/empty/download": 10,
	}

	f.pipeline = NewPipeline(PipelineDeps{
		OpenSession: func(context.Context) (ports.WebSession, error) { return f.session, nil },
		Discoverer:  discovery.New(discovery.Options{BaseURL: base}, nil),
		Extractor:   extract.New(extract.Options{TitleSuffix: " - КиберЛенинка"}, nil),
		Locator:     locator.New(locator.Options{BaseURL: base}, fetcher, nil),
		Summarize:   summarize.Summarize,
		Store:       storage.NewFileStore(storage.FileStoreOptions{Root: f.root}),
		Repository:  f.repo,
		Notifier:    f.notifier,
	})
	return f
}

func TestSearchRejectsInvalidQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t, sitePages())
	_, err := f.pipeline.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = f.pipeline.Search(context.Background(), "graphs", 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.Zero(t, f.session.navigate)
}

func TestSearchHarvestsBatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, sitePages())
	batch, err := f.pipeline.Search(context.Background(), "graphs", 10)
	require.NoError(t, err)

	assert.NotEmpty(t, batch.RunID)
	assert.Equal(t, "graphs", batch.Query)
	assert.Equal(t, 3, batch.Attempted)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.DownloadOnly)
	require.Len(t, batch.Records, 2)
	assert.False(t, batch.FinishedAt.Before(batch.StartedAt))
	assert.True(t, f.session.closed)

	full := batch.Records[0]
	assert.Equal(t, 1, full.Sequence)
	assert.Equal(t, "Graph Coloring Revisited", full.Title)
	assert.Equal(t, domain.StatusComplete, full.Status())
	assert.Equal(t, base+"/files/full.pdf", full.ResourceURL)
	assert.Equal(t, domain.OriginSelectorScan, full.ResourceOrigin)
	assert.True(t, strings.HasPrefix(full.Summary, "TOPIC: "), full.Summary)
	assert.Equal(t, "Short abstract.", full.Abstract)

	pdfOnly := batch.Records[1]
	assert.Equal(t, 2, pdfOnly.Sequence)
	assert.Equal(t, domain.StatusDownloadOnly, pdfOnly.Status())
	assert.Equal(t, domain.OriginStandardPath, pdfOnly.ResourceOrigin)
	assert.Empty(t, pdfOnly.Summary)

	for _, name := range []string{full.Files.Original, full.Files.Text, full.Files.Summary, full.Files.Annotation, "metadata.json"} {
		_, err := os.Stat(filepath.Join(full.Dir, name))
		assert.NoError(t, err, name)
	}
	assert.Equal(t, filepath.Join(f.root, "01_Graph Coloring Revisited"), full.Dir)

	_, err = os.Stat(filepath.Join(f.root, "03_Nothing Useful Here"))
	assert.True(t, os.IsNotExist(err), "failed article must not leave a directory")

	assert.Len(t, f.repo.saved, 2)
	require.Len(t, f.notifier.digests, 1)
	assert.Contains(t, f.notifier.digests[0], "Harvested 2 of 3 (download only: 1)")
	assert.Contains(t, f.notifier.digests[0], "Graph Coloring Revisited")
}

func TestSearchWithoutResults(t *testing.T) {
	t.Parallel()

	pages := browser.StaticPages{base + "/search?q=nothing": searchPage()}
	f := newFixture(t, pages)

	batch, err := f.pipeline.Search(context.Background(), "nothing", 5)
	require.NoError(t, err)
	assert.Zero(t, batch.Attempted)
	assert.Empty(t, batch.Records)
	assert.Empty(t, f.notifier.digests)
}

func TestSearchPageFailureIsReported(t *testing.T) {
	t.Parallel()

	f := newFixture(t, browser.StaticPages{})
	_, err := f.pipeline.Search(context.Background(), "graphs", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open search page")
	assert.True(t, f.session.closed)
}

func TestSearchSessionLossAbortsWithPartialBatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, sitePages())
	f.session.failOn = base + "/article/n/pdf-only"

	batch, err := f.pipeline.Search(context.Background(), "graphs", 10)
	require.ErrorIs(t, err, ports.ErrSessionUnavailable)
	assert.Equal(t, 2, batch.Attempted)
	assert.Equal(t, 1, batch.Succeeded)
	require.Len(t, batch.Records, 1)
	assert.Empty(t, f.notifier.digests)
}

func TestSearchSkipsArticleThatFailsToLoad(t *testing.T) {
	t.Parallel()

	pages := sitePages()
	delete(pages, base+"/article/n/pdf-only")
	f := newFixture(t, pages)

	batch, err := f.pipeline.Search(context.Background(), "graphs", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, batch.Attempted)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 0, batch.DownloadOnly)
}

func TestSearchStopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t, sitePages())
	f.repo.onSave = cancel

	batch, err := f.pipeline.Search(ctx, "graphs", 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, batch.Attempted)
	assert.Len(t, batch.Records, 1)
	assert.True(t, f.session.closed)
}

func TestSearchOpenSessionFailure(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{
		OpenSession: func(context.Context) (ports.WebSession, error) {
			return nil, errors.Join(ports.ErrSessionUnavailable, errors.New("chrome not found"))
		},
		Discoverer: discovery.New(discovery.Options{BaseURL: base}, nil),
		Extractor:  extract.New(extract.Options{}, nil),
		Locator:    locator.New(locator.Options{BaseURL: base}, fakeFetcher{}, nil),
		Store:      storage.NewFileStore(storage.FileStoreOptions{Root: t.TempDir()}),
	})

	_, err := p.Search(context.Background(), "graphs", 1)
	assert.ErrorIs(t, err, ports.ErrSessionUnavailable)
}

func TestBuildDigestMessage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, BuildDigestMessage(domain.Batch{}))

	msg := BuildDigestMessage(domain.Batch{
		Query:     "graphs",
		Attempted: 2,
		Succeeded: 1,
		Records: []domain.ArticleRecord{{
			Sequence:    4,
			Title:       "Title",
			Summary:     "Digest.",
			SourceURL:   "https://x/article/1",
			ResourceURL: "https://x/article/1.pdf",
		}},
	})
	assert.Equal(t, "Query: graphs\nHarvested 1 of 2 (download only: 0)\n\n04. Title\nDigest.\nhttps://x/article/1\nDownload: https://x/article/1.pdf", msg)
}
