package domain

import (
	"strings"
	"time"
)

// Sentinels returned by the content extractor instead of errors.
const (
	ContentNotFound  = "content not found"
	AbstractNotFound = "abstract not found"
)

// ArticleRef points at a single article page discovered by a search.
type ArticleRef struct {
	URL string
}

// ArticleRecord is built incrementally while one article is processed.
type ArticleRecord struct {
	Sequence       int
	Title          string
	FullText       string
	Abstract       string
	SourceURL      string
	ResourceURL    string
	ResourceOrigin Origin
	Summary        string
	Dir            string
	Files          ArtifactFiles
}

// ArtifactFiles lists the file names written for a record, relative to its directory.
type ArtifactFiles struct {
	Original   string `json:"original,omitempty"`
	Text       string `json:"text,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Annotation string `json:"annotation,omitempty"`
	TextPDF    string `json:"text_pdf,omitempty"`
}

// Processed reports whether the full text was extracted.
func (r ArticleRecord) Processed() bool {
	text := strings.TrimSpace(r.FullText)
	return text != "" && text != ContentNotFound
}

// DownloadOnly reports whether only the resource could be obtained.
func (r ArticleRecord) DownloadOnly() bool {
	return !r.Processed() && r.ResourceURL != ""
}

// Status derives the record's processing outcome.
func (r ArticleRecord) Status() RecordStatus {
	switch {
	case r.Processed():
		return StatusComplete
	case r.DownloadOnly():
		return StatusDownloadOnly
	default:
		return StatusFailed
	}
}

// RecordStatus enumerates article outcomes.
type RecordStatus string

const (
	StatusComplete     RecordStatus = "complete"
	StatusDownloadOnly RecordStatus = "download_only"
	StatusFailed       RecordStatus = "failed"
)

// Batch is the result of one search run.
type Batch struct {
	RunID        string
	Query        string
	Records      []ArticleRecord
	Attempted    int
	Succeeded    int
	DownloadOnly int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Add appends a record and updates the counters.
func (b *Batch) Add(record ArticleRecord) {
	switch record.Status() {
	case StatusComplete:
		b.Succeeded++
	case StatusDownloadOnly:
		b.DownloadOnly++
	default:
		return
	}
	b.Records = append(b.Records, record)
}

// HistoryEntry is a persisted summary of a harvested article.
type HistoryEntry struct {
	RunID       string
	SourceURL   string
	Title       string
	Summary     string
	ResourceURL string
	Status      RecordStatus
	HarvestedAt time.Time
}
