package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/ports"
)

const metadataFile = "metadata.json"

// FileStoreOptions configures on-disk artifacts.
type FileStoreOptions struct {
	Root           string
	NameLimit      int
	ResourceSuffix string
	TextPDF        bool
	// PDFFont is a UTF-8 TTF used for the text PDF; empty means core fonts.
	PDFFont string
	Logger  *slog.Logger
}

// FileStore writes one directory per article under Root.
type FileStore struct {
	opts FileStoreOptions
}

var _ ports.ArtifactStore = (*FileStore)(nil)

// NewFileStore applies defaults; the root directory is created lazily.
func NewFileStore(opts FileStoreOptions) *FileStore {
	if opts.Root == "" {
		opts.Root = "articles"
	}
	if opts.NameLimit <= 0 {
		opts.NameLimit = DefaultNameLimit
	}
	if opts.ResourceSuffix == "" {
		opts.ResourceSuffix = ".pdf"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{opts: opts}
}

// Begin allocates the artifact directory name NN_<title> for an article.
func (s *FileStore) Begin(sequence int, title string) (ports.ArticleSink, error) {
	name := fmt.Sprintf("%02d_%s", sequence, SafeName(title, s.opts.NameLimit))
	return &articleDir{
		store: s,
		name:  name,
		dir:   filepath.Join(s.opts.Root, name),
	}, nil
}

type articleDir struct {
	store *FileStore
	name  string
	dir   string
}

func (d *articleDir) Dir() string {
	return d.dir
}

// SaveResource writes the verified resource bytes.
func (d *articleDir) SaveResource(_ context.Context, _ domain.ResourceCandidate, body []byte) (string, error) {
	file := d.name + d.store.opts.ResourceSuffix
	if err := d.write(file, body); err != nil {
		return "", err
	}
	return file, nil
}

// SaveRecord writes the text artifacts and metadata.json for a record.
func (d *articleDir) SaveRecord(_ context.Context, record domain.ArticleRecord) (domain.ArticleRecord, error) {
	record.Dir = d.dir

	if record.Processed() {
		files := []struct {
			name    string
			content string
			target  *string
		}{
			{d.name + ".txt", record.FullText, &record.Files.Text},
			{d.name + "_sh.txt", record.Summary, &record.Files.Summary},
			{d.name + "_an.txt", record.Abstract, &record.Files.Annotation},
		}
		for _, f := range files {
			if err := d.write(f.name, []byte(f.content)); err != nil {
				return record, err
			}
			*f.target = f.name
		}

		if record.ResourceURL == "" && d.store.opts.TextPDF {
			name := d.name + "_text.pdf"
			doc, err := renderTextPDF(d.store.opts.PDFFont, record.Title, record.SourceURL, record.FullText)
			switch {
			case errors.Is(err, errCoreFontCoverage):
				d.store.opts.Logger.Warn("text pdf skipped", "dir", d.name, "reason", err)
			case err != nil:
				return record, fmt.Errorf("render text pdf: %w", err)
			default:
				if err := d.write(name, doc); err != nil {
					return record, err
				}
				record.Files.TextPDF = name
			}
		}
	}

	if err := d.writeMetadata(record); err != nil {
		return record, err
	}
	return record, nil
}

type metadata struct {
	Title          string               `json:"title"`
	URL            string               `json:"url"`
	Filename       string               `json:"filename"`
	Status         domain.RecordStatus  `json:"status"`
	ResourceURL    string               `json:"resource_url,omitempty"`
	ResourceOrigin domain.Origin        `json:"resource_origin,omitempty"`
	Files          domain.ArtifactFiles `json:"files"`
}

func (d *articleDir) writeMetadata(record domain.ArticleRecord) error {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(metadata{
		Title:          record.Title,
		URL:            record.SourceURL,
		Filename:       d.name,
		Status:         record.Status(),
		ResourceURL:    record.ResourceURL,
		ResourceOrigin: record.ResourceOrigin,
		Files:          record.Files,
	})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return d.write(metadataFile, []byte(buf.String()))
}

func (d *articleDir) ensure() error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create article dir: %w", err)
	}
	return nil
}

// write stores data atomically so an interrupted write never leaves a partial artifact.
func (d *articleDir) write(name string, data []byte) error {
	if err := d.ensure(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(d.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
