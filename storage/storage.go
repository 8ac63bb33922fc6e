// Package storage persists located documents and pages to a per-keyword folder tree:
//
//	<root>/<site>/<keyword>/pdf       downloaded documents
//	<root>/<site>/<keyword>/text      one summary per record
//	<root>/<site>/<keyword>/metadata  one metadata JSON per record
//	<root>/<site>/<keyword>/json      tables mined from pages
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/parser"
)

// Folder names inside a keyword folder
const (
	PDFDir      = "pdf"
	TextDir     = "text"
	MetadataDir = "metadata"
	JSONDir     = "json"
)

var keywordDirs = []string{PDFDir, TextDir, MetadataDir, JSONDir}

// Fetcher downloads a URL. *fetcher.Downloader satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Metadata is the JSON document written next to every stored record
type Metadata struct {
	Name            string  `json:"name"`
	NotifiedDate    string  `json:"notified_date"`
	NotifiedCountry *string `json:"notified_country"`
	URL             string  `json:"URL"`
	Keyword         string  `json:"keyword"`
}

// FileStore writes one site's output below root
type FileStore struct {
	root    string
	site    string
	fetcher Fetcher
	logger  *logger.Logger
}

// NewFileStore creates a store for site's output below root
func NewFileStore(root, site string, f Fetcher, log *logger.Logger) *FileStore {
	return &FileStore{
		root:    root,
		site:    site,
		fetcher: f,
		logger:  log.With("site", site),
	}
}

// KeywordFolderName turns a keyword into its folder name
func KeywordFolderName(keyword string) string {
	return strings.ReplaceAll(strings.ReplaceAll(keyword, ":", ""), " ", "_")
}

// KeywordDir returns the folder holding keyword's output
func (s *FileStore) KeywordDir(keyword string) string {
	return filepath.Join(s.root, s.site, KeywordFolderName(keyword))
}

func (s *FileStore) path(keyword, dir, name string) string {
	return filepath.Join(s.KeywordDir(keyword), dir, name)
}

// EnsureKeywordFolders creates the keyword folder and its subfolders
func (s *FileStore) EnsureKeywordFolders(keyword string) error {
	for _, dir := range keywordDirs {
		if err := os.MkdirAll(filepath.Join(s.KeywordDir(keyword), dir), 0755); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", dir, err)
		}
	}
	s.logger.Info("folder structure created", "keyword", keyword)
	return nil
}

// DownloadAndStore downloads a document and saves it as pdf/<identifier>.pdf
func (s *FileStore) DownloadAndStore(ctx context.Context, keyword string, record models.Record) ([]byte, error) {
	body, err := s.fetcher.Get(ctx, record.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrDownload, record.URL, err)
	}

	name := s.path(keyword, PDFDir, record.Identifier+".pdf")
	if err := os.WriteFile(name, body, 0644); err != nil {
		return nil, fmt.Errorf("%w: saving %s: %w", models.ErrDownload, name, err)
	}

	s.logger.Info("document saved", "file", name, "bytes", len(body))
	return body, nil
}

// DiscardDocument removes the files a partially stored document left behind.
// Files that were never written are ignored.
func (s *FileStore) DiscardDocument(keyword string, record models.Record) error {
	var errs []error
	for _, name := range []string{
		s.path(keyword, PDFDir, record.Identifier+".pdf"),
		s.path(keyword, MetadataDir, "metadata_"+record.Identifier+".json"),
		s.path(keyword, TextDir, record.Identifier+".txt"),
	} {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to discard %s: %w", record.Identifier, err)
	}

	s.logger.Info("discarded partial document", "identifier", record.Identifier)
	return nil
}

// FetchPage downloads a result page's HTML
func (s *FileStore) FetchPage(ctx context.Context, record models.Record) (string, error) {
	body, err := s.fetcher.Get(ctx, record.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrDownload, record.URL, err)
	}
	return string(body), nil
}

// WriteMetadata writes metadata/metadata_<identifier>.json
func (s *FileStore) WriteMetadata(keyword string, record models.Record) error {
	name := s.path(keyword, MetadataDir, "metadata_"+record.Identifier+".json")
	err := writeJSON(name, Metadata{
		Name:         record.Identifier,
		NotifiedDate: record.Date,
		URL:          record.URL,
		Keyword:      keyword,
	})
	if err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	s.logger.Debug("metadata saved", "file", name)
	return nil
}

// WriteSummary writes text/<identifier>.txt
func (s *FileStore) WriteSummary(keyword string, record models.Record) error {
	name := s.path(keyword, TextDir, record.Identifier+".txt")

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", record.Identifier)
	fmt.Fprintf(&b, "Distribution date: %s\n", record.Date)
	fmt.Fprintf(&b, "Keywords: %s\n", keyword)
	fmt.Fprintf(&b, "Summary: %s\n", record.Description)

	if err := os.WriteFile(name, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	s.logger.Debug("summary saved", "file", name)
	return nil
}

// ExtractAndStoreTables mines htmlContent for tables and writes json/<identifier>.json.
// Nothing is written when the page has no tables. Returns the number of tables stored.
func (s *FileStore) ExtractAndStoreTables(htmlContent, keyword string, record models.Record) (int, error) {
	tables, err := parser.ExtractTables(htmlContent)
	if err != nil {
		return 0, fmt.Errorf("failed to extract tables: %w", err)
	}
	if len(tables) == 0 {
		return 0, nil
	}

	name := s.path(keyword, JSONDir, record.Identifier+".json")
	if err := writeJSON(name, tables); err != nil {
		return 0, fmt.Errorf("failed to write tables: %w", err)
	}

	s.logger.Info("tables saved", "file", name, "tables", len(tables))
	return len(tables), nil
}

// writeJSON writes v with 4-space indentation and without HTML escaping
func writeJSON(name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(name, buf.Bytes(), 0644)
}
