package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"regdoc-scraper/fetcher"
	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/parser"
)

// stubDriver satisfies fetcher.Driver for sites that never touch the page.
// It renders no next-page control, so every search is one page long.
type stubDriver struct {
	mu     sync.Mutex
	closed int
}

func (d *stubDriver) Navigate(context.Context, string) error { return nil }
func (d *stubDriver) WaitForElement(context.Context, fetcher.Locator, time.Duration) (fetcher.Element, error) {
	return nil, errors.New("not rendered")
}
func (d *stubDriver) WaitForAllElements(context.Context, fetcher.Locator, time.Duration) ([]fetcher.Element, error) {
	return nil, errors.New("not rendered")
}
func (d *stubDriver) FindAll(context.Context, fetcher.Locator) ([]fetcher.Element, error) {
	return nil, nil
}
func (d *stubDriver) FindWithin(context.Context, fetcher.Element, fetcher.Locator) ([]fetcher.Element, error) {
	return nil, nil
}
func (d *stubDriver) Click(context.Context, fetcher.Element) error { return nil }
func (d *stubDriver) Text(context.Context, fetcher.Element) (string, error) {
	return "", nil
}
func (d *stubDriver) Attribute(context.Context, fetcher.Element, string) (string, bool, error) {
	return "", false, nil
}
func (d *stubDriver) SelectOption(context.Context, fetcher.Element, string) error { return nil }
func (d *stubDriver) TypeText(context.Context, fetcher.Element, string, bool) error {
	return nil
}
func (d *stubDriver) CurrentURL(context.Context) (string, error) { return "", nil }

func (d *stubDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *stubDriver) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// stubSite answers every keyword with the rows registered for it
type stubSite struct {
	rows    map[string][]models.RawRow
	keyword string
}

func (s *stubSite) Name() string     { return "stub" }
func (s *stubSite) StartURL() string { return "https://example.org" }

func (s *stubSite) Extractor(log *logger.Logger) *parser.Extractor {
	return &parser.Extractor{
		Origin:     "https://example.org",
		Classifier: parser.PathSuffixClassifier{Suffix: ".pdf"},
		Logger:     log,
	}
}

func (s *stubSite) SubmitSearch(_ context.Context, _ fetcher.Driver, keyword string) error {
	if keyword == "broken" {
		return errors.New("search box missing")
	}
	s.keyword = keyword
	return nil
}

func (s *stubSite) ApplySort(context.Context, fetcher.Driver) error {
	if len(s.rows[s.keyword]) == 0 {
		return fmt.Errorf("%w: no sort control", models.ErrNoResults)
	}
	return nil
}

func (s *stubSite) ReadRows(context.Context, fetcher.Driver) ([]models.RawRow, error) {
	return s.rows[s.keyword], nil
}

func (s *stubSite) NextLocator() fetcher.Locator { return fetcher.CSS("a.next") }

// datedStubSite filters by date natively
type datedStubSite struct {
	stubSite
}

func (s *datedStubSite) ApplyDateFilter(context.Context, fetcher.Driver, time.Time, time.Time) error {
	return nil
}

// memStore records what would have been persisted
type memStore struct {
	folders   []string
	documents []string
	pages     []string
	metadata  []string
	summaries []string
	tables    []string
	discarded []string
	failURLs  map[string]bool
	failDirs  map[string]bool
	// failWrites makes metadata writes fail for these identifiers
	failWrites map[string]bool
}

func newMemStore() *memStore {
	return &memStore{failURLs: map[string]bool{}, failDirs: map[string]bool{}, failWrites: map[string]bool{}}
}

func (m *memStore) EnsureKeywordFolders(keyword string) error {
	if m.failDirs[keyword] {
		return errors.New("read-only file system")
	}
	m.folders = append(m.folders, keyword)
	return nil
}

func (m *memStore) DownloadAndStore(_ context.Context, _ string, r models.Record) ([]byte, error) {
	if m.failURLs[r.URL] {
		return nil, fmt.Errorf("%w: %s: 404", models.ErrDownload, r.URL)
	}
	m.documents = append(m.documents, r.Identifier)
	return []byte("%PDF"), nil
}

func (m *memStore) FetchPage(_ context.Context, r models.Record) (string, error) {
	if m.failURLs[r.URL] {
		return "", fmt.Errorf("%w: %s: 500", models.ErrDownload, r.URL)
	}
	m.pages = append(m.pages, r.Identifier)
	return "<table><tr><th>h</th></tr><tr><td>v</td></tr></table>", nil
}

func (m *memStore) DiscardDocument(_ string, r models.Record) error {
	m.discarded = append(m.discarded, r.Identifier)
	return nil
}

func (m *memStore) WriteMetadata(_ string, r models.Record) error {
	if m.failWrites[r.Identifier] {
		return errors.New("no space left on device")
	}
	m.metadata = append(m.metadata, r.Identifier)
	return nil
}

func (m *memStore) WriteSummary(_ string, r models.Record) error {
	m.summaries = append(m.summaries, r.Identifier)
	return nil
}

func (m *memStore) ExtractAndStoreTables(_ string, _ string, r models.Record) (int, error) {
	m.tables = append(m.tables, r.Identifier)
	return 1, nil
}

type sinkCall struct {
	runID, site, keyword string
	records              []models.Record
}

type memSink struct {
	calls []sinkCall
}

func (s *memSink) SaveRecords(_ context.Context, runID, site, keyword string, records []models.Record) error {
	s.calls = append(s.calls, sinkCall{runID, site, keyword, records})
	return nil
}

type memTracker struct {
	started, finished []models.RunReport
}

func (t *memTracker) StartRun(_ context.Context, run models.RunReport) error {
	t.started = append(t.started, run)
	return nil
}

func (t *memTracker) FinishRun(_ context.Context, run models.RunReport) error {
	t.finished = append(t.finished, run)
	return nil
}

type memNotifier struct {
	mu   sync.Mutex
	runs []models.RunReport
}

func (n *memNotifier) NotifyRun(_ context.Context, run models.RunReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.runs = append(n.runs, run)
	return nil
}

func (n *memNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.runs)
}
