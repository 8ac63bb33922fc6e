package scraper

import (
	"context"
	"fmt"
	"time"

	"regdoc-scraper/fetcher"
	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/parser"
)

const (
	eurlexOrigin = "https://eur-lex.europa.eu"
	// eurlexTitleLimit keeps identifiers short; EUR-Lex titles run to whole paragraphs
	eurlexTitleLimit = 20
)

// EUR-Lex locators
var (
	eurlexSearchBox  = fetcher.CSS("#QuickSearchField")
	eurlexSortSelect = fetcher.XPath("//select[contains(@id, 'sortOne_top')]")
	eurlexResults    = fetcher.XPath("//div[@id='EurlexContent']//div[@class='SearchResult']")
	eurlexNameLinks  = fetcher.XPath(".//a[starts-with(@id, 'cellar_') and @href]")
	eurlexDates      = fetcher.XPath(".//dd[contains(text(), '/')]")
	eurlexPDFLinks   = fetcher.XPath(".//a[starts-with(@title, 'pdf') and @href]")
	eurlexHTMLLinks  = fetcher.XPath(".//a[starts-with(@title, 'html') and @href]")
	eurlexNoResults  = fetcher.XPath("//div[@id='EurlexContent']//*[contains(text(), 'No results found')]")
	eurlexNext       = fetcher.XPath("//div[@class='ResultsTools']//a[@title='Next Page']")
)

var eurlexResultsOrEmpty = fetcher.XPath(eurlexResults.Value + " | " + eurlexNoResults.Value)

// EURLex searches the EU law portal
type EURLex struct {
	startURL string
	timeout  time.Duration
}

// NewEURLex creates the EUR-Lex strategy. An empty startURL uses the site root.
func NewEURLex(startURL string, timeout time.Duration) *EURLex {
	if startURL == "" {
		startURL = eurlexOrigin
	}
	return &EURLex{startURL: startURL, timeout: timeout}
}

// Name implements Site
func (s *EURLex) Name() string { return SiteEURLex }

// StartURL implements Site
func (s *EURLex) StartURL() string { return s.startURL }

// Extractor implements Site
func (s *EURLex) Extractor(log *logger.Logger) *parser.Extractor {
	return &parser.Extractor{
		Origin:     eurlexOrigin,
		TitleLimit: eurlexTitleLimit,
		Classifier: parser.LinkTitleClassifier{Prefix: "pdf"},
		Logger:     log,
	}
}

// SubmitSearch implements Site
func (s *EURLex) SubmitSearch(ctx context.Context, d fetcher.Driver, keyword string) error {
	box, err := d.WaitForElement(ctx, eurlexSearchBox, s.timeout)
	if err != nil {
		return fmt.Errorf("search box: %w", err)
	}
	return d.TypeText(ctx, box, keyword, true)
}

// ApplySort implements Site. The sort control only renders when there are
// results, so its absence means the search came back empty.
func (s *EURLex) ApplySort(ctx context.Context, d fetcher.Driver) error {
	sortSelect, err := d.WaitForElement(ctx, eurlexSortSelect, s.timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrNoResults, err)
	}
	if err := d.SelectOption(ctx, sortSelect, "DD"); err != nil {
		return fmt.Errorf("%w: %v", models.ErrNoResults, err)
	}
	return nil
}

// ReadRows implements Site. Every result can offer a PDF and an HTML rendition;
// all PDF rows of the page come first, then the HTML rows.
func (s *EURLex) ReadRows(ctx context.Context, d fetcher.Driver) ([]models.RawRow, error) {
	if _, err := d.WaitForElement(ctx, eurlexResultsOrEmpty, s.timeout); err != nil {
		return nil, fmt.Errorf("search results: %w", err)
	}
	results, err := d.FindAll(ctx, eurlexResults)
	if err != nil {
		return nil, fmt.Errorf("search results: %w", err)
	}
	if len(results) == 0 {
		return []models.RawRow{}, nil
	}

	var pdfRows, htmlRows []models.RawRow
	for _, result := range results {
		names, err := d.FindWithin(ctx, result, eurlexNameLinks)
		if err != nil {
			return nil, err
		}
		dates, err := d.FindWithin(ctx, result, eurlexDates)
		if err != nil {
			return nil, err
		}
		pdfLinks, err := d.FindWithin(ctx, result, eurlexPDFLinks)
		if err != nil {
			return nil, err
		}
		htmlLinks, err := d.FindWithin(ctx, result, eurlexHTMLLinks)
		if err != nil {
			return nil, err
		}

		pdfRows = append(pdfRows, s.zipRows(ctx, d, names, dates, pdfLinks)...)
		htmlRows = append(htmlRows, s.zipRows(ctx, d, names, dates, htmlLinks)...)
	}

	return append(pdfRows, htmlRows...), nil
}

// zipRows pairs name, date and link elements by position
func (s *EURLex) zipRows(ctx context.Context, d fetcher.Driver, names, dates, links []fetcher.Element) []models.RawRow {
	n := min(len(names), len(dates), len(links))
	rows := make([]models.RawRow, 0, n)
	for i := 0; i < n; i++ {
		name := readText(ctx, d, names[i])
		rows = append(rows, models.RawRow{
			Href:        readAttr(ctx, d, links[i], "href"),
			Title:       name,
			Date:        readText(ctx, d, dates[i]),
			Description: name,
			LinkTitle:   readAttr(ctx, d, links[i], "title"),
		})
	}
	return rows
}

// NextLocator implements Site
func (s *EURLex) NextLocator() fetcher.Locator { return eurlexNext }
