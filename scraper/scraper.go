package scraper

import (
	"context"
	"time"

	"regdoc-scraper/fetcher"
	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/parser"
)

// Site is the search strategy of one regulatory website.
// Every command runs against the shared page driver and must either complete or
// return a descriptive error before pagination starts.
type Site interface {
	// Name is the configuration name, also used as the output folder
	Name() string
	// StartURL is loaded before each keyword search
	StartURL() string
	// Extractor returns the row extractor configured for this site
	Extractor(log *logger.Logger) *parser.Extractor
	// SubmitSearch types keyword into the search box and submits it
	SubmitSearch(ctx context.Context, d fetcher.Driver, keyword string) error
	// ApplySort orders results by last modification
	ApplySort(ctx context.Context, d fetcher.Driver) error
	// ReadRows reads the raw result rows of the current page
	ReadRows(ctx context.Context, d fetcher.Driver) ([]models.RawRow, error)
	// NextLocator locates the "next page" control
	NextLocator() fetcher.Locator
}

// DateFilterer is implemented by sites that can restrict results to a date range
type DateFilterer interface {
	ApplyDateFilter(ctx context.Context, d fetcher.Driver, from, to time.Time) error
}

// DefaultDateRanger is implemented by date filtering sites that search a fixed
// range when none is configured
type DefaultDateRanger interface {
	DefaultDateRange() DateRange
}

// readText returns the element text, or "" when it cannot be read.
// An empty field makes the extractor skip the row.
func readText(ctx context.Context, d fetcher.Driver, el fetcher.Element) string {
	text, err := d.Text(ctx, el)
	if err != nil {
		return ""
	}
	return text
}

// readAttr returns the attribute value, or "" when missing or unreadable
func readAttr(ctx context.Context, d fetcher.Driver, el fetcher.Element, name string) string {
	value, ok, err := d.Attribute(ctx, el, name)
	if err != nil || !ok {
		return ""
	}
	return value
}
