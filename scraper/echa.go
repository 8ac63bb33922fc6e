package scraper

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"regdoc-scraper/fetcher"
	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/parser"
)

const echaOrigin = "https://echa.europa.eu"

// ECHA locators
var (
	echaSearchBox    = fetcher.CSS(".SimpleSearchText")
	echaSortSelect   = fetcher.XPath("//select[contains(@id, '_echasearch_WAR_echaportlet_sortingType')]")
	echaResultTitles = fetcher.XPath("//div[contains(@class, 'search-result-title')]//a[@href]")
	echaResultDates  = fetcher.XPath("//div[contains(@class, 'search-result-title')]//a[@href]/../../following-sibling::td")
	echaResultBodies = fetcher.XPath("//div[contains(@class, 'search-result-content')]")
	echaNoResults    = fetcher.XPath("//div[contains(@class, 'portlet-msg-info') and contains(., 'No results')]")
	echaNext         = fetcher.XPath("//a[contains(text(), 'Next')]")
	echaYearSelect   = fetcher.XPath("//select[contains(@class, 'ui-datepicker-year')]")
	echaMonthSelect  = fetcher.XPath("//select[contains(@class, 'ui-datepicker-month')]")
)

// echaResultsOrEmpty matches once the result list or the empty-search message has rendered
var echaResultsOrEmpty = fetcher.XPath(echaResultTitles.Value + " | " + echaNoResults.Value)

// echaDefaultFrom is the "updated from" date used when no date filter is configured
var echaDefaultFrom = time.Date(2012, time.August, 9, 0, 0, 0, 0, time.UTC)

const (
	echaUpdatedFrom = "_echasearch_WAR_echaportlet_updatedFrom"
	echaUpdatedTo   = "_echasearch_WAR_echaportlet_updatedTo"
)

// ECHA searches the European Chemicals Agency site
type ECHA struct {
	startURL string
	timeout  time.Duration
}

// NewECHA creates the ECHA strategy. An empty startURL uses the site root.
func NewECHA(startURL string, timeout time.Duration) *ECHA {
	if startURL == "" {
		startURL = echaOrigin
	}
	return &ECHA{startURL: startURL, timeout: timeout}
}

// Name implements Site
func (s *ECHA) Name() string { return SiteECHA }

// StartURL implements Site
func (s *ECHA) StartURL() string { return s.startURL }

// Extractor implements Site. Files live at /documents/<folder>/<name>.pdf/<uuid>.
func (s *ECHA) Extractor(log *logger.Logger) *parser.Extractor {
	return &parser.Extractor{
		Origin:     echaOrigin,
		Classifier: parser.PathSuffixClassifier{Suffix: ".pdf"},
		Logger:     log,
	}
}

// SubmitSearch implements Site
func (s *ECHA) SubmitSearch(ctx context.Context, d fetcher.Driver, keyword string) error {
	box, err := d.WaitForElement(ctx, echaSearchBox, s.timeout)
	if err != nil {
		return fmt.Errorf("search box: %w", err)
	}
	return d.TypeText(ctx, box, keyword, true)
}

// DefaultDateRange implements DefaultDateRanger
func (s *ECHA) DefaultDateRange() DateRange {
	return DateRange{From: echaDefaultFrom}
}

// ApplyDateFilter implements DateFilterer using the "updated" date pickers
func (s *ECHA) ApplyDateFilter(ctx context.Context, d fetcher.Driver, from, to time.Time) error {
	if !from.IsZero() {
		if err := s.pickDate(ctx, d, echaUpdatedFrom, from); err != nil {
			return fmt.Errorf("updated from: %w", err)
		}
	}
	if !to.IsZero() {
		if err := s.pickDate(ctx, d, echaUpdatedTo, to); err != nil {
			return fmt.Errorf("updated to: %w", err)
		}
	}
	return nil
}

// pickDate drives the jQuery UI date picker attached to the input whose id contains inputID
func (s *ECHA) pickDate(ctx context.Context, d fetcher.Driver, inputID string, date time.Time) error {
	picker, err := d.WaitForElement(ctx, fetcher.XPath(fmt.Sprintf("//input[contains(@id, '%s')]", inputID)), s.timeout)
	if err != nil {
		return err
	}
	if err := d.Click(ctx, picker); err != nil {
		return err
	}

	yearSelect, err := d.WaitForElement(ctx, echaYearSelect, s.timeout)
	if err != nil {
		return err
	}
	if err := d.SelectOption(ctx, yearSelect, strconv.Itoa(date.Year())); err != nil {
		return err
	}

	// Months are zero based in the picker
	month := int(date.Month()) - 1
	monthSelect, err := d.WaitForElement(ctx, echaMonthSelect, s.timeout)
	if err != nil {
		return err
	}
	if err := d.SelectOption(ctx, monthSelect, strconv.Itoa(month)); err != nil {
		return err
	}

	day, err := d.WaitForElement(ctx, fetcher.XPath(fmt.Sprintf(
		"//td[@data-handler='selectDay' and @data-month='%d' and @data-year='%d']/a[text()='%d']",
		month, date.Year(), date.Day())), s.timeout)
	if err != nil {
		return err
	}
	return d.Click(ctx, day)
}

// ApplySort implements Site. A search without hits renders a message instead of
// the result list and is reported as models.ErrNoResults.
func (s *ECHA) ApplySort(ctx context.Context, d fetcher.Driver) error {
	titles, err := s.waitForResults(ctx, d)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		return models.ErrNoResults
	}

	sortSelect, err := d.WaitForElement(ctx, echaSortSelect, s.timeout)
	if err != nil {
		return fmt.Errorf("sort control: %w", err)
	}
	return d.SelectOption(ctx, sortSelect, "modified")
}

// waitForResults blocks until the page settled on either results or the empty
// message and returns the result titles, possibly none
func (s *ECHA) waitForResults(ctx context.Context, d fetcher.Driver) ([]fetcher.Element, error) {
	if _, err := d.WaitForElement(ctx, echaResultsOrEmpty, s.timeout); err != nil {
		return nil, fmt.Errorf("result list: %w", err)
	}
	return d.FindAll(ctx, echaResultTitles)
}

// ReadRows implements Site. Titles, dates and summaries are separate column
// lists on this site and are paired up by position.
func (s *ECHA) ReadRows(ctx context.Context, d fetcher.Driver) ([]models.RawRow, error) {
	titles, err := s.waitForResults(ctx, d)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return []models.RawRow{}, nil
	}
	dates, err := d.FindAll(ctx, echaResultDates)
	if err != nil {
		return nil, fmt.Errorf("result dates: %w", err)
	}
	bodies, err := d.FindAll(ctx, echaResultBodies)
	if err != nil {
		return nil, fmt.Errorf("result summaries: %w", err)
	}

	n := min(len(titles), len(dates), len(bodies))
	rows := make([]models.RawRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.RawRow{
			Href:        readAttr(ctx, d, titles[i], "href"),
			Title:       readText(ctx, d, titles[i]),
			Date:        readText(ctx, d, dates[i]),
			Description: readText(ctx, d, bodies[i]),
		})
	}
	return rows, nil
}

// NextLocator implements Site
func (s *ECHA) NextLocator() fetcher.Locator { return echaNext }
