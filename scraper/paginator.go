package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"regdoc-scraper/fetcher"
	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/parser"
)

// State is a pagination controller state
type State int

const (
	// StateFetching reads and extracts the current page
	StateFetching State = iota
	// StateHasNext has a usable next control and is about to follow it
	StateHasNext
	// StateDone is terminal
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateHasNext:
		return "has_next"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DateRange restricts results to [From, To]. Zero values are open ends.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether neither end is set
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Paginator runs one keyword search on a site and walks its result pages
type Paginator struct {
	driver    fetcher.Driver
	site      Site
	limit     models.PageLimit
	dateRange DateRange
	logger    *logger.Logger
}

// NewPaginator creates a paginator bound to one browser session and site
func NewPaginator(driver fetcher.Driver, site Site, limit models.PageLimit, dateRange DateRange, log *logger.Logger) *Paginator {
	return &Paginator{
		driver:    driver,
		site:      site,
		limit:     limit,
		dateRange: dateRange,
		logger:    log.With("site", site.Name()),
	}
}

// Run searches for keyword and collects records page by page.
// A failure before the first page wraps models.ErrSearch (or models.ErrNoResults)
// and yields no records. A failure while paginating wraps models.ErrPagination
// and is returned together with everything collected so far.
func (p *Paginator) Run(ctx context.Context, keyword string) (models.Buckets, error) {
	log := p.logger.With("keyword", keyword)

	if err := p.prepare(ctx, keyword, log); err != nil {
		return models.Buckets{}, err
	}

	var (
		buckets models.Buckets
		failure error
		next    fetcher.Element
	)
	ids := parser.NewIdentifierSet()
	extract := p.site.Extractor(log)
	page := 1
	state := StateFetching

	for state != StateDone {
		switch state {
		case StateFetching:
			if err := ctx.Err(); err != nil {
				failure = fmt.Errorf("%w: page %d: %w", models.ErrPagination, page, err)
				state = StateDone
				break
			}

			log.Info("processing page", "page", page)
			rows, err := p.site.ReadRows(ctx, p.driver)
			if err != nil {
				failure = fmt.Errorf("%w: reading page %d: %w", models.ErrPagination, page, err)
				state = StateDone
				break
			}

			records := extract.Extract(rows, ids)
			buckets.Add(records...)
			buckets.PagesVisited = page
			log.Info("extracted page", "page", page, "rows", len(rows), "records", len(records),
				"documents", len(buckets.Documents), "pages", len(buckets.Pages))

			if len(records) == 0 {
				log.Info("no results on page, stopping", "page", page)
				state = StateDone
				break
			}
			if p.limit.Reached(page) {
				log.Info("page limit reached", "limit", int(p.limit))
				state = StateDone
				break
			}

			el, ok, err := p.nextControl(ctx)
			if err != nil {
				failure = fmt.Errorf("%w: next control on page %d: %w", models.ErrPagination, page, err)
				state = StateDone
				break
			}
			if !ok {
				log.Info("no more pages", "page", page)
				state = StateDone
				break
			}
			next = el
			state = StateHasNext

		case StateHasNext:
			if err := p.driver.Click(ctx, next); err != nil {
				failure = fmt.Errorf("%w: clicking next after page %d: %w", models.ErrPagination, page, err)
				state = StateDone
				break
			}
			page++
			state = StateFetching
		}
	}

	if failure != nil {
		url, _ := p.driver.CurrentURL(context.WithoutCancel(ctx))
		log.Error("pagination stopped early", "pages", buckets.PagesVisited, "url", url, "error", failure)
	}
	return buckets, failure
}

// prepare loads the start page, searches, filters and sorts
func (p *Paginator) prepare(ctx context.Context, keyword string, log *logger.Logger) error {
	log.Info("searching")

	if err := p.driver.Navigate(ctx, p.site.StartURL()); err != nil {
		return searchError(keyword, err)
	}
	if err := p.site.SubmitSearch(ctx, p.driver, keyword); err != nil {
		return searchError(keyword, err)
	}

	if filterer, ok := p.site.(DateFilterer); ok {
		dr := p.dateRange
		if ranger, ok := p.site.(DefaultDateRanger); ok && dr.IsZero() {
			dr = ranger.DefaultDateRange()
		}
		if !dr.IsZero() {
			log.Info("applying date filter", "from", formatDay(dr.From), "to", formatDay(dr.To))
			if err := filterer.ApplyDateFilter(ctx, p.driver, dr.From, dr.To); err != nil {
				return searchError(keyword, err)
			}
		}
	}

	log.Info("sorting by last modified")
	if err := p.site.ApplySort(ctx, p.driver); err != nil {
		return searchError(keyword, err)
	}
	return nil
}

// nextControl returns the next page control when it exists, is enabled and
// leads somewhere
func (p *Paginator) nextControl(ctx context.Context) (fetcher.Element, bool, error) {
	found, err := p.driver.FindAll(ctx, p.site.NextLocator())
	if err != nil {
		return nil, false, err
	}
	if len(found) == 0 {
		return nil, false, nil
	}
	el := found[0]

	class, _, err := p.driver.Attribute(ctx, el, "class")
	if err != nil {
		return nil, false, err
	}
	if strings.Contains(class, "disabled") {
		return nil, false, nil
	}

	href, ok, err := p.driver.Attribute(ctx, el, "href")
	if err != nil {
		return nil, false, err
	}
	if ok && strings.TrimSpace(href) == "javascript:;" {
		return nil, false, nil
	}

	return el, true, nil
}

// searchError wraps err as a search failure unless it already says there are no results
func searchError(keyword string, err error) error {
	if errors.Is(err, models.ErrNoResults) {
		return fmt.Errorf("search %q: %w", keyword, err)
	}
	return fmt.Errorf("%w: %q: %w", models.ErrSearch, keyword, err)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
