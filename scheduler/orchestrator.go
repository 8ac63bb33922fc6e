package scheduler

import (
	"context"
	"errors"
	"time"

	"regdoc-scraper/fetcher"
	"regdoc-scraper/filter"
	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/scraper"

	"github.com/google/uuid"
)

// Persistence stores what a keyword pass located. *storage.FileStore satisfies it.
type Persistence interface {
	EnsureKeywordFolders(keyword string) error
	DownloadAndStore(ctx context.Context, keyword string, record models.Record) ([]byte, error)
	DiscardDocument(keyword string, record models.Record) error
	FetchPage(ctx context.Context, record models.Record) (string, error)
	WriteMetadata(keyword string, record models.Record) error
	WriteSummary(keyword string, record models.Record) error
	ExtractAndStoreTables(htmlContent, keyword string, record models.Record) (int, error)
}

// RecordSink receives the records persisted for one keyword
type RecordSink interface {
	SaveRecords(ctx context.Context, runID, site, keyword string, records []models.Record) error
}

// RunTracker is told when a run starts and finishes
type RunTracker interface {
	StartRun(ctx context.Context, run models.RunReport) error
	FinishRun(ctx context.Context, run models.RunReport) error
}

// Notifier is sent the report of every finished run
type Notifier interface {
	NotifyRun(ctx context.Context, run models.RunReport) error
}

// Options configures an Orchestrator. Everything is optional.
type Options struct {
	PageLimit models.PageLimit
	DateRange scraper.DateRange
	Sinks     []RecordSink
	Tracker   RunTracker
	Notifier  Notifier
}

// Orchestrator runs every keyword through one site and browser session
type Orchestrator struct {
	driver fetcher.Driver
	site   scraper.Site
	store  Persistence
	opts   Options
	filter *filter.DateFilter
	logger *logger.Logger
}

// NewOrchestrator creates an orchestrator owning driver. The driver is closed when Run returns.
func NewOrchestrator(driver fetcher.Driver, site scraper.Site, store Persistence, opts Options, log *logger.Logger) *Orchestrator {
	o := &Orchestrator{
		driver: driver,
		site:   site,
		store:  store,
		opts:   opts,
		logger: log,
	}

	// Sites that can't filter by date natively get filtered after extraction
	if _, native := site.(scraper.DateFilterer); !native && !opts.DateRange.IsZero() {
		o.filter = filter.NewDateFilter(opts.DateRange.From, opts.DateRange.To)
	}

	return o
}

// Run processes keywords one after another. A failing keyword is logged and
// recorded in the report; the remaining keywords still run.
func (o *Orchestrator) Run(ctx context.Context, keywords []string) models.RunReport {
	report := models.RunReport{
		ID:        uuid.NewString(),
		Site:      o.site.Name(),
		StartedAt: time.Now().UTC(),
	}
	log := o.logger.With("site", report.Site, "run", report.ID)

	defer func() {
		if err := o.driver.Close(); err != nil {
			log.Warn("failed to close browser", "error", err)
		}
	}()

	log.Info("starting the scraping process", "keywords", len(keywords), "page_limit", int(o.opts.PageLimit))
	if o.opts.Tracker != nil {
		if err := o.opts.Tracker.StartRun(ctx, report); err != nil {
			log.Warn("failed to record run start", "error", err)
		}
	}

	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled, skipping remaining keywords", "error", err)
			break
		}
		report.Keywords = append(report.Keywords, o.runKeyword(ctx, report.ID, keyword, log.With("keyword", keyword)))
	}

	report.FinishedAt = time.Now().UTC()
	totals := report.Totals()
	log.Info("scraping process completed",
		"status", report.Status(),
		"documents", totals.Documents,
		"pages", totals.Pages,
		"failed", totals.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))

	// The run context may be cancelled by now, reporting still goes out
	finishCtx := context.WithoutCancel(ctx)
	if o.opts.Tracker != nil {
		if err := o.opts.Tracker.FinishRun(finishCtx, report); err != nil {
			log.Warn("failed to record run finish", "error", err)
		}
	}
	if o.opts.Notifier != nil {
		if err := o.opts.Notifier.NotifyRun(finishCtx, report); err != nil {
			log.Warn("failed to send run notification", "error", err)
		}
	}

	return report
}

// runKeyword searches, paginates and persists one keyword
func (o *Orchestrator) runKeyword(ctx context.Context, runID, keyword string, log *logger.Logger) models.KeywordReport {
	kr := models.KeywordReport{Keyword: keyword}

	if err := o.store.EnsureKeywordFolders(keyword); err != nil {
		log.Error("failed to prepare keyword folders", "error", err)
		kr.Err = err
		return kr
	}

	paginator := scraper.NewPaginator(o.driver, o.site, o.opts.PageLimit, o.opts.DateRange, o.logger)
	buckets, err := paginator.Run(ctx, keyword)
	kr.PagesVisited = buckets.PagesVisited
	if err != nil {
		kr.Err = err
		if errors.Is(err, models.ErrNoResults) {
			log.Warn("no results for keyword", "error", err)
		} else if errors.Is(err, models.ErrPagination) {
			log.Warn("pagination failed", "error", err)
		} else {
			log.Error("keyword search failed", "error", err)
		}
		if buckets.Len() == 0 {
			return kr
		}
		log.Info("keeping partial results", "documents", len(buckets.Documents), "pages", len(buckets.Pages))
	}

	documents, pages := buckets.Documents, buckets.Pages
	if o.filter != nil {
		documents, pages = o.filter.Apply(documents), o.filter.Apply(pages)
		kr.Filtered = buckets.Len() - len(documents) - len(pages)
		if kr.Filtered > 0 {
			log.Info("date filter dropped records", "dropped", kr.Filtered)
		}
	}

	stored := make([]models.Record, 0, len(documents)+len(pages))

	log.Info("downloading documents", "count", len(documents))
	for _, record := range documents {
		if err := o.storeDocument(ctx, keyword, record, log); err != nil {
			log.Error("failed to store document", "url", record.URL, "error", err)
			kr.Failed++
			continue
		}
		kr.Documents++
		stored = append(stored, record)
	}

	log.Info("processing pages", "count", len(pages))
	for _, record := range pages {
		tables, err := o.storePage(ctx, keyword, record)
		if err != nil {
			log.Error("failed to process page", "url", record.URL, "error", err)
			kr.Failed++
			continue
		}
		kr.Pages++
		kr.Tables += tables
		stored = append(stored, record)
	}

	for _, sink := range o.opts.Sinks {
		if err := sink.SaveRecords(ctx, runID, o.site.Name(), keyword, stored); err != nil {
			log.Warn("failed to export records", "sink", sinkName(sink), "error", err)
		}
	}

	log.Info("keyword done", "documents", kr.Documents, "pages", kr.Pages, "tables", kr.Tables, "failed", kr.Failed)
	return kr
}

// storeDocument downloads a document, then writes its metadata and summary.
// A document that fails after the download is removed again so only counted
// documents stay on disk.
func (o *Orchestrator) storeDocument(ctx context.Context, keyword string, record models.Record, log *logger.Logger) error {
	if _, err := o.store.DownloadAndStore(ctx, keyword, record); err != nil {
		return err
	}

	err := o.store.WriteMetadata(keyword, record)
	if err == nil {
		err = o.store.WriteSummary(keyword, record)
	}
	if err != nil {
		if derr := o.store.DiscardDocument(keyword, record); derr != nil {
			log.Warn("failed to discard partial document", "identifier", record.Identifier, "error", derr)
		}
		return err
	}
	return nil
}

// storePage fetches a page, writes its summary and tables, then its metadata
func (o *Orchestrator) storePage(ctx context.Context, keyword string, record models.Record) (int, error) {
	html, err := o.store.FetchPage(ctx, record)
	if err != nil {
		return 0, err
	}
	if err := o.store.WriteSummary(keyword, record); err != nil {
		return 0, err
	}
	tables, err := o.store.ExtractAndStoreTables(html, keyword, record)
	if err != nil {
		return 0, err
	}
	if err := o.store.WriteMetadata(keyword, record); err != nil {
		return 0, err
	}
	return tables, nil
}

func sinkName(sink RecordSink) string {
	if named, ok := sink.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "sink"
}
