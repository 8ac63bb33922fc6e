package scheduler

import (
	"context"
	"testing"
	"time"

	"regdoc-scraper/logger"
	"regdoc-scraper/models"
	"regdoc-scraper/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func benzeneRows() []models.RawRow {
	return []models.RawRow{
		{Href: "/docs/opinion.pdf", Title: "Opinion", Date: "09/08/12", Description: "RAC opinion"},
		{Href: "/docs/annex.pdf", Title: "Annex", Date: "10/08/12"},
		{Href: "/substance/benzene", Title: "Substance", Date: "01/01/10"},
	}
}

func TestOrchestratorRun(t *testing.T) {
	driver := &stubDriver{}
	site := &stubSite{rows: map[string][]models.RawRow{"benzene": benzeneRows()}}
	store := newMemStore()
	sink := &memSink{}
	tracker := &memTracker{}
	notifier := &memNotifier{}

	o := NewOrchestrator(driver, site, store, Options{
		Sinks:    []RecordSink{sink},
		Tracker:  tracker,
		Notifier: notifier,
	}, logger.Discard())
	report := o.Run(context.Background(), []string{"benzene"})

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "stub", report.Site)
	assert.Equal(t, "done", report.Status())
	require.Len(t, report.Keywords, 1)

	kr := report.Keywords[0]
	assert.NoError(t, kr.Err)
	assert.Equal(t, 1, kr.PagesVisited)
	assert.Equal(t, 2, kr.Documents)
	assert.Equal(t, 1, kr.Pages)
	assert.Equal(t, 1, kr.Tables)
	assert.Zero(t, kr.Failed)

	assert.Equal(t, []string{"benzene"}, store.folders)
	assert.Equal(t, []string{"2012-08-09-Opinion", "2012-08-10-Annex"}, store.documents)
	assert.Equal(t, []string{"2010-01-01-Substance"}, store.pages)
	assert.Equal(t, []string{"2010-01-01-Substance"}, store.tables)
	assert.Len(t, store.metadata, 3)
	assert.Len(t, store.summaries, 3)

	require.Len(t, sink.calls, 1)
	assert.Equal(t, report.ID, sink.calls[0].runID)
	assert.Equal(t, "stub", sink.calls[0].site)
	assert.Len(t, sink.calls[0].records, 3)

	assert.Len(t, tracker.started, 1)
	assert.Len(t, tracker.finished, 1)
	assert.Equal(t, 1, notifier.count())
	assert.Equal(t, 1, driver.closeCount())
}

func TestOrchestratorIsolatesKeywordFailures(t *testing.T) {
	driver := &stubDriver{}
	site := &stubSite{rows: map[string][]models.RawRow{"benzene": benzeneRows()}}
	store := newMemStore()
	store.failDirs["no space"] = true

	report := NewOrchestrator(driver, site, store, Options{}, logger.Discard()).
		Run(context.Background(), []string{"broken", "unknown", "no space", "benzene"})

	require.Len(t, report.Keywords, 4)
	assert.ErrorIs(t, report.Keywords[0].Err, models.ErrSearch)
	assert.ErrorIs(t, report.Keywords[1].Err, models.ErrNoResults)
	assert.ErrorContains(t, report.Keywords[2].Err, "read-only")
	assert.NoError(t, report.Keywords[3].Err)
	assert.Equal(t, 2, report.Keywords[3].Documents)

	assert.Equal(t, "partial", report.Status())
	assert.Len(t, report.FailedKeywords(), 3)
	assert.Equal(t, 1, driver.closeCount())
}

func TestOrchestratorExcludesFailedDownloads(t *testing.T) {
	site := &stubSite{rows: map[string][]models.RawRow{"benzene": benzeneRows()}}
	store := newMemStore()
	store.failURLs["https://example.org/docs/opinion.pdf"] = true
	store.failURLs["https://example.org/substance/benzene"] = true
	sink := &memSink{}

	report := NewOrchestrator(&stubDriver{}, site, store, Options{Sinks: []RecordSink{sink}}, logger.Discard()).
		Run(context.Background(), []string{"benzene"})

	kr := report.Keywords[0]
	assert.NoError(t, kr.Err)
	assert.Equal(t, 1, kr.Documents)
	assert.Zero(t, kr.Pages)
	assert.Equal(t, 2, kr.Failed)

	assert.Equal(t, []string{"2012-08-10-Annex"}, store.metadata)
	assert.Equal(t, []string{"2012-08-10-Annex"}, store.summaries)
	assert.Empty(t, store.discarded)
	require.Len(t, sink.calls, 1)
	require.Len(t, sink.calls[0].records, 1)
	assert.Equal(t, "2012-08-10-Annex", sink.calls[0].records[0].Identifier)
}

func TestOrchestratorDiscardsPartiallyStoredDocuments(t *testing.T) {
	site := &stubSite{rows: map[string][]models.RawRow{"benzene": benzeneRows()}}
	store := newMemStore()
	store.failWrites["2012-08-09-Opinion"] = true
	sink := &memSink{}

	report := NewOrchestrator(&stubDriver{}, site, store, Options{Sinks: []RecordSink{sink}}, logger.Discard()).
		Run(context.Background(), []string{"benzene"})

	kr := report.Keywords[0]
	assert.Equal(t, 1, kr.Documents)
	assert.Equal(t, 1, kr.Failed)

	// Downloaded, then removed again once its metadata could not be written
	assert.Equal(t, []string{"2012-08-09-Opinion", "2012-08-10-Annex"}, store.documents)
	assert.Equal(t, []string{"2012-08-09-Opinion"}, store.discarded)
	require.Len(t, sink.calls, 1)
	for _, r := range sink.calls[0].records {
		assert.NotEqual(t, "2012-08-09-Opinion", r.Identifier)
	}
}

func TestOrchestratorLocalDateFilter(t *testing.T) {
	dr := scraper.DateRange{From: time.Date(2012, 8, 10, 0, 0, 0, 0, time.UTC)}

	t.Run("site without native filter", func(t *testing.T) {
		site := &stubSite{rows: map[string][]models.RawRow{"benzene": benzeneRows()}}
		store := newMemStore()

		report := NewOrchestrator(&stubDriver{}, site, store, Options{DateRange: dr}, logger.Discard()).
			Run(context.Background(), []string{"benzene"})

		kr := report.Keywords[0]
		assert.Equal(t, 2, kr.Filtered)
		assert.Equal(t, []string{"2012-08-10-Annex"}, store.documents)
		assert.Empty(t, store.pages)
	})

	t.Run("site with native filter", func(t *testing.T) {
		site := &datedStubSite{stubSite{rows: map[string][]models.RawRow{"benzene": benzeneRows()}}}
		store := newMemStore()

		report := NewOrchestrator(&stubDriver{}, site, store, Options{DateRange: dr}, logger.Discard()).
			Run(context.Background(), []string{"benzene"})

		assert.Zero(t, report.Keywords[0].Filtered)
		assert.Len(t, store.documents, 2)
	})
}

func TestOrchestratorCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	driver := &stubDriver{}
	notifier := &memNotifier{}

	report := NewOrchestrator(driver, &stubSite{}, newMemStore(), Options{Notifier: notifier}, logger.Discard()).
		Run(ctx, []string{"benzene", "toluene"})

	assert.Empty(t, report.Keywords)
	assert.Equal(t, 1, driver.closeCount())
	assert.Equal(t, 1, notifier.count())
}
