package models

import "time"

// KeywordReport summarizes one keyword pass
type KeywordReport struct {
	Keyword      string
	PagesVisited int
	Documents    int // documents downloaded and persisted
	Pages        int // pages fetched and persisted
	Tables       int // tables mined from pages
	Filtered     int // records dropped by the local date filter
	Failed       int // records excluded after a download or write failure
	Err          error
}

// Stored returns the number of persisted records
func (k KeywordReport) Stored() int {
	return k.Documents + k.Pages
}

// RunReport summarizes one orchestrator run over all keywords
type RunReport struct {
	ID         string
	Site       string
	StartedAt  time.Time
	FinishedAt time.Time
	Keywords   []KeywordReport
}

// Totals sums the keyword reports
func (r RunReport) Totals() KeywordReport {
	var t KeywordReport
	for _, k := range r.Keywords {
		t.PagesVisited += k.PagesVisited
		t.Documents += k.Documents
		t.Pages += k.Pages
		t.Tables += k.Tables
		t.Filtered += k.Filtered
		t.Failed += k.Failed
	}
	return t
}

// FailedKeywords returns the keywords whose pass ended with an error
func (r RunReport) FailedKeywords() []KeywordReport {
	var failed []KeywordReport
	for _, k := range r.Keywords {
		if k.Err != nil {
			failed = append(failed, k)
		}
	}
	return failed
}

// Status is "done" when every keyword succeeded, "partial" when some did and "failed" otherwise
func (r RunReport) Status() string {
	failed := len(r.FailedKeywords())
	switch {
	case failed == 0:
		return "done"
	case failed < len(r.Keywords):
		return "partial"
	default:
		return "failed"
	}
}
