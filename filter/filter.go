package filter

import (
	"time"

	"regdoc-scraper/models"
	"regdoc-scraper/parser"
)

// DateFilter keeps records dated within [From, To]. A zero bound is open.
type DateFilter struct {
	From time.Time
	To   time.Time
}

// NewDateFilter creates a new DateFilter instance
func NewDateFilter(from, to time.Time) *DateFilter {
	return &DateFilter{
		From: from,
		To:   to,
	}
}

// IsZero reports whether the filter lets everything through
func (f *DateFilter) IsZero() bool {
	return f == nil || (f.From.IsZero() && f.To.IsZero())
}

// Apply returns the records that match, keeping their order
func (f *DateFilter) Apply(records []models.Record) []models.Record {
	if f.IsZero() {
		return records
	}

	filtered := make([]models.Record, 0, len(records))
	for _, record := range records {
		if f.Matches(record) {
			filtered = append(filtered, record)
		}
	}

	return filtered
}

// Matches checks a record against the date bounds
func (f *DateFilter) Matches(record models.Record) bool {
	date, ok := parser.ParseDate(record.Date)
	if !ok {
		// Can't tell, so don't drop it
		return true
	}

	if !f.From.IsZero() && date.Before(truncateDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && date.After(truncateDay(f.To)) {
		return false
	}

	return true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
