package models

import "errors"

// Failure classes. Errors returned by the scraper wrap one of these so callers can
// tell a failed search from a broken pagination loop with errors.Is.
var (
	ErrSearch     = errors.New("search failed")
	ErrNoResults  = errors.New("no results found for this keyword")
	ErrExtraction = errors.New("malformed result row")
	ErrPagination = errors.New("pagination stopped")
	ErrDownload   = errors.New("download failed")
)
