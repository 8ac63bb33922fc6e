package parser

import (
	"net/url"
	"strings"

	"regdoc-scraper/models"
)

// Classifier decides whether a result row points at a document or a page
type Classifier interface {
	Classify(resolvedURL string, row models.RawRow) models.Kind
}

// PathSuffixClassifier marks a row as a document when the last or second-to-last
// path segment of its URL ends with Suffix. ECHA serves files as
// /documents/<folder>/<name>.pdf/<uuid>.
type PathSuffixClassifier struct {
	Suffix string
}

// Classify implements Classifier
func (c PathSuffixClassifier) Classify(resolvedURL string, _ models.RawRow) models.Kind {
	path := resolvedURL
	if u, err := url.Parse(resolvedURL); err == nil {
		path = u.Path
	}

	segments := strings.Split(strings.TrimSuffix(path, "/"), "/")
	suffix := strings.ToLower(c.Suffix)
	for i := len(segments) - 1; i >= 0 && i >= len(segments)-2; i-- {
		if strings.HasSuffix(strings.ToLower(segments[i]), suffix) {
			return models.KindDocument
		}
	}
	return models.KindPage
}

// LinkTitleClassifier marks a row as a document when its link title starts with Prefix.
// EUR-Lex titles its format links "pdf ..." and "html ...".
type LinkTitleClassifier struct {
	Prefix string
}

// Classify implements Classifier
func (c LinkTitleClassifier) Classify(_ string, row models.RawRow) models.Kind {
	title := strings.ToLower(strings.TrimSpace(row.LinkTitle))
	if strings.HasPrefix(title, strings.ToLower(c.Prefix)) {
		return models.KindDocument
	}
	return models.KindPage
}
