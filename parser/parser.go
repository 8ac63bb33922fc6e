package parser

import (
	"fmt"
	"net/url"
	"strings"

	"regdoc-scraper/logger"
	"regdoc-scraper/models"
)

// Extractor turns one page's raw result rows into records
type Extractor struct {
	// Origin resolves relative links, e.g. "https://echa.europa.eu"
	Origin string
	// TitleLimit cuts the title used in identifiers, 0 keeps it whole
	TitleLimit int
	Classifier Classifier
	Logger     *logger.Logger
}

// Extract converts rows into records in presentation order. Identifiers are
// claimed from ids, which spans the whole keyword pass, not just this page.
// Rows missing a link, title or date are skipped with a warning.
func (e *Extractor) Extract(rows []models.RawRow, ids *IdentifierSet) []models.Record {
	records := make([]models.Record, 0, len(rows))

	for i, row := range rows {
		record, err := e.extractRow(row, ids)
		if err != nil {
			if e.Logger != nil {
				e.Logger.Warn("skipping result row", "row", i, "error", err)
			}
			continue
		}
		records = append(records, record)
	}

	return records
}

// extractRow builds one record, claiming its identifier only once the row is valid
func (e *Extractor) extractRow(row models.RawRow, ids *IdentifierSet) (models.Record, error) {
	href := strings.TrimSpace(row.Href)
	title := strings.TrimSpace(row.Title)
	rawDate := strings.TrimSpace(row.Date)

	switch {
	case href == "":
		return models.Record{}, fmt.Errorf("%w: missing link", models.ErrExtraction)
	case title == "":
		return models.Record{}, fmt.Errorf("%w: missing title", models.ErrExtraction)
	case rawDate == "":
		return models.Record{}, fmt.Errorf("%w: missing date", models.ErrExtraction)
	}

	link, err := e.resolve(href)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %v", models.ErrExtraction, err)
	}

	date := NormalizeDate(rawDate)
	id := ids.Claim(BuildIdentifier(date, title, e.TitleLimit))

	kind := models.KindPage
	if e.Classifier != nil {
		kind = e.Classifier.Classify(link, row)
	}

	return models.Record{
		URL:         link,
		Date:        date,
		Identifier:  id,
		Description: strings.TrimSpace(row.Description),
		Kind:        kind,
	}, nil
}

// resolve makes href absolute against the site origin
func (e *Extractor) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", href, err)
	}
	if ref.IsAbs() || e.Origin == "" {
		return ref.String(), nil
	}

	base, err := url.Parse(e.Origin)
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", e.Origin, err)
	}
	return base.ResolveReference(ref).String(), nil
}
