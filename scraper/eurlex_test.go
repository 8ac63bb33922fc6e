package scraper

import (
	"context"
	"testing"
	"time"

	"regdoc-scraper/logger"
	"regdoc-scraper/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eurlexResult(name, date string, links map[string]string) *fakeElement {
	result := &fakeElement{children: map[string][]*fakeElement{
		eurlexNameLinks.Value: {{text: name, attrs: map[string]string{"href": "./legal-content/EN/AUTO/?uri=CELEX"}}},
		eurlexDates.Value:     {{text: date}},
	}}
	if href, ok := links["pdf"]; ok {
		result.children[eurlexPDFLinks.Value] = []*fakeElement{{attrs: map[string]string{"href": href, "title": "pdf - EN"}}}
	}
	if href, ok := links["html"]; ok {
		result.children[eurlexHTMLLinks.Value] = []*fakeElement{{attrs: map[string]string{"href": href, "title": "html - EN"}}}
	}
	return result
}

func eurlexDriver() *fakeDriver {
	d := newFakeDriver()
	d.static[eurlexSearchBox.Value] = []*fakeElement{{}}
	d.static[eurlexSortSelect.Value] = []*fakeElement{{}}
	d.pages = []map[string][]*fakeElement{{
		eurlexResults.Value: {
			eurlexResult("Regulation (EC) No 1907/2006 of the European Parliament", "18/12/2006", map[string]string{
				"pdf":  "/legal-content/EN/TXT/PDF/?uri=CELEX:32006R1907",
				"html": "/legal-content/EN/TXT/HTML/?uri=CELEX:32006R1907",
			}),
			eurlexResult("Commission Decision on benzene limits", "01/02/2019", map[string]string{
				"html": "https://eur-lex.europa.eu/legal-content/EN/TXT/HTML/?uri=CELEX:32019D0001",
			}),
		},
	}}
	return d
}

func TestEURLexReadRowsOrdersPDFFirst(t *testing.T) {
	rows, err := NewEURLex("", time.Second).ReadRows(context.Background(), eurlexDriver())

	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "pdf - EN", rows[0].LinkTitle)
	assert.Equal(t, "html - EN", rows[1].LinkTitle)
	assert.Equal(t, "Commission Decision on benzene limits", rows[2].Title)
	assert.Equal(t, rows[0].Title, rows[0].Description)
}

func TestEURLexRun(t *testing.T) {
	d := eurlexDriver()

	buckets, err := NewPaginator(d, NewEURLex("", time.Second), 0, DateRange{}, logger.Discard()).Run(context.Background(), "benzene")
	require.NoError(t, err)

	assert.Equal(t, []string{"DD"}, d.selected)
	assert.Equal(t, 1, buckets.PagesVisited)

	require.Len(t, buckets.Documents, 1)
	doc := buckets.Documents[0]
	assert.Equal(t, "https://eur-lex.europa.eu/legal-content/EN/TXT/PDF/?uri=CELEX:32006R1907", doc.URL)
	assert.Equal(t, "2006-12-18-Regulation_(EC)_No_1", doc.Identifier)
	assert.Equal(t, "2006-12-18", doc.Date)

	require.Len(t, buckets.Pages, 2)
	// HTML rendition of the same act shares date and truncated title
	assert.Equal(t, "2006-12-18-Regulation_(EC)_No_1-1", buckets.Pages[0].Identifier)
	assert.Equal(t, "2019-02-01-Commission_Decision_", buckets.Pages[1].Identifier)
}

func TestEURLexMissingSortMeansNoResults(t *testing.T) {
	d := eurlexDriver()
	delete(d.static, eurlexSortSelect.Value)

	buckets, err := NewPaginator(d, NewEURLex("", time.Second), 0, DateRange{}, logger.Discard()).Run(context.Background(), "unobtainium")

	assert.ErrorIs(t, err, models.ErrNoResults)
	assert.NotErrorIs(t, err, models.ErrSearch)
	assert.Zero(t, buckets.Len())
}

func TestEURLexEmptyFirstPage(t *testing.T) {
	d := eurlexDriver()
	d.pages[0] = map[string][]*fakeElement{
		eurlexNoResults.Value: {{text: "No results found"}},
	}

	buckets, err := NewPaginator(d, NewEURLex("", time.Second), 0, DateRange{}, logger.Discard()).Run(context.Background(), "unobtainium")

	require.NoError(t, err)
	assert.Zero(t, buckets.Len())
	assert.Equal(t, 1, buckets.PagesVisited)
}

func TestEURLexEmptyLaterPageStops(t *testing.T) {
	d := eurlexDriver()
	d.pages[0][eurlexNext.Value] = []*fakeElement{nextLink(map[string]string{"href": "./search.html?page=2"})}
	d.pages = append(d.pages, map[string][]*fakeElement{
		eurlexNoResults.Value: {{text: "No results found"}},
	})

	buckets, err := NewPaginator(d, NewEURLex("", time.Second), 0, DateRange{}, logger.Discard()).Run(context.Background(), "benzene")

	require.NoError(t, err)
	assert.Equal(t, 2, buckets.PagesVisited)
	assert.Len(t, buckets.Documents, 1)
	assert.Len(t, buckets.Pages, 2)
}

func TestEURLexUnrenderedPageIsPaginationFailure(t *testing.T) {
	d := eurlexDriver()
	d.pages[0][eurlexNext.Value] = []*fakeElement{nextLink(map[string]string{"href": "./search.html?page=2"})}
	d.pages = append(d.pages, map[string][]*fakeElement{})

	buckets, err := NewPaginator(d, NewEURLex("", time.Second), 0, DateRange{}, logger.Discard()).Run(context.Background(), "benzene")

	assert.ErrorIs(t, err, models.ErrPagination)
	assert.Equal(t, 1, buckets.PagesVisited)
	assert.Equal(t, 3, buckets.Len())
}
