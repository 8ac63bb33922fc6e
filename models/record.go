package models

// Kind classifies a located result for downstream handling
type Kind string

const (
	// KindDocument is a downloadable file (PDF)
	KindDocument Kind = "document"
	// KindPage is an HTML page that gets fetched and mined for tables
	KindPage Kind = "page"
)

// Record represents one located document or page
type Record struct {
	URL         string
	Date        string // YYYY-MM-DD, best effort
	Identifier  string // Unique within one keyword pass, used as a filename
	Description string
	Kind        Kind
}

// RawRow is a single search result row as read from the browser
type RawRow struct {
	Href        string
	Title       string
	Date        string
	Description string
	LinkTitle   string // title attribute of the link, used by some sites to tell PDFs apart
}

// PageLimit bounds how many result pages are traversed. Zero means unbounded.
type PageLimit int

// Unbounded reports whether the limit is the zero sentinel
func (l PageLimit) Unbounded() bool {
	return l <= 0
}

// Reached reports whether page has hit the limit, i.e. no further page may be visited
func (l PageLimit) Reached(page int) bool {
	if l.Unbounded() {
		return false
	}
	return page >= int(l)
}

// Buckets accumulates the records of one keyword pass, split by kind
type Buckets struct {
	Documents    []Record
	Pages        []Record
	PagesVisited int
}

// Add appends records to the bucket matching their kind, keeping presentation order
func (b *Buckets) Add(records ...Record) {
	for _, r := range records {
		if r.Kind == KindDocument {
			b.Documents = append(b.Documents, r)
		} else {
			b.Pages = append(b.Pages, r)
		}
	}
}

// Len returns the total number of records in both buckets
func (b *Buckets) Len() int {
	return len(b.Documents) + len(b.Pages)
}

// All returns documents followed by pages
func (b *Buckets) All() []Record {
	all := make([]Record, 0, b.Len())
	all = append(all, b.Documents...)
	return append(all, b.Pages...)
}
