package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is one HTML table reduced to its header and data cells
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ExtractTables pulls every table that has both header cells and data rows out of an HTML page
func ExtractTables(htmlContent string) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var tables []Table
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var headers []string
		table.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, cleanText(th.Text()))
		})

		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() == 0 {
				return
			}
			row := make([]string, 0, cells.Length())
			cells.Each(func(_ int, td *goquery.Selection) {
				row = append(row, cleanText(td.Text()))
			})
			rows = append(rows, row)
		})

		// Layout tables without headers are noise
		if len(headers) > 0 && len(rows) > 0 {
			tables = append(tables, Table{Headers: headers, Rows: rows})
		}
	})

	return tables, nil
}

func cleanText(s string) string {
	return strings.TrimSpace(s)
}
