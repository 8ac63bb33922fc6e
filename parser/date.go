package parser

import (
	"strings"
	"time"
)

// dateLayout is the canonical record date format
const dateLayout = "2006-01-02"

// NormalizeDate converts a raw result date into YYYY-MM-DD.
// Sites print DD/MM/YY, DD-MM-YYYY or DD.MM.YYYY, sometimes followed by an
// annotation after ';'. Two-digit years get a "20" prefix. Input that does not
// split into three parts is returned with its separators normalized, never rejected.
func NormalizeDate(raw string) string {
	text := raw
	if idx := strings.Index(text, ";"); idx != -1 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	text = strings.NewReplacer("/", "-", ".", "-").Replace(text)

	parts := strings.Split(text, "-")
	if len(parts) != 3 {
		return text
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	// Already year first
	if len(parts[0]) == 4 {
		return parts[0] + "-" + padTwo(parts[1]) + "-" + padTwo(parts[2])
	}

	day, month, year := parts[0], parts[1], parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return year + "-" + padTwo(month) + "-" + padTwo(day)
}

// ParseDate parses a normalized record date
func ParseDate(date string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
