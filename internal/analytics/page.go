package analytics

import (
	"fmt"
	"strings"
)

// DefaultPageSize is used when a page size is not given.
const DefaultPageSize = 10

// Page is one page of a filtered Result.
type Page struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"data"`
	Total   int              `json:"total"` // rows matching the filter
	Page    int              `json:"page"`  // 1-based
	Size    int              `json:"size"`
	Pages   int              `json:"pages"`
}

// Page keeps the rows where some cell contains filter (case-insensitive)
// and returns the requested 1-based page.  Out-of-range pages are clamped.
func (r Result) Page(filter string, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	rows := r.Rows
	if f := strings.ToLower(strings.TrimSpace(filter)); f != "" {
		rows = make([]map[string]any, 0, len(r.Rows))
		for _, row := range r.Rows {
			if matches(row, r.Columns, f) {
				rows = append(rows, row)
			}
		}
	}

	pages := (len(rows) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return Page{
		Columns: r.Columns,
		Rows:    rows[start:end],
		Total:   len(rows),
		Page:    page,
		Size:    size,
		Pages:   pages,
	}
}

func matches(row map[string]any, cols []string, f string) bool {
	for _, c := range cols {
		v := row[c]
		if v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), f) {
			return true
		}
	}
	return false
}
