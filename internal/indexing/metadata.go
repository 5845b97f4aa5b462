package indexing

import "strings"

// SectionRef points at one section entry of a page
type SectionRef struct {
	Title    string `json:"title"`
	Location string `json:"location"`
}

// PageOutline summarises the entries that belong to one page
type PageOutline struct {
	Page     string       `json:"page"`
	Sections []SectionRef `json:"sections"`
	Records  int          `json:"records"`
}

// Stats holds counts over a table
type Stats struct {
	Records     int `json:"records"`
	Pages       int `json:"pages"`        // Distinct page names
	Sections    int `json:"sections"`     // Records with category "section"
	PageEntries int `json:"page_entries"` // Records with category "page"
	EmptyText   int `json:"empty_text"`
	Locations   int `json:"locations"` // Distinct locations
}

// Outline groups records by page, pages in order of first appearance
func Outline(t *Table) []PageOutline {
	var outlines []PageOutline
	pos := make(map[string]int)

	for _, rec := range t.All() {
		i, ok := pos[rec.Page]
		if !ok {
			i = len(outlines)
			pos[rec.Page] = i
			outlines = append(outlines, PageOutline{Page: rec.Page, Sections: []SectionRef{}})
		}
		outlines[i].Records++
		if rec.Category == CategorySection {
			outlines[i].Sections = append(outlines[i].Sections, SectionRef{
				Title:    rec.Title,
				Location: rec.Location,
			})
		}
	}
	return outlines
}

// PageOutlineFor returns the outline of a single page
func PageOutlineFor(t *Table, page string) (PageOutline, bool) {
	for _, o := range Outline(t) {
		if o.Page == page {
			return o, true
		}
	}
	return PageOutline{}, false
}

// ComputeStats counts records, pages and locations in t
func ComputeStats(t *Table) Stats {
	pages := make(map[string]struct{})
	locations := make(map[string]struct{})
	var s Stats

	for _, rec := range t.All() {
		s.Records++
		pages[rec.Page] = struct{}{}
		locations[rec.Location] = struct{}{}
		switch rec.Category {
		case CategorySection:
			s.Sections++
		case CategoryPage:
			s.PageEntries++
		}
		if rec.Text == "" {
			s.EmptyText++
		}
	}
	s.Pages = len(pages)
	s.Locations = len(locations)
	return s
}

// AnchorFor returns the location the generator assigns to a heading.
// Example: "Installation instructions" -> "#Installation-instructions"
func AnchorFor(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return "#" + strings.Join(strings.Fields(title), "-")
}

// Filter returns the records matching page and category; empty arguments match anything
func Filter(t *Table, page string, category Category) []IndexRecord {
	var out []IndexRecord
	for _, rec := range t.All() {
		if page != "" && rec.Page != page {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Paginate returns records[offset:offset+limit], clamped to the slice bounds.
// The result is never nil.
func Paginate(records []IndexRecord, offset, limit int) []IndexRecord {
	offset = max(offset, 0)
	if offset >= len(records) || limit <= 0 {
		return []IndexRecord{}
	}
	end := min(offset+limit, len(records))
	return records[offset:end:end]
}
