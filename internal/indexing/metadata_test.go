package indexing_test

import (
	"path/filepath"
	"testing"

	"github.com/docindex/mcp-server/internal/indexing"
)

func loadFixture(t *testing.T) *indexing.Table {
	t.Helper()
	table, err := indexing.Load(filepath.Join("testdata", "search_index.js"))
	if err != nil {
		t.Fatalf("Failed to load fixture: %v", err)
	}
	return table
}

func TestAnchorFor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single word", input: "About", expected: "#About"},
		{name: "words with spaces", input: "Installation instructions", expected: "#Installation-instructions"},
		{name: "keeps dots and case", input: "Derive.jl", expected: "#Derive.jl"},
		{name: "collapses whitespace", input: "  Getting   started ", expected: "#Getting-started"},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := indexing.AnchorFor(tt.input)
			if result != tt.expected {
				t.Errorf("indexing.AnchorFor() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	stats := indexing.ComputeStats(loadFixture(t))

	want := indexing.Stats{
		Records:     32,
		Pages:       1,
		Sections:    4,
		PageEntries: 28,
		EmptyText:   5,
		Locations:   5,
	}
	if stats != want {
		t.Errorf("ComputeStats() = %+v, want %+v", stats, want)
	}
}

func TestOutline(t *testing.T) {
	table := indexing.NewTable([]indexing.IndexRecord{
		{Location: "", Page: "Home", Title: "Home", Category: indexing.CategoryPage},
		{Location: "#Intro", Page: "Home", Title: "Intro", Category: indexing.CategorySection},
		{Location: "api/", Page: "API", Title: "API", Category: indexing.CategoryPage},
		{Location: "#Usage", Page: "Home", Title: "Usage", Category: indexing.CategorySection},
		{Location: "api/#Types", Page: "API", Title: "Types", Category: indexing.CategorySection},
	})

	outline := indexing.Outline(table)
	if len(outline) != 2 {
		t.Fatalf("Outline() returned %d pages, want 2", len(outline))
	}

	if outline[0].Page != "Home" || outline[1].Page != "API" {
		t.Errorf("pages out of first-appearance order: %q, %q", outline[0].Page, outline[1].Page)
	}
	if outline[0].Records != 3 {
		t.Errorf("Home has %d records, want 3", outline[0].Records)
	}

	sections := outline[0].Sections
	if len(sections) != 2 || sections[0].Title != "Intro" || sections[1].Title != "Usage" {
		t.Errorf("Home sections = %+v, want Intro then Usage", sections)
	}
	if outline[1].Sections[0].Location != "api/#Types" {
		t.Errorf("API section location = %q", outline[1].Sections[0].Location)
	}
}

func TestOutlineEmptyTable(t *testing.T) {
	if outline := indexing.Outline(indexing.NewTable(nil)); len(outline) != 0 {
		t.Errorf("Outline() of empty table = %+v", outline)
	}
}

func TestPageOutlineFor(t *testing.T) {
	table := loadFixture(t)

	outline, ok := indexing.PageOutlineFor(table, "Home")
	if !ok {
		t.Fatal("expected Home page")
	}

	wantTitles := []string{"Derive.jl", "About", "Installation instructions", "Examples"}
	if len(outline.Sections) != len(wantTitles) {
		t.Fatalf("got %d sections, want %d", len(outline.Sections), len(wantTitles))
	}
	for i, title := range wantTitles {
		if outline.Sections[i].Title != title {
			t.Errorf("section %d = %q, want %q", i, outline.Sections[i].Title, title)
		}
		if outline.Sections[i].Location != indexing.AnchorFor(title) {
			t.Errorf("section %d location = %q, want %q", i, outline.Sections[i].Location, indexing.AnchorFor(title))
		}
	}

	if _, ok := indexing.PageOutlineFor(table, "Missing"); ok {
		t.Error("unexpected outline for missing page")
	}
}

func TestFilter(t *testing.T) {
	table := loadFixture(t)

	tests := []struct {
		name     string
		page     string
		category indexing.Category
		want     int
	}{
		{name: "no filter", want: 32},
		{name: "sections only", category: indexing.CategorySection, want: 4},
		{name: "page entries of Home", page: "Home", category: indexing.CategoryPage, want: 28},
		{name: "unknown page", page: "Nope", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := indexing.Filter(table, tt.page, tt.category)
			if len(got) != tt.want {
				t.Errorf("Filter() returned %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	records := loadFixture(t).Records()

	tests := []struct {
		name          string
		offset, limit int
		want          int
	}{
		{"first page", 0, 10, 10},
		{"tail", 30, 10, 2},
		{"past the end", 32, 10, 0},
		{"negative offset", -5, 3, 3},
		{"zero limit", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := indexing.Paginate(records, tt.offset, tt.limit)
			if got == nil {
				t.Fatal("Paginate returned nil")
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}
