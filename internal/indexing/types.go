package indexing

import (
	"iter"
	"slices"
)

// Category classifies an index record as a whole page or a section of a page
type Category string

const (
	CategoryPage    Category = "page"
	CategorySection Category = "section"
)

// Known reports whether c is one of the categories the generator emits
func (c Category) Known() bool {
	return c == CategoryPage || c == CategorySection
}

// IndexRecord is one entry of the documentation search table.
// Field order matches the generator's output and must not change.
type IndexRecord struct {
	Location string   `json:"location"` // Page anchor/path, not unique across the table
	Page     string   `json:"page"`     // Display name of the page
	Title    string   `json:"title"`    // Section title, may be empty
	Text     string   `json:"text"`     // Indexable snippet, may be empty
	Category Category `json:"category"`
}

// Table is the ordered, read-only sequence of records loaded from one artifact.
// A Table is never modified after construction; regeneration produces a new Table.
type Table struct {
	records []IndexRecord
}

// NewTable builds a table from a copy of records
func NewTable(records []IndexRecord) *Table {
	return &Table{records: slices.Clone(records)}
}

// Len returns the number of records
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// At returns the record at position i
func (t *Table) At(i int) IndexRecord {
	return t.records[i]
}

// Records returns a copy of the records in source order
func (t *Table) Records() []IndexRecord {
	if t == nil {
		return nil
	}
	return slices.Clone(t.records)
}

// All iterates over the records in source order
func (t *Table) All() iter.Seq2[int, IndexRecord] {
	return func(yield func(int, IndexRecord) bool) {
		if t == nil {
			return
		}
		for i, rec := range t.records {
			if !yield(i, rec) {
				return
			}
		}
	}
}

// Equal reports whether both tables hold the same records in the same order
func (t *Table) Equal(other *Table) bool {
	return slices.Equal(t.Records(), other.Records())
}
