package indexing

// Artifact layout constants
const (
	// WrapperVariable is the global the search widget reads the table from
	WrapperVariable = "documenterSearchIndex"
	// WrapperKey is the single key of the object holding the record sequence
	WrapperKey = "docs"
	// IndexSchemaVersion increments when the on-disk artifact layout changes
	IndexSchemaVersion = 1
)
