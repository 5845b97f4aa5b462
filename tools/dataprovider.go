package tools

// DataProvider gives access to the artifacts bundled with the binary.
// Tests swap in an in-memory provider so stores can start without embedded data.
//
// Implementations:
//   - embeddedDataProvider: embed.FS, used in production
//   - MockDataProvider: in-memory map, used in tests
type DataProvider interface {
	// ReadFile reads the named file and returns its contents.
	// The name is relative to the data root (e.g., "data/search_index.js").
	ReadFile(name string) ([]byte, error)
}
