package tools

import "embed"

// The default artifact ships inside the binary so the server can answer
// before any documentation build has produced a local search_index.js.

//go:embed data/search_index.js
var embeddedFS embed.FS

// embeddedIndexPath is the path of the default artifact inside the data provider
const embeddedIndexPath = "data/search_index.js"

// embeddedDataProvider implements DataProvider using embed.FS.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates a production DataProvider that uses embedded files.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

// Default provider used by stores that were not given one
var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
