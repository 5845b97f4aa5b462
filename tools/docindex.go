package tools

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docindex/mcp-server/internal/indexing"
	"github.com/docindex/mcp-server/internal/validation"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	// ArtifactURI is the MCP resource serving the artifact in widget format
	ArtifactURI = "docindex://search_index.js"
)

// ListIndexRecordsInput defines input for list_index_records tool
type ListIndexRecordsInput struct {
	Page     string `json:"page,omitempty" jsonschema:"Only records of this page (exact name, optional)"`
	Category string `json:"category,omitempty" jsonschema:"Only records of this category: page or section (optional)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"Index of the first matching record to return (optional, defaults to 0)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of records (optional, defaults to 50, max 200)"`
}

// ListIndexRecordsOutput defines output for list_index_records tool
type ListIndexRecordsOutput struct {
	Records []indexing.IndexRecord `json:"records"`
	Total   int                    `json:"total"` // Matching records before paging
	Offset  int                    `json:"offset"`
	Source  string                 `json:"source"`
}

// GetPageOutlineInput defines input for get_page_outline tool
type GetPageOutlineInput struct {
	Page string `json:"page,omitempty" jsonschema:"Page name (optional, all pages when empty)"`
}

// GetPageOutlineOutput defines output for get_page_outline tool
type GetPageOutlineOutput struct {
	Pages []indexing.PageOutline `json:"pages"`
}

// GetIndexStatsInput defines input for get_index_stats tool
type GetIndexStatsInput struct{}

// GetIndexStatsOutput defines output for get_index_stats tool
type GetIndexStatsOutput struct {
	Stats         indexing.Stats `json:"stats"`
	Source        string         `json:"source"`
	LoadedAt      string         `json:"loaded_at"` // RFC 3339
	SchemaVersion int            `json:"schema_version"`
}

// ValidateSearchIndexInput defines input for validate_search_index tool
type ValidateSearchIndexInput struct {
	Content string `json:"content,omitempty" jsonschema:"Serialized search index to check (optional)"`
	Path    string `json:"path,omitempty" jsonschema:"Path of a search index file to check (optional, defaults to the served artifact)"`
}

// ValidateSearchIndexOutput defines output for validate_search_index tool
type ValidateSearchIndexOutput struct {
	Result validation.Result `json:"result"`
	Source string            `json:"source"` // "inline" or the file path
}

// ReloadSearchIndexInput defines input for reload_search_index tool
type ReloadSearchIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Reload even if the file has not changed (optional, defaults to false)"`
}

// ReloadSearchIndexOutput defines output for reload_search_index tool
type ReloadSearchIndexOutput struct {
	Updated  bool   `json:"updated"`
	Records  int    `json:"records"`
	LoadedAt string `json:"loaded_at"` // RFC 3339
	Message  string `json:"message"`
}

// docIndexTools binds the MCP handlers to a store
type docIndexTools struct {
	store *Store
}

// ListIndexRecords returns a page of records in source order
func (h *docIndexTools) ListIndexRecords(ctx context.Context, req *mcp.CallToolRequest, input ListIndexRecordsInput) (*mcp.CallToolResult, ListIndexRecordsOutput, error) {
	snap, err := h.store.Snapshot()
	if err != nil {
		return nil, ListIndexRecordsOutput{}, err
	}

	category := indexing.Category(input.Category)
	if category != "" && !category.Known() {
		return nil, ListIndexRecordsOutput{}, fmt.Errorf("unknown category %q (want %q or %q)",
			input.Category, indexing.CategoryPage, indexing.CategorySection)
	}

	limit := input.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := max(input.Offset, 0)

	matches := indexing.Filter(snap.Table, input.Page, category)

	return nil, ListIndexRecordsOutput{
		Records: indexing.Paginate(matches, offset, limit),
		Total:   len(matches),
		Offset:  offset,
		Source:  snap.Source,
	}, nil
}

// GetPageOutline lists the section entries of one or all pages
func (h *docIndexTools) GetPageOutline(ctx context.Context, req *mcp.CallToolRequest, input GetPageOutlineInput) (*mcp.CallToolResult, GetPageOutlineOutput, error) {
	snap, err := h.store.Snapshot()
	if err != nil {
		return nil, GetPageOutlineOutput{}, err
	}

	if input.Page == "" {
		pages := indexing.Outline(snap.Table)
		if pages == nil {
			pages = []indexing.PageOutline{}
		}
		return nil, GetPageOutlineOutput{Pages: pages}, nil
	}

	outline, ok := indexing.PageOutlineFor(snap.Table, input.Page)
	if !ok {
		return nil, GetPageOutlineOutput{}, fmt.Errorf("page %q not found in search index", input.Page)
	}
	return nil, GetPageOutlineOutput{Pages: []indexing.PageOutline{outline}}, nil
}

// GetIndexStats reports counts over the served table
func (h *docIndexTools) GetIndexStats(ctx context.Context, req *mcp.CallToolRequest, input GetIndexStatsInput) (*mcp.CallToolResult, GetIndexStatsOutput, error) {
	snap, err := h.store.Snapshot()
	if err != nil {
		return nil, GetIndexStatsOutput{}, err
	}

	return nil, GetIndexStatsOutput{
		Stats:         indexing.ComputeStats(snap.Table),
		Source:        snap.Source,
		LoadedAt:      snap.LoadedAt.Format(time.RFC3339),
		SchemaVersion: indexing.IndexSchemaVersion,
	}, nil
}

// ValidateSearchIndex checks inline content, a file, or the served artifact
func (h *docIndexTools) ValidateSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ValidateSearchIndexInput) (*mcp.CallToolResult, ValidateSearchIndexOutput, error) {
	data, source, err := h.readIndexContent(input)
	if err != nil {
		return nil, ValidateSearchIndexOutput{}, err
	}

	result, err := validation.Validate(data)
	if err != nil {
		return nil, ValidateSearchIndexOutput{}, fmt.Errorf("validation failed: %w", err)
	}
	return nil, ValidateSearchIndexOutput{Result: *result, Source: source}, nil
}

// readIndexContent resolves the validation input to bytes
func (h *docIndexTools) readIndexContent(input ValidateSearchIndexInput) ([]byte, string, error) {
	if strings.TrimSpace(input.Content) != "" {
		return []byte(input.Content), "inline", nil
	}

	path := input.Path
	if path == "" {
		path = h.store.IndexFile()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read search index file '%s': %w", path, err)
	}
	return data, path, nil
}

// ReloadSearchIndex re-reads the artifact from disk
func (h *docIndexTools) ReloadSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ReloadSearchIndexInput) (*mcp.CallToolResult, ReloadSearchIndexOutput, error) {
	if _, err := h.store.Snapshot(); err != nil {
		return nil, ReloadSearchIndexOutput{}, err
	}

	snap, updated, err := h.store.Reload(input.Force)
	if err != nil {
		return nil, ReloadSearchIndexOutput{}, err
	}

	output := ReloadSearchIndexOutput{
		Updated:  updated,
		Records:  snap.Table.Len(),
		LoadedAt: snap.LoadedAt.Format(time.RFC3339),
	}
	if updated {
		output.Message = fmt.Sprintf("Search index reloaded, %d records", output.Records)
	} else {
		output.Message = fmt.Sprintf("Search index unchanged since %s", output.LoadedAt)
	}
	return nil, output, nil
}

// readArtifact serves the artifact resource in the widget's format
func (h *docIndexTools) readArtifact(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	snap, err := h.store.Snapshot()
	if err != nil {
		return nil, err
	}

	data, err := indexing.Marshal(snap.Table, indexing.FormatJS)
	if err != nil {
		return nil, fmt.Errorf("failed to render search index: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/javascript",
			Text:     string(data),
		}},
	}, nil
}

// RegisterDocIndexTools registers the search index tools and resource
func RegisterDocIndexTools(server *mcp.Server, store *Store) error {
	// Load eagerly so problems show up in the startup log
	if err := store.Initialize(); err != nil {
		log.Printf("Warning: Search index initialization failed: %v", err)
		log.Printf("Search index will attempt to initialize on first use")
	}

	h := &docIndexTools{store: store}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_index_records",
			Description: "List documentation search index records (location, page, title, text, category) in source order, optionally restricted to one page or category.",
		},
		h.ListIndexRecords,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_page_outline",
			Description: "Show the section entries (title and anchor location) of one page or of every page in the search index.",
		},
		h.GetPageOutline,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_index_stats",
			Description: "Count records, pages, sections and locations in the served search index.",
		},
		h.GetIndexStats,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_search_index",
			Description: "Check a search index (inline content, a file, or the served artifact) against the record schema and report suspicious entries.",
		},
		h.ValidateSearchIndex,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "reload_search_index",
			Description: "Re-read the search index file after the documentation was regenerated. The whole table is replaced.",
		},
		h.ReloadSearchIndex,
	)

	return nil
}

// RegisterDocIndexResources registers the artifact resource
func RegisterDocIndexResources(server *mcp.Server, store *Store) {
	h := &docIndexTools{store: store}

	server.AddResource(&mcp.Resource{
		URI:         ArtifactURI,
		Name:        "search_index",
		Description: "The served search index in the format consumed by the documentation search widget",
		MIMEType:    "application/javascript",
	}, h.readArtifact)
}
