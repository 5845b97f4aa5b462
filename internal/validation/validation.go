// Package validation checks serialized search indexes against the record schema
// and lints loaded tables for entries the search widget would render badly.
package validation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/docindex/mcp-server/internal/indexing"
)

// SchemaURL identifies the embedded schema inside the compiler
const SchemaURL = "https://docindex.dev/schema/search-index.json"

// Issue codes
const (
	CodeSchema          = "SCHEMA_VALIDATION_ERROR"
	CodeUnknownCategory = "UNKNOWN_CATEGORY"
	CodeAnchorMismatch  = "ANCHOR_MISMATCH"
	CodeEmptyPage       = "EMPTY_PAGE"
	CodeEmptyTitle      = "EMPTY_SECTION_TITLE"
)

//go:embed search-index.schema.json
var schemaJSON []byte

// Issue is a single schema error or lint warning
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result is the outcome of validating one artifact
type Result struct {
	Valid    bool    `json:"valid"`
	Format   string  `json:"format"` // "js" or "json"
	Records  int     `json:"records"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Summary  string  `json:"summary"`
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid embedded schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(SchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}
	return compiler.Compile(SchemaURL)
})

var printer = message.NewPrinter(language.English)

// Validate checks data (either artifact format) against the record schema.
// Schema violations are reported in the Result; an error is returned only when
// the input is not JSON at all.
func Validate(data []byte) (*Result, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	payload, format := indexing.StripWrapper(data)
	result := &Result{
		Format:   format.String(),
		Errors:   []Issue{},
		Warnings: []Issue{},
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, &indexing.ParseError{Offset: -1, Err: err}
	}

	if err := schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			result.Errors = collectSchemaErrors(validationErr)
		} else {
			result.Errors = append(result.Errors, Issue{Path: "$", Message: err.Error(), Code: CodeSchema})
		}
		result.Summary = fmt.Sprintf("Search index does not conform to the schema: %d error(s)", len(result.Errors))
		return result, nil
	}

	table, err := indexing.Parse(data)
	if err != nil {
		return nil, err
	}

	result.Valid = true
	result.Records = table.Len()
	result.Warnings = Lint(table)
	result.Summary = fmt.Sprintf("Search index is valid: %d records, %d warning(s)", result.Records, len(result.Warnings))
	return result, nil
}

// collectSchemaErrors flattens the validation error tree into its leaves
func collectSchemaErrors(validationErr *jsonschema.ValidationError) []Issue {
	if len(validationErr.Causes) == 0 {
		return []Issue{{
			Path:    instancePath(validationErr.InstanceLocation),
			Message: validationErr.ErrorKind.LocalizedString(printer),
			Code:    CodeSchema,
		}}
	}

	var issues []Issue
	for _, cause := range validationErr.Causes {
		issues = append(issues, collectSchemaErrors(cause)...)
	}
	return issues
}

func instancePath(location []string) string {
	if len(location) == 0 {
		return "$"
	}
	return "$." + strings.Join(location, ".")
}

// Lint reports records that are well formed but suspicious
func Lint(t *indexing.Table) []Issue {
	issues := []Issue{}

	for i, rec := range t.All() {
		path := fmt.Sprintf("$.docs.%d", i)

		if !rec.Category.Known() {
			issues = append(issues, Issue{
				Path:    path + ".category",
				Message: fmt.Sprintf("unknown category %q (expected %q or %q)", rec.Category, indexing.CategoryPage, indexing.CategorySection),
				Code:    CodeUnknownCategory,
			})
		}

		if rec.Page == "" {
			issues = append(issues, Issue{
				Path:    path + ".page",
				Message: "page name is empty",
				Code:    CodeEmptyPage,
			})
		}

		if rec.Category != indexing.CategorySection {
			continue
		}
		if rec.Title == "" {
			issues = append(issues, Issue{
				Path:    path + ".title",
				Message: "section entry has no title",
				Code:    CodeEmptyTitle,
			})
			continue
		}
		if anchor := indexing.AnchorFor(rec.Title); !anchorMatches(rec.Location, anchor) {
			issues = append(issues, Issue{
				Path:    path + ".location",
				Message: fmt.Sprintf("location %q does not end with anchor %q for title %q", rec.Location, anchor, rec.Title),
				Code:    CodeAnchorMismatch,
			})
		}
	}

	return issues
}

// anchorMatches accepts the anchor itself or a de-duplicated "anchor-N" form,
// which Documenter emits when several headings share a title.
func anchorMatches(location, anchor string) bool {
	if strings.HasSuffix(location, anchor) {
		return true
	}
	i := strings.LastIndexByte(location, '-')
	if i < 0 || i == len(location)-1 || !strings.HasSuffix(location[:i], anchor) {
		return false
	}
	for _, r := range location[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
