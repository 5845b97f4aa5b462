package indexing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"
)

// Format selects the serialization of a table
type Format int

const (
	// FormatJS is the script assignment shipped to the search widget
	FormatJS Format = iota
	// FormatJSON is the bare wrapper object
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatJS:
		return "js"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps a user supplied name ("js", "json") to a Format
func ParseFormat(name string) (Format, error) {
	switch name {
	case "js", "javascript":
		return FormatJS, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("unknown format %q (want js or json)", name)
}

// ErrMalformed is matched by every structural failure reported by Parse
var ErrMalformed = errors.New("malformed search index")

// ParseError describes why a serialized table could not be loaded
type ParseError struct {
	Offset int64 // Byte offset in the input, -1 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%v at offset %d: %v", ErrMalformed, e.Offset, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrMalformed, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}

// assignmentRegex matches the "var name = " prefix of the script form
var assignmentRegex = regexp.MustCompile(`^\s*(?:var|let|const)\s+[A-Za-z_$][A-Za-z0-9_$]*\s*=\s*`)

// StripWrapper removes the script assignment around the wrapper object, if any.
// It returns the JSON payload and the format the input was in.
func StripWrapper(data []byte) ([]byte, Format) {
	payload, _, format := stripWrapper(data)
	return payload, format
}

func stripWrapper(data []byte) ([]byte, int64, Format) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	loc := assignmentRegex.FindIndex(data)
	if loc == nil {
		return data, 0, FormatJSON
	}
	payload := bytes.TrimRight(data[loc[1]:], " \t\r\n")
	payload = bytes.TrimSuffix(payload, []byte(";"))
	return payload, int64(loc[1]), FormatJS
}

// wrapper mirrors the single-key object around the record sequence
type wrapper struct {
	Docs *[]IndexRecord `json:"docs"`
}

// Parse decodes a serialized table in either format.
// Only structural well-formedness is checked; see the validation package for schema rules.
func Parse(data []byte) (*Table, error) {
	payload, base, _ := stripWrapper(data)

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var w wrapper
	if err := dec.Decode(&w); err != nil {
		return nil, newParseError(err, base)
	}
	if w.Docs == nil {
		return nil, &ParseError{Offset: -1, Err: fmt.Errorf("missing %q array", WrapperKey)}
	}

	// Exactly one value is allowed
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Offset: base + dec.InputOffset(), Err: errors.New("unexpected data after wrapper object")}
	}

	// encoding/json folds key case; the artifact's keys must match exactly
	if err := checkKeyCase(payload); err != nil {
		return nil, &ParseError{Offset: -1, Err: err}
	}

	return &Table{records: *w.Docs}, nil
}

// recordFields are the only keys a record object may carry
var recordFields = map[string]bool{
	"location": true,
	"page":     true,
	"title":    true,
	"text":     true,
	"category": true,
}

// checkKeyCase rejects keys that only match the wrapper or record fields case-insensitively
func checkKeyCase(payload []byte) error {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(payload, &outer); err != nil {
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(outer)) {
		if key != WrapperKey {
			return fmt.Errorf("unknown wrapper key %q", key)
		}
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(outer[WrapperKey], &records); err != nil {
		return err
	}
	for i, rec := range records {
		for _, key := range slices.Sorted(maps.Keys(rec)) {
			if !recordFields[key] {
				return fmt.Errorf("record %d: unknown field %q", i, key)
			}
		}
	}
	return nil
}

// newParseError converts a decoder error into a ParseError with an absolute offset
func newParseError(err error, base int64) *ParseError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return &ParseError{Offset: base + syntaxErr.Offset, Err: err}
	case errors.As(err, &typeErr):
		return &ParseError{Offset: base + typeErr.Offset, Err: err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &ParseError{Offset: -1, Err: fmt.Errorf("unexpected end of input: %w", err)}
	default:
		return &ParseError{Offset: -1, Err: err}
	}
}

// LoadReader reads a whole serialized table from r
func LoadReader(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	return Parse(data)
}

// Load reads and parses the artifact at path
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}
