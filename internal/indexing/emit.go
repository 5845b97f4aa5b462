package indexing

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Emit writes t to w in the given format.
// FormatJS reproduces the generator's artifact byte for byte:
//
//	var documenterSearchIndex = {"docs":
//	[{...},{...}]
//	}
func Emit(w io.Writer, t *Table, f Format) error {
	records, err := encodeRecords(t)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	switch f {
	case FormatJS:
		fmt.Fprintf(bw, "var %s = {%q:\n", WrapperVariable, WrapperKey)
		bw.Write(records)
		bw.WriteString("\n}\n")
	case FormatJSON:
		fmt.Fprintf(bw, "{%q:", WrapperKey)
		bw.Write(records)
		bw.WriteString("}\n")
	default:
		return fmt.Errorf("unsupported format: %v", f)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write search index: %w", err)
	}
	return nil
}

// Marshal returns the serialized form of t
func Marshal(t *Table, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Emit(&buf, t, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeRecords renders the record array compactly without HTML escaping,
// which is how the generator writes snippets containing <, > and &
func encodeRecords(t *Table) ([]byte, error) {
	records := t.Records()
	if records == nil {
		records = []IndexRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteFile replaces the artifact at path with t.
// The table is written to a temporary file in the same directory and renamed
// into place, so readers never observe a partially written artifact.
func WriteFile(path string, t *Table, f Format) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Emit(tmp, t, f); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
