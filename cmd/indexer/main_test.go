package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docindex/mcp-server/internal/config"
	"github.com/docindex/mcp-server/internal/indexing"
)

var fixture = filepath.Join("..", "..", "internal", "indexing", "testdata", "search_index.js")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"validate", "convert", "stats", "install", "serve"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestValidateCmd(t *testing.T) {
	t.Run("valid fixture", func(t *testing.T) {
		out, err := execute(t, "validate", fixture)
		require.NoError(t, err)
		assert.Contains(t, out, "Search index is valid: 32 records")
	})

	t.Run("schema violation", func(t *testing.T) {
		path := writeTemp(t, "bad.json", `{"docs":[{"location":"a.html","page":"A","title":"A","text":"","category":7}]}`)
		out, err := execute(t, "validate", path)
		assert.ErrorIs(t, err, errInvalid)
		assert.Contains(t, out, "$.docs.0.category")
	})

	t.Run("not JSON", func(t *testing.T) {
		path := writeTemp(t, "bad.js", "var documenterSearchIndex = {")
		_, err := execute(t, "validate", path)
		assert.ErrorIs(t, err, indexing.ErrMalformed)
	})

	t.Run("json output", func(t *testing.T) {
		out, err := execute(t, "validate", "--json", fixture)
		require.NoError(t, err)

		var result struct {
			Valid   bool `json:"valid"`
			Records int  `json:"records"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.True(t, result.Valid)
		assert.Equal(t, 32, result.Records)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := execute(t, "validate")
		assert.Error(t, err)
	})
}

func TestConvertCmd(t *testing.T) {
	original, err := indexing.Load(fixture)
	require.NoError(t, err)

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "search_index.json")
	jsPath := filepath.Join(dir, "out", "search_index.js")

	out, err := execute(t, "convert", "--format", "json", fixture, jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 32 records")

	converted, err := indexing.Load(jsonPath)
	require.NoError(t, err)
	assert.True(t, converted.Equal(original))

	_, err = execute(t, "convert", jsonPath, jsPath)
	require.NoError(t, err)

	// Converting back reproduces the generator's artifact byte for byte
	want, err := os.ReadFile(fixture)
	require.NoError(t, err)
	got, err := os.ReadFile(jsPath)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestConvertCmd_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "convert", "--format", "yaml", fixture, filepath.Join(dir, "x"))
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "convert", filepath.Join(dir, "absent.js"), filepath.Join(dir, "y"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(filepath.Join(dir, "y"))
	assert.True(t, os.IsNotExist(err), "no output for a failed load")
}

func TestStatsCmd(t *testing.T) {
	out, err := execute(t, "stats", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Records:      32")
	assert.Contains(t, out, "Home (32 records)")
	assert.Contains(t, out, "Installation instructions")

	out, err = execute(t, "stats", "--json", fixture)
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, indexing.Stats{Records: 32, Pages: 1, Sections: 4, PageEntries: 28, EmptyText: 5, Locations: 5}, report.Stats)
	require.Len(t, report.Outline, 1)
	assert.Len(t, report.Outline[0].Sections, 4)
}

func TestInstallCmd(t *testing.T) {
	for _, key := range []string{"DOCINDEX_CONFIG", "DOCINDEX_INDEX_FILE"} {
		t.Setenv(key, "")
	}
	dataDir := t.TempDir()
	t.Setenv("DOCINDEX_DATA_DIR", dataDir)
	served := filepath.Join(dataDir, "search_index.js")

	want, err := os.ReadFile(fixture)
	require.NoError(t, err)

	out, err := execute(t, "install", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Installed 32 records")

	got, err := os.ReadFile(served)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	_, err = os.Stat(filepath.Join(dataDir, "index.lock"))
	assert.True(t, os.IsNotExist(err), "lock must be released after install")
}

func TestInstallCmd_RejectsInvalidIndex(t *testing.T) {
	for _, key := range []string{"DOCINDEX_CONFIG", "DOCINDEX_INDEX_FILE"} {
		t.Setenv(key, "")
	}
	dataDir := t.TempDir()
	t.Setenv("DOCINDEX_DATA_DIR", dataDir)
	served := filepath.Join(dataDir, "search_index.js")
	require.NoError(t, os.WriteFile(served, []byte(`{"docs":[]}`), 0644))

	bad := writeTemp(t, "bad.json", `{"docs":[{"location":"a.html","title":"A","text":"","category":"page"}]}`)
	_, err := execute(t, "install", bad)
	assert.ErrorIs(t, err, errInvalid)

	got, err := os.ReadFile(served)
	require.NoError(t, err)
	assert.Equal(t, `{"docs":[]}`, string(got), "served index must be left untouched")
}

func TestInstallCmd_FileFlag(t *testing.T) {
	for _, key := range []string{"DOCINDEX_CONFIG", "DOCINDEX_INDEX_FILE"} {
		t.Setenv(key, "")
	}
	t.Setenv("DOCINDEX_DATA_DIR", t.TempDir())
	target := filepath.Join(t.TempDir(), "site", "search_index.js")

	_, err := execute(t, "install", "--file", target, fixture)
	require.NoError(t, err)

	table, err := indexing.Load(target)
	require.NoError(t, err)
	assert.Equal(t, 32, table.Len())
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	data, err := os.ReadFile(fixture)
	require.NoError(t, err)

	cfg := config.Default(t.TempDir())
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.Watch = true
	cfg.WatchDebounce = 50 * time.Millisecond
	require.NoError(t, os.WriteFile(cfg.IndexFile, data, 0644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestRunServe_MalformedIndex(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.HTTPAddr = "127.0.0.1:0"
	require.NoError(t, os.WriteFile(cfg.IndexFile, []byte("{"), 0644))

	err := runServe(context.Background(), cfg)
	assert.ErrorIs(t, err, indexing.ErrMalformed)
}
