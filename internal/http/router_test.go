package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dochttp "github.com/docindex/mcp-server/internal/http"
	"github.com/docindex/mcp-server/internal/indexing"
	"github.com/docindex/mcp-server/tools"
)

// stubSource serves a fixed snapshot or error
type stubSource struct {
	snap *tools.Snapshot
	err  error
}

func (s *stubSource) Snapshot() (*tools.Snapshot, error) {
	return s.snap, s.err
}

const fixturePath = "../indexing/testdata/search_index.js"

func newFixtureRouter(t *testing.T) (http.Handler, []byte) {
	t.Helper()

	raw, err := os.ReadFile(filepath.FromSlash(fixturePath))
	require.NoError(t, err)
	table, err := indexing.Parse(raw)
	require.NoError(t, err)

	source := &stubSource{snap: &tools.Snapshot{
		Table:    table,
		Source:   fixturePath,
		ModTime:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		LoadedAt: time.Now(),
	}}
	return dochttp.NewRouter(&dochttp.Deps{Source: source}), raw
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_ServesArtifact(t *testing.T) {
	router, raw := newFixtureRouter(t)

	w := get(t, router, "/search_index.js")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/javascript; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, string(raw), w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
}

func TestRouter_ConditionalRequest(t *testing.T) {
	router, _ := newFixtureRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/search_index.js", nil)
	req.Header.Set("If-Modified-Since", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestRouter_ServesJSON(t *testing.T) {
	router, _ := newFixtureRouter(t)

	w := get(t, router, "/search_index.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	table, err := indexing.Parse(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 32, table.Len())
}

func TestRouter_Records(t *testing.T) {
	router, _ := newFixtureRouter(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLen    int
		wantTotal  int
	}{
		{"defaults", "/api/records", http.StatusOK, 32, 32},
		{"sections", "/api/records?category=section", http.StatusOK, 4, 4},
		{"paged", "/api/records?page=Home&offset=30&limit=5", http.StatusOK, 2, 32},
		{"unknown page", "/api/records?page=Nope", http.StatusOK, 0, 0},
		{"bad offset", "/api/records?offset=-1", http.StatusBadRequest, 0, 0},
		{"bad limit", "/api/records?limit=abc", http.StatusBadRequest, 0, 0},
		{"limit too large", "/api/records?limit=500", http.StatusBadRequest, 0, 0},
		{"unknown category", "/api/records?category=chapter", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, tt.target)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp dochttp.RecordsResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp.Records, tt.wantLen)
			assert.Equal(t, tt.wantTotal, resp.Total)
			assert.NotNil(t, resp.Records)
		})
	}
}

func TestRouter_Outline(t *testing.T) {
	router, _ := newFixtureRouter(t)

	w := get(t, router, "/api/outline")
	require.Equal(t, http.StatusOK, w.Code)
	var pages []indexing.PageOutline
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pages))
	require.Len(t, pages, 1)
	assert.Equal(t, "Home", pages[0].Page)
	assert.Len(t, pages[0].Sections, 4)

	w = get(t, router, "/api/outline?page=Home")
	require.Equal(t, http.StatusOK, w.Code)
	var one indexing.PageOutline
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, 32, one.Records)

	w = get(t, router, "/api/outline?page=Missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Health(t *testing.T) {
	router, _ := newFixtureRouter(t)

	w := get(t, router, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dochttp.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 32, resp.Records)
}

func TestRouter_Unavailable(t *testing.T) {
	source := &stubSource{err: errors.New("search index not loaded")}
	router := dochttp.NewRouter(&dochttp.Deps{Source: source})

	for _, target := range []string{"/search_index.js", "/api/records", "/api/outline", "/healthz"} {
		w := get(t, router, target)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
	}
}

func TestRouter_ReadOnly(t *testing.T) {
	router, _ := newFixtureRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/search_index.js", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newFixtureRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/records", nil)
	req.Header.Set("Origin", "https://docs.example.org")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://docs.example.org", w.Header().Get("Access-Control-Allow-Origin"))
}
