package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/docindex/mcp-server/internal/indexing"
	"github.com/docindex/mcp-server/tools"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type indexHandler struct {
	source tools.TableSource
}

// RecordsResponse is the body of GET /api/records
type RecordsResponse struct {
	Records []indexing.IndexRecord `json:"records"`
	Total   int                    `json:"total"`
	Offset  int                    `json:"offset"`
	Limit   int                    `json:"limit"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status   string `json:"status"` // "ok" or "unavailable"
	Records  int    `json:"records"`
	Source   string `json:"source,omitempty"`
	LoadedAt string `json:"loaded_at,omitempty"`
	Error    string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// snapshot fetches the current table or writes a 503
func (h *indexHandler) snapshot(w http.ResponseWriter) (*tools.Snapshot, bool) {
	snap, err := h.source.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return nil, false
	}
	return snap, true
}

func (h *indexHandler) serveArtifact(w http.ResponseWriter, r *http.Request) {
	h.serveFormat(w, r, indexing.FormatJS, "application/javascript; charset=utf-8")
}

func (h *indexHandler) serveJSON(w http.ResponseWriter, r *http.Request) {
	h.serveFormat(w, r, indexing.FormatJSON, "application/json")
}

// serveFormat emits the table; ServeContent answers conditional requests from ModTime
func (h *indexHandler) serveFormat(w http.ResponseWriter, r *http.Request, f indexing.Format, contentType string) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	data, err := indexing.Marshal(snap.Table, f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, "search_index."+f.String(), snap.ModTime, bytes.NewReader(data))
}

func (h *indexHandler) listRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	offset, err := intParam(query.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "offset must be a non-negative integer"})
		return
	}
	limit, err := intParam(query.Get("limit"), defaultLimit)
	if err != nil || limit <= 0 || limit > maxLimit {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("limit must be between 1 and %d", maxLimit)})
		return
	}

	category := indexing.Category(query.Get("category"))
	if category != "" && !category.Known() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown category %q", category)})
		return
	}

	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	matches := indexing.Filter(snap.Table, query.Get("page"), category)
	writeJSON(w, http.StatusOK, RecordsResponse{
		Records: indexing.Paginate(matches, offset, limit),
		Total:   len(matches),
		Offset:  offset,
		Limit:   limit,
	})
}

func (h *indexHandler) outline(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	page := r.URL.Query().Get("page")
	if page == "" {
		pages := indexing.Outline(snap.Table)
		if pages == nil {
			pages = []indexing.PageOutline{}
		}
		writeJSON(w, http.StatusOK, pages)
		return
	}

	outline, found := indexing.PageOutlineFor(snap.Table, page)
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("page %q not found", page)})
		return
	}
	writeJSON(w, http.StatusOK, outline)
}

func (h *indexHandler) health(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Records:  snap.Table.Len(),
		Source:   snap.Source,
		LoadedAt: snap.LoadedAt.UTC().Format(time.RFC3339),
	})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: Failed to encode response: %v", err)
	}
}
