package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"pixelpeek/internal/database"
	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/logging"
	"pixelpeek/internal/sink"
	"pixelpeek/internal/source"

	"github.com/gorilla/mux"
)

// maxRequestBytes caps the submitted URL list body.
const maxRequestBytes = 8 << 20

// BatchRequest is the JSON body of POST /api/batches.
type BatchRequest struct {
	URLs []string `json:"urls"`
}

// BatchResponse is the JSON result of a submitted batch.
type BatchResponse struct {
	ID             string            `json:"id"`
	State          string            `json:"state"`
	Total          int               `json:"total"`
	Succeeded      int               `json:"succeeded"`
	Failed         int               `json:"failed"`
	Rows           int               `json:"rows"`
	ElapsedSeconds float64           `json:"elapsedSeconds"`
	Outcomes       []fetcher.Outcome `json:"outcomes"`
}

// CreateBatch runs a batch synchronously and returns its outcomes.
func (h *Handlers) CreateBatch(w http.ResponseWriter, r *http.Request) {
	if h.memoryPaused() {
		w.Header().Set("Retry-After", "30")
		writeJSONError(w, "server under memory pressure, retry later", http.StatusServiceUnavailable)
		return
	}

	urls, err := readURLs(w, r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(urls) > h.maxURLs {
		writeJSONError(w, fmt.Sprintf("too many URLs: %d (max %d)", len(urls), h.maxURLs), http.StatusRequestEntityTooLarge)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.streamBatchCSV(w, r, urls)
		return
	}

	var buf bytes.Buffer
	result, err := h.runner.Run(r.Context(), urls, &buf)
	if err != nil {
		logging.Error("Batch request failed: %v", err)
		writeJSONError(w, "batch failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, BatchResponse{
		ID:             result.ID,
		State:          result.State.String(),
		Total:          len(result.Outcomes),
		Succeeded:      result.Succeeded,
		Failed:         result.Failed,
		Rows:           result.Rows,
		ElapsedSeconds: result.Elapsed.Seconds(),
		Outcomes:       result.Outcomes,
	})
}

func (h *Handlers) streamBatchCSV(w http.ResponseWriter, r *http.Request, urls []string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="image_details.csv"`)

	// the status line goes out with the CSV header, so failures can only be logged
	if _, err := h.runner.Run(r.Context(), urls, newFlushWriter(w)); err != nil {
		logging.Warn("Streaming batch to %s failed: %v", r.RemoteAddr, err)
	}
}

// readURLs accepts a JSON BatchRequest or a plain-text/CSV URL list.
func readURLs(w http.ResponseWriter, r *http.Request) ([]string, error) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "", "application/json":
		var req BatchRequest
		decoder := json.NewDecoder(body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		if req.URLs == nil {
			return []string{}, nil
		}
		return req.URLs, nil
	case "text/plain", "text/csv":
		urls, err := source.Read(body)
		if err != nil {
			return nil, fmt.Errorf("invalid URL list: %w", err)
		}
		return urls, nil
	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

// ListBatches returns recent batch summaries from history.
func (h *Handlers) ListBatches(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSONError(w, "history is disabled", http.StatusNotFound)
		return
	}

	limit := database.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	batches, err := h.history.ListBatches(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to list batches: %v", err)
		writeJSONError(w, "failed to list batches", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, batches)
}

// GetBatch returns one stored batch with its outcomes.
func (h *Handlers) GetBatch(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.lookupBatch(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, detail)
}

// GetBatchCSV renders a stored batch in the CSV output format.
func (h *Handlers) GetBatchCSV(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.lookupBatch(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="batch-%s.csv"`, detail.ID))
	if _, err := sink.Write(w, detail.Outcomes); err != nil {
		logging.Warn("Failed to write CSV for batch %s: %v", detail.ID, err)
	}
}

func (h *Handlers) lookupBatch(w http.ResponseWriter, r *http.Request) (*database.BatchDetail, bool) {
	if h.history == nil {
		writeJSONError(w, "history is disabled", http.StatusNotFound)
		return nil, false
	}

	id := mux.Vars(r)["id"]
	detail, err := h.history.GetBatch(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "batch not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logging.Error("Failed to load batch %s: %v", id, err)
		writeJSONError(w, "failed to load batch", http.StatusInternalServerError)
		return nil, false
	}
	return detail, true
}
