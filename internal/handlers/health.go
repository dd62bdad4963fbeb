package handlers

import (
	"net/http"
	"runtime"
	"time"

	"pixelpeek/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	HistoryEnabled bool `json:"historyEnabled"`
	BatchesStored  int  `json:"batchesStored,omitempty"`
	MemoryPaused   bool `json:"memoryPaused"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. It reports
// degraded, with 503, while memory pressure is refusing new batches.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	paused := h.memoryPaused()

	response := HealthResponse{
		Status:         statusHealthy,
		Ready:          !paused,
		Version:        startup.Version,
		Uptime:         time.Since(h.started).Round(time.Second).String(),
		HistoryEnabled: h.history != nil,
		MemoryPaused:   paused,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
	}
	if h.history != nil {
		response.BatchesStored = h.history.GetStats().TotalBatches
	}

	w.Header().Set("Content-Type", "application/json")
	if paused {
		response.Status = statusDegraded
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck reports that the process is serving requests.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "alive"})
}

// ReadinessCheck reports whether new batches are being accepted.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.memoryPaused() {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, map[string]string{"status": "ready"})
}

func (h *Handlers) memoryPaused() bool {
	return h.memory != nil && h.memory.IsPaused()
}
