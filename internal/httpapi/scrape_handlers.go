package httpapi

import (
	"net/http"
	"sync/atomic"

	"github.com/CDMonsalveA/JobSearchTools/internal/ingest"
)

type ScrapeHandler struct {
	Status     *atomic.Value // stores ingest.Status
	TriggerRun func() bool
}

func (h ScrapeHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := h.Status.Load().(ingest.Status)
	writeJSON(w, st)
}

// Run fires a cycle immediately. If one is already active the trigger is
// dropped and the response says so.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.TriggerRun == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "not_ready", "scheduler not running")
		return
	}
	if !h.TriggerRun() {
		writeJSON(w, map[string]any{"started": false, "reason": "run already in progress"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]any{"started": true})
}
