package handlers

import (
	"net/http"
	"time"

	"github.com/parsisearch/jostoju/pkg/searcherr"
)

// Health reports process liveness and whether an index is currently loaded.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	state := h.CurrentState()
	result := map[string]interface{}{
		"status":        "healthy",
		"uptime":        time.Since(h.startTime).String(),
		"time":          time.Now().Format(time.RFC3339),
		"index_loaded":  state != nil,
	}
	if state != nil {
		result["total_documents"] = state.Report.TotalDocuments
		result["built_at"] = state.BuiltAt.Format(time.RFC3339)
	}
	if h.resourceTracker != nil {
		result["resources"] = h.resourceTracker.GetStats()
	}
	writeSuccess(w, result)
}

// Stats reports the build report, cache effectiveness, and metrics
// snapshot for the /stats endpoint.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	state := h.CurrentState()
	if state == nil {
		writeError(w, &searcherr.IndexNotLoadedError{})
		return
	}

	result := map[string]interface{}{
		"build_report": state.Report,
		"built_at":     state.BuiltAt.Format(time.RFC3339),
	}
	if h.cache != nil {
		result["cache"] = h.cache.Stats()
	}
	if h.metricsCollector != nil {
		result["metrics"] = h.metricsCollector.Snapshot()
	}
	writeSuccess(w, result)
}

// ReloadIndex rebuilds the published State from the configured index and
// metadata paths, invalidating the result cache.
func (h *Handlers) ReloadIndex(w http.ResponseWriter, r *http.Request) {
	state, err := h.Reload(nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]interface{}{
		"build_report": state.Report,
		"built_at":     state.BuiltAt.Format(time.RFC3339),
	})
}
