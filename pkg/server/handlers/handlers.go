// Package handlers implements the HTTP handlers mounted by pkg/server: the
// search endpoint, admin reload/health/stats, and the build-progress
// WebSocket stream.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/parsisearch/jostoju/pkg/cache"
	"github.com/parsisearch/jostoju/pkg/compression"
	"github.com/parsisearch/jostoju/pkg/corpus"
	"github.com/parsisearch/jostoju/pkg/index"
	"github.com/parsisearch/jostoju/pkg/metrics"
	"github.com/parsisearch/jostoju/pkg/rank"
	"github.com/parsisearch/jostoju/pkg/searcherr"
)

// State is the atomically-swapped snapshot the search endpoint reads. A
// reload builds a new State and publishes it with one atomic pointer store,
// so an in-flight search never observes a partially-updated index.
type State struct {
	Snapshot *index.Snapshot
	Metadata corpus.Metadata
	Report   index.BuildReport
	BuiltAt  time.Time
}

// Handlers holds everything a request needs: the current index state, the
// result cache, metrics, and the paths a reload re-reads from.
type Handlers struct {
	state atomic.Pointer[State]

	cache            *cache.ResultCache
	metricsCollector *metrics.Collector
	resourceTracker  *metrics.ResourceTracker
	profiler         *metrics.QueryProfiler

	defaultOpts rank.Options

	indexPath         string
	metadataPath      string
	compressionConfig *compression.Config

	startTime time.Time
}

// New creates a Handlers instance around an already-loaded State.
func New(initial *State, resultCache *cache.ResultCache, collector *metrics.Collector, tracker *metrics.ResourceTracker, defaultOpts rank.Options, indexPath, metadataPath string, compressionConfig *compression.Config) *Handlers {
	h := &Handlers{
		cache:             resultCache,
		metricsCollector:  collector,
		resourceTracker:   tracker,
		profiler:          metrics.NewQueryProfiler(true),
		defaultOpts:       defaultOpts,
		indexPath:         indexPath,
		metadataPath:      metadataPath,
		compressionConfig: compressionConfig,
		startTime:         time.Now(),
	}
	h.state.Store(initial)
	return h
}

// CurrentState returns the currently published index state.
func (h *Handlers) CurrentState() *State {
	return h.state.Load()
}

// DefaultOptions returns the ranking options applied when a caller does not
// override any weight.
func (h *Handlers) DefaultOptions() rank.Options {
	return h.defaultOpts
}

// Reload rebuilds the State from disk and publishes it atomically. progress,
// if non-nil, is forwarded to the caller for streaming to a connected
// build-progress WebSocket client.
func (h *Handlers) Reload(progress func(processed, total int)) (*State, error) {
	start := time.Now()

	store, err := index.Open(h.indexPath, h.compressionConfig)
	if err != nil {
		if h.metricsCollector != nil {
			h.metricsCollector.RecordBuild(time.Since(start), false)
		}
		return nil, &searcherr.BuildFailedError{Reason: err.Error()}
	}
	defer store.Close()

	snap, err := store.Snapshot()
	if err != nil {
		if h.metricsCollector != nil {
			h.metricsCollector.RecordBuild(time.Since(start), false)
		}
		return nil, &searcherr.BuildFailedError{Reason: err.Error()}
	}

	meta, err := corpus.LoadMetadata(h.metadataPath)
	if err != nil {
		if h.metricsCollector != nil {
			h.metricsCollector.RecordBuild(time.Since(start), false)
		}
		return nil, &searcherr.BuildFailedError{Reason: err.Error()}
	}

	report := index.BuildReport{
		TotalDocuments:   snap.N,
		UniqueTerms:      len(snap.Index),
		TotalTimeSeconds: time.Since(start).Seconds(),
	}
	if progress != nil {
		progress(snap.N, snap.N)
	}

	next := &State{Snapshot: snap, Metadata: meta, Report: report, BuiltAt: time.Now()}
	h.state.Store(next)

	if h.cache != nil {
		h.cache.Clear()
	}
	if h.metricsCollector != nil {
		h.metricsCollector.RecordBuild(time.Since(start), true)
	}
	return next, nil
}

// parseJSONBody parses JSON request body into target interface
func parseJSONBody(r *http.Request, target interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &searcherr.BadRequestError{Message: "failed to read request body"}
	}
	defer r.Body.Close()

	if len(body) == 0 {
		return &searcherr.BadRequestError{Message: "request body is empty"}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &searcherr.BadRequestError{Message: "invalid JSON: " + err.Error()}
	}

	return nil
}

// writeError writes an error response with the status code searcherr maps
// it to.
func writeError(w http.ResponseWriter, err error) {
	response := map[string]interface{}{
		"ok":      false,
		"error":   searcherr.Kind(err),
		"message": err.Error(),
		"code":    searcherr.StatusCode(err),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(searcherr.StatusCode(err))
	json.NewEncoder(w).Encode(response)
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, result interface{}) {
	response := map[string]interface{}{
		"ok":     true,
		"result": result,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
