package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/parsisearch/jostoju/pkg/cache"
	"github.com/parsisearch/jostoju/pkg/metrics"
	"github.com/parsisearch/jostoju/pkg/query"
	"github.com/parsisearch/jostoju/pkg/rank"
	"github.com/parsisearch/jostoju/pkg/searcherr"
)

// SearchHit is one ranked result, enriched with the metadata side-output.
type SearchHit struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
	URL   string  `json:"url"`
	Title string  `json:"title"`
}

// SearchResponse is the body of a successful /search response.
type SearchResponse struct {
	Query         string      `json:"query"`
	MatchedTerms  []string    `json:"matched_query_terms"`
	Results       []SearchHit `json:"results"`
	Cached        bool        `json:"cached"`
	TookMilliseconds float64  `json:"took_ms"`
	Profile       *metrics.ProfileResult `json:"profile,omitempty"`
}

// Search handles GET/POST /search. The query text comes from the "q" query
// parameter on GET, or a {"q": "..."} JSON body on POST; an absent or blank
// query returns an empty result set rather than an error, per the empty
// query edge case.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	state := h.CurrentState()
	if state == nil {
		writeError(w, &searcherr.IndexNotLoadedError{})
		return
	}

	raw, opts, profile, err := h.parseSearchRequest(r)
	if err != nil {
		writeError(w, err)
		if h.metricsCollector != nil {
			h.metricsCollector.RecordSearch(time.Since(start), false)
		}
		return
	}

	if raw == "" {
		writeSuccess(w, SearchResponse{Query: raw, MatchedTerms: []string{}, Results: []SearchHit{}})
		if h.metricsCollector != nil {
			h.metricsCollector.RecordSearch(time.Since(start), true)
		}
		return
	}

	resp := h.RunQuery(raw, opts, state, profile)
	writeSuccess(w, resp)
	if h.metricsCollector != nil {
		h.metricsCollector.RecordSearch(time.Since(start), true)
	}
}

// RunQuery executes raw against state under opts, consulting and
// populating the result cache, and returns the enriched response shared by
// the REST and GraphQL layers. When profile is set, the response carries a
// stage-by-stage timing breakdown in addition to the total duration.
func (h *Handlers) RunQuery(raw string, opts rank.Options, state *State, profile bool) SearchResponse {
	start := time.Now()

	var session *metrics.ProfileSession
	if profile && h.profiler != nil {
		session = h.profiler.StartProfile()
		session.AddMetadata("query", raw)
	}

	var key string
	if h.cache != nil {
		cacheDone := metrics.TimeStage(session, "cache_lookup")
		key = cache.Key(raw, opts)
		cached, terms, found := h.cache.Get(key)
		cacheDone()
		if found {
			if h.metricsCollector != nil {
				h.metricsCollector.RecordCacheHit()
			}
			return h.assembleResponse(raw, cached, terms, state, true, time.Since(start), session)
		}
		if h.metricsCollector != nil {
			h.metricsCollector.RecordCacheMiss()
		}
	}

	parseDone := metrics.TimeStage(session, "parse")
	parsed := query.Parse(raw)
	parseDone()

	rankDone := metrics.TimeStage(session, "rank")
	results, terms := rank.Search(state.Snapshot, parsed, opts)
	results = rank.Assemble(results, opts)
	rankDone()

	if h.cache != nil {
		h.cache.Put(key, results, terms)
	}

	return h.assembleResponse(raw, results, terms, state, false, time.Since(start), session)
}

func (h *Handlers) assembleResponse(raw string, results []rank.Result, terms []string, state *State, cached bool, took time.Duration, session *metrics.ProfileSession) SearchResponse {
	assembleDone := metrics.TimeStage(session, "assemble_hits")
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		meta := state.Metadata[r.DocID]
		hits = append(hits, SearchHit{
			DocID: r.DocID,
			Score: r.Score,
			URL:   meta.URL,
			Title: meta.Title,
		})
	}

	if terms == nil {
		terms = []string{}
	}
	assembleDone()

	return SearchResponse{
		Query:            raw,
		MatchedTerms:     terms,
		Results:          hits,
		Cached:           cached,
		TookMilliseconds: float64(took.Microseconds()) / 1000,
		Profile:          session.Finish(),
	}
}

// parseSearchRequest extracts the raw query text, ranking options, and the
// profiling flag from either a GET query string or a POST JSON body.
func (h *Handlers) parseSearchRequest(r *http.Request) (string, rank.Options, bool, error) {
	opts := h.defaultOpts

	if r.Method == http.MethodPost {
		var body struct {
			Query           string   `json:"q"`
			TitleWeight     *float64 `json:"title_weight"`
			BodyWeight      *float64 `json:"body_weight"`
			SpanBoostFactor *float64 `json:"span_boost_factor"`
			ProximityPower  *float64 `json:"proximity_power"`
			MaxSpanDist     *int     `json:"max_span_dist"`
			TopK            *int     `json:"top_k"`
			Profile         bool     `json:"profile"`
		}
		if err := parseJSONBody(r, &body); err != nil {
			return "", opts, false, err
		}
		if body.TitleWeight != nil {
			opts.TitleWeight = *body.TitleWeight
		}
		if body.BodyWeight != nil {
			opts.BodyWeight = *body.BodyWeight
		}
		if body.SpanBoostFactor != nil {
			opts.SpanBoostFactor = *body.SpanBoostFactor
		}
		if body.ProximityPower != nil {
			opts.ProximityPower = *body.ProximityPower
		}
		if body.MaxSpanDist != nil {
			opts.MaxSpanDist = *body.MaxSpanDist
		}
		if body.TopK != nil {
			opts.TopK = *body.TopK
		}
		return body.Query, opts, body.Profile, nil
	}

	q := r.URL.Query()
	if tw := q.Get("top_k"); tw != "" {
		if n, err := strconv.Atoi(tw); err == nil {
			opts.TopK = n
		}
	}
	profile := q.Get("profile") == "1" || q.Get("profile") == "true"
	return q.Get("q"), opts, profile, nil
}
