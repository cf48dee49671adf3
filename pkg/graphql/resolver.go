package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/parsisearch/jostoju/pkg/searcherr"
	"github.com/parsisearch/jostoju/pkg/server/handlers"
)

// Resolver resolves the GraphQL search query against the loaded index.
type Resolver struct {
	h *handlers.Handlers
}

// NewResolver creates a new Resolver instance
func NewResolver(h *handlers.Handlers) *Resolver {
	return &Resolver{h: h}
}

// Search resolves the root search query.
func (res *Resolver) Search(p graphql.ResolveParams) (interface{}, error) {
	state := res.h.CurrentState()
	if state == nil {
		return nil, &searcherr.IndexNotLoadedError{}
	}

	raw, ok := p.Args["query"].(string)
	if !ok {
		return nil, fmt.Errorf("query argument is required")
	}

	opts := res.h.DefaultOptions()
	if limit, ok := p.Args["limit"].(int); ok {
		opts.TopK = limit
	}
	if tw, ok := p.Args["titleWeight"].(float64); ok {
		opts.TitleWeight = tw
	}
	if bw, ok := p.Args["bodyWeight"].(float64); ok {
		opts.BodyWeight = bw
	}

	resp := res.h.RunQuery(raw, opts, state, false)

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, hit := range resp.Results {
		results = append(results, map[string]interface{}{
			"docId": hit.DocID,
			"score": hit.Score,
			"url":   hit.URL,
			"title": hit.Title,
		})
	}

	return map[string]interface{}{
		"matchedQueryTerms": resp.MatchedTerms,
		"results":           results,
	}, nil
}
