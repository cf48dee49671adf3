// Package graphql exposes the search endpoint over GraphQL, as an
// alternative to the plain REST /search route, and serves a GraphiQL
// playground for ad hoc exploration.
package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/parsisearch/jostoju/pkg/server/handlers"
)

// Schema builds the GraphQL schema for the search daemon: a single root
// query, search, returning ranked hits enriched with the metadata
// side-output.
func Schema(h *handlers.Handlers) (graphql.Schema, error) {
	hitType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "SearchHit",
		Description: "One ranked document in a search result set",
		Fields: graphql.Fields{
			"docId": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "Opaque stable document identifier",
			},
			"score": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Float),
				Description: "Ranking score; higher is more relevant",
			},
			"url": &graphql.Field{
				Type:        graphql.String,
				Description: "Source URL from the metadata side-output",
			},
			"title": &graphql.Field{
				Type:        graphql.String,
				Description: "Document title from the metadata side-output",
			},
		},
	})

	resultType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "SearchResult",
		Description: "A search response: the matched terms plus ranked hits",
		Fields: graphql.Fields{
			"matchedQueryTerms": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(graphql.String)),
			},
			"results": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(hitType)),
			},
		},
	})

	resolver := NewResolver(h)

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"search": &graphql.Field{
				Type:        resultType,
				Description: "Run a bag-of-words or phrase query against the loaded index",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
					"limit": &graphql.ArgumentConfig{
						Type: graphql.Int,
					},
					"titleWeight": &graphql.ArgumentConfig{
						Type: graphql.Float,
					},
					"bodyWeight": &graphql.ArgumentConfig{
						Type: graphql.Float,
					},
				},
				Resolve: resolver.Search,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}
