// Package query parses a raw search box string into the structure the
// ranker needs: a phrase query if the whole string is quoted (whatever the
// number of terms inside), a bag-of-words query otherwise.
package query

import (
	"strings"

	"github.com/parsisearch/jostoju/pkg/text"
)

// Kind distinguishes a phrase query from a bag-of-words query.
type Kind int

const (
	KindBag Kind = iota
	KindPhrase
)

// Query is the parsed, normalized form of one search request.
type Query struct {
	Kind  Kind
	Terms []string
}

// Parse interprets raw per the spec's quoting rule: a trimmed string that
// both begins and ends with `"` and has length at least 2 is a phrase query
// over its quoted contents, stripped of exactly one leading and one
// trailing quote — even when that leaves zero terms, as in the literal
// input `""`, which parses to an empty phrase query rather than falling
// back to bag-of-words. Everything else is a bag-of-words query.
func Parse(raw string) Query {
	trimmed := strings.TrimSpace(raw)

	kind := KindBag
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		trimmed = trimmed[1 : len(trimmed)-1]
		kind = KindPhrase
	}

	terms := text.Tokenize(text.Normalize(trimmed, text.ModeQuery))

	return Query{Kind: kind, Terms: terms}
}
