package index

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/parsisearch/jostoju/pkg/corpus"
	"github.com/parsisearch/jostoju/pkg/text"
)

// BuildReport summarizes one index build. Build returns it to the caller; it
// is not written to disk, and the HTTP service's /stats endpoint reports one
// rebuilt from the loaded snapshot.
type BuildReport struct {
	TotalDocuments   int     `json:"total_documents"`
	UniqueTerms      int     `json:"unique_terms"`
	TotalTimeSeconds float64 `json:"total_time_seconds"`
	SkippedDocuments int     `json:"skipped_documents"`
}

// BuildOptions configures a Build call. Progress, if non-nil, is invoked
// after each document is indexed, e.g. to feed pkg/metrics counters or a
// build-progress WebSocket stream; it must not retain the Snapshot being
// built, which is not yet safe to read concurrently.
type BuildOptions struct {
	Progress func(processed, total int)
	Warnf    func(format string, args ...any)
}

// Build consumes a document collection and produces the positional inverted
// index, per-document field lengths, and IDF table. Documents with a blank
// doc_id, or with both title and body empty, are skipped with a warning and
// counted in the report, per the builder's input-corruption error handling
// (§7); a document with only a title or only a body is indexed.
func Build(col corpus.Collection, opts BuildOptions) (*Snapshot, BuildReport, error) {
	start := time.Now()
	warnf := opts.Warnf
	if warnf == nil {
		warnf = log.Printf
	}

	docLengths := make(DocLengths, len(col))
	index := make(InvertedIndex)

	// Deterministic iteration: lexicographic by doc_id, so ties in
	// construction order (irrelevant to the final maps, but relevant to
	// any future streaming writer) are reproducible.
	docIDs := make([]string, 0, len(col))
	for id := range col {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	skipped := 0
	processed := 0

	for _, docID := range docIDs {
		doc := col[docID]
		if docID == "" || doc.Title == "" && doc.Body == "" {
			warnf("index: skipping document %q: blank doc_id or empty title and body", docID)
			skipped++
			continue
		}

		titleTokens := text.Tokenize(text.Normalize(doc.Title, text.ModeIndex))
		bodyTokens := text.Tokenize(text.Normalize(doc.Body, text.ModeIndex))

		docLengths[docID] = FieldLengths{Title: len(titleTokens), Body: len(bodyTokens)}

		for i, term := range titleTokens {
			entry := postingFor(index, term, docID)
			entry.TitleTF++
			entry.TitlePositions = append(entry.TitlePositions, i)
			index[term][docID] = entry
		}
		for i, term := range bodyTokens {
			entry := postingFor(index, term, docID)
			entry.BodyTF++
			entry.BodyPositions = append(entry.BodyPositions, i)
			index[term][docID] = entry
		}

		processed++
		if opts.Progress != nil {
			opts.Progress(processed, len(docIDs))
		}
	}

	// N is the indexed population (post-skip), since it feeds idf/ranking;
	// report.TotalDocuments stays the full corpus size including skips.
	n := float64(len(docLengths))
	idf := make(IDFTable, len(index))
	for term, postings := range index {
		df := float64(len(postings))
		termIDF := math.Log(n / (df + 1))
		idf[term] = termIDF

		for docID, posting := range postings {
			posting.TitleTFIDF = float64(posting.TitleTF) * termIDF
			posting.BodyTFIDF = float64(posting.BodyTF) * termIDF
			postings[docID] = posting
		}
	}

	report := BuildReport{
		TotalDocuments:   len(col),
		UniqueTerms:      len(index),
		TotalTimeSeconds: time.Since(start).Seconds(),
		SkippedDocuments: skipped,
	}

	return &Snapshot{
		Index:      index,
		DocLengths: docLengths,
		IDF:        idf,
		N:          len(docLengths),
	}, report, nil
}

func postingFor(idx InvertedIndex, term, docID string) Posting {
	postings, ok := idx[term]
	if !ok {
		postings = make(PostingsList)
		idx[term] = postings
	}
	return postings[docID]
}
