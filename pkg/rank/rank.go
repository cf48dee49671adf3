package rank

import (
	"math"
	"sort"

	"github.com/parsisearch/jostoju/pkg/index"
	"github.com/parsisearch/jostoju/pkg/minspan"
	"github.com/parsisearch/jostoju/pkg/query"
)

// Result is one scored document.
type Result struct {
	DocID string
	Score float64
}

// Search runs q against snap and returns the full ranked result list (before
// the top-K cutoff) plus the tokens that were actually used for scoring.
// Callers that want the presentation-facing cutoff should call Assemble on
// the returned results.
func Search(snap *index.Snapshot, q query.Query, opts Options) ([]Result, []string) {
	var results []Result
	switch q.Kind {
	case query.KindPhrase:
		results = rankPhrase(snap, q.Terms, opts)
	default:
		results = rankBag(snap, q.Terms, opts)
	}
	return results, q.Terms
}

// rankBag implements the bag-of-words algorithm of spec §4.5.
func rankBag(snap *index.Snapshot, terms []string, opts Options) []Result {
	if len(terms) == 0 {
		return nil
	}

	candidates := make(map[string]struct{})
	for _, t := range terms {
		for docID := range snap.Index[t] {
			candidates[docID] = struct{}{}
		}
	}

	k := len(terms)
	results := make([]Result, 0, len(candidates))

	for docID := range candidates {
		var titleScore, bodyScore float64
		titlePositions := make([][]int, 0, k)
		bodyPositions := make([][]int, 0, k)
		haveAllTitle := true
		haveAllBody := true

		for _, t := range terms {
			posting, ok := snap.Index[t][docID]
			if !ok {
				haveAllTitle = false
				haveAllBody = false
				continue
			}
			titleScore += posting.TitleTFIDF
			bodyScore += posting.BodyTFIDF

			if len(posting.TitlePositions) > 0 {
				titlePositions = append(titlePositions, posting.TitlePositions)
			} else {
				haveAllTitle = false
			}
			if len(posting.BodyPositions) > 0 {
				bodyPositions = append(bodyPositions, posting.BodyPositions)
			} else {
				haveAllBody = false
			}
		}

		titleLen := float64(snap.TitleLen(docID))
		bodyLen := float64(snap.BodyLen(docID))
		normTitle := titleScore / math.Sqrt(titleLen)
		normBody := bodyScore / math.Sqrt(bodyLen)
		combined := opts.TitleWeight*normTitle + opts.BodyWeight*normBody

		var proxBonus, titleExactBonus float64

		if haveAllTitle && len(titlePositions) == k {
			s := minspan.MinSpan(titlePositions)
			if s < opts.MaxSpanDist {
				proxBonus += opts.TitleWeight * math.Pow(1/(1+float64(s)), opts.ProximityPower)
			}
			if s == k-1 {
				titleExactBonus = TitleExactBonus
			}
		}
		if haveAllBody && len(bodyPositions) == k {
			s := minspan.MinSpan(bodyPositions)
			if s < opts.MaxSpanDist {
				proxBonus += opts.BodyWeight * math.Pow(1/(1+float64(s)), opts.ProximityPower)
			}
		}

		finalScore := combined*(1+opts.SpanBoostFactor*proxBonus) + titleExactBonus
		if finalScore <= 0 {
			continue
		}
		results = append(results, Result{DocID: docID, Score: finalScore})
	}

	sortResults(results)
	return results
}

// rankPhrase implements phrase ranking per spec §4.5, using the fixed
// candidate set (intersection of every term's postings) rather than the
// original's t_1-only candidate set — see DESIGN.md Open Question decision
// #2.
func rankPhrase(snap *index.Snapshot, terms []string, opts Options) []Result {
	k := len(terms)
	if k == 0 {
		return nil
	}
	if k == 1 {
		return rankBag(snap, terms, opts)
	}

	first := snap.Index[terms[0]]
	candidates := make([]string, 0, len(first))
	for docID := range first {
		inAll := true
		for _, t := range terms[1:] {
			if _, ok := snap.Index[t][docID]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			candidates = append(candidates, docID)
		}
	}

	results := make([]Result, 0, len(candidates))
	for _, docID := range candidates {
		titleMatch := fieldPhraseMatch(snap, terms, docID, func(p index.Posting) []int { return p.TitlePositions })
		bodyMatch := fieldPhraseMatch(snap, terms, docID, func(p index.Posting) []int { return p.BodyPositions })
		if !titleMatch && !bodyMatch {
			continue
		}

		var baseScore float64
		for _, t := range terms {
			posting := snap.Index[t][docID]
			baseScore += opts.TitleWeight*posting.TitleTFIDF + opts.BodyWeight*posting.BodyTFIDF
		}
		results = append(results, Result{DocID: docID, Score: baseScore * PhraseMultiplier})
	}

	sortResults(results)
	return results
}

// fieldPhraseMatch reports whether terms[0..k-1] appear as an adjacent run
// in the given field at docID: some position p of terms[0] is followed by
// p+1, p+2, ... in terms[1], terms[2], and so on.
func fieldPhraseMatch(snap *index.Snapshot, terms []string, docID string, field func(index.Posting) []int) bool {
	firstPositions := field(snap.Index[terms[0]][docID])

	sets := make([]map[int]struct{}, len(terms))
	for i, t := range terms[1:] {
		positions := field(snap.Index[t][docID])
		set := make(map[int]struct{}, len(positions))
		for _, p := range positions {
			set[p] = struct{}{}
		}
		sets[i] = set
	}

	for _, p := range firstPositions {
		match := true
		for i := range terms[1:] {
			if _, ok := sets[i][p+i+1]; !ok {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
}

// Assemble applies the Result Assembler's top-K cutoff (§4.8), defaulting
// to DefaultTopK when opts.TopK is zero.
func Assemble(results []Result, opts Options) []Result {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(results) > topK {
		return results[:topK]
	}
	return results
}
