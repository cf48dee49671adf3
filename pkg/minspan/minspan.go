// Package minspan implements the sliding-window minimum-span algorithm used
// by the ranker's proximity bonus: the smallest window of token positions
// that contains at least one occurrence of every query term.
package minspan

import "sort"

// entry is one (position, term index) pair from the merged position stream.
type entry struct {
	position int
	term     int
}

// MinSpan returns the smallest value max(p_i) - min(p_i) over any selection
// of one position per input list, where positionLists[i] holds the strictly
// increasing positions of the i-th query term. Returns math.MaxInt if any
// list is empty or there are zero lists — callers treat that as "no
// proximity bonus applies" rather than doing float infinity arithmetic.
func MinSpan(positionLists [][]int) int {
	k := len(positionLists)
	if k == 0 {
		return maxSpan
	}
	for _, list := range positionLists {
		if len(list) == 0 {
			return maxSpan
		}
	}

	merged := make([]entry, 0, totalLen(positionLists))
	for term, positions := range positionLists {
		for _, p := range positions {
			merged = append(merged, entry{position: p, term: term})
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].position < merged[j].position
	})

	termCounts := make([]int, k)
	termsInWindow := 0
	left := 0
	best := maxSpan

	for right := 0; right < len(merged); right++ {
		t := merged[right].term
		if termCounts[t] == 0 {
			termsInWindow++
		}
		termCounts[t]++

		for termsInWindow == k {
			span := merged[right].position - merged[left].position
			if span < best {
				best = span
			}

			lt := merged[left].term
			termCounts[lt]--
			if termCounts[lt] == 0 {
				termsInWindow--
			}
			left++
		}
	}

	return best
}

// maxSpan stands in for the spec's "+infinity" return value.
const maxSpan = int(^uint(0) >> 1)

func totalLen(lists [][]int) int {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	return n
}
