// Package rank scores candidate documents for a parsed query and assembles
// the top-K result list.
package rank

// Fixed engine constants: not configurable, per spec §4.5/§6.
const (
	// PhraseMultiplier scales a phrase match's base TF-IDF sum into its
	// final score.
	PhraseMultiplier = 100.0
	// TitleExactBonus is the flat bonus added when a bag-of-words query's
	// tokens appear contiguously in the title.
	TitleExactBonus = 50.0
	// DefaultTopK is the Result Assembler's default cutoff.
	DefaultTopK = 20
)

// Options configures the ranker's weighting and proximity-bonus shape.
type Options struct {
	TitleWeight     float64
	BodyWeight      float64
	SpanBoostFactor float64
	ProximityPower  float64
	MaxSpanDist     int
	TopK            int
}

// DefaultOptions returns the spec's default ranking configuration.
func DefaultOptions() Options {
	return Options{
		TitleWeight:     0.7,
		BodyWeight:      0.3,
		SpanBoostFactor: 2.0,
		ProximityPower:  3.0,
		MaxSpanDist:     20,
		TopK:            DefaultTopK,
	}
}
