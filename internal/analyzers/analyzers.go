// Package analyzers contains the method analyzers that each score one
// submission for a single detection method. Every analyzer is pure with
// respect to its inputs apart from telemetry side effects, returns a score in
// [0, 1], and signals core.ErrUnavailable when its required data or service
// is absent so that its absence never counts as a clean verdict.
package analyzers

// Combinator selects how multiple hits within one analyzer are aggregated.
type Combinator string

const (
	// CombinatorMax keeps the strongest single hit; suited to definitive
	// signals such as regex matches.
	CombinatorMax Combinator = "max"

	// CombinatorAdditive accumulates hits up to the score ceiling; suited
	// to compounding evidence such as keyword matches.
	CombinatorAdditive Combinator = "additive"
)

// ParseCombinator maps a configuration string to a Combinator, defaulting to
// the given fallback for unknown values.
func ParseCombinator(s string, fallback Combinator) Combinator {
	switch Combinator(s) {
	case CombinatorMax, CombinatorAdditive:
		return Combinator(s)
	}
	return fallback
}

// clamp01 bounds a score to [0, 1].
func clamp01(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
