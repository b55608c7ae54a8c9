package typeinfer

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// ScoringPolicy scores how well a parameter/variable name matches a
// candidate class name, the pluggable form of the original's
// _calculate_match_score (parsers/py/variable_analyzer.py). Kept as an
// interface per the Open Question decision recorded in SPEC_FULL.md so
// a host can substitute edlib-backed fuzzy scoring without touching
// the engines that call it.
type ScoringPolicy interface {
	Score(nameLower, classLower string) int
}

// DefaultScoringPolicy reproduces the original's exact constants:
// exact match scores highest, a mutual suffix match next, and a
// substring match scaled by the overlap's proportion of the name.
type DefaultScoringPolicy struct{}

const (
	scoreExactMatch    = 100
	scoreSuffixMatch   = 80
	scoreContainsBase  = 60
	minScoreToConsider = 1
)

func (DefaultScoringPolicy) Score(nameLower, classLower string) int {
	if nameLower == classLower {
		return scoreExactMatch
	}
	if strings.HasSuffix(classLower, nameLower) || strings.HasSuffix(nameLower, classLower) {
		return scoreSuffixMatch
	}
	if strings.Contains(nameLower, classLower) && len(nameLower) > 0 {
		return int(float64(scoreContainsBase) * (float64(len(classLower)) / float64(len(nameLower))))
	}
	return 0
}

// EdlibScoringPolicy replaces the hand-rolled substring heuristic's
// third tier with go-edlib's Jaro-Winkler similarity, while keeping
// the same exact/suffix fast paths and point values the spec mandates
// (§4.5 step 1 calls the scoring "heuristic only"; nothing requires
// the fuzzy tier specifically, so this substitutes a grounded library
// call for the one tier that was previously pure string-length math).
type EdlibScoringPolicy struct{}

func (EdlibScoringPolicy) Score(nameLower, classLower string) int {
	if nameLower == classLower {
		return scoreExactMatch
	}
	if strings.HasSuffix(classLower, nameLower) || strings.HasSuffix(nameLower, classLower) {
		return scoreSuffixMatch
	}
	similarity, err := edlib.StringsSimilarity(nameLower, classLower, edlib.JaroWinkler)
	if err != nil || similarity <= 0 {
		return 0
	}
	return int(similarity * scoreContainsBase)
}

// BestMatch returns the highest-scoring candidate in candidates for
// name, or "" if nothing scores above zero.
func BestMatch(policy ScoringPolicy, name string, candidates []string) string {
	nameLower := strings.ToLower(name)
	best := ""
	highest := 0
	for _, c := range candidates {
		score := policy.Score(nameLower, strings.ToLower(c))
		if score > highest {
			highest = score
			best = c
		}
	}
	if highest < minScoreToConsider {
		return ""
	}
	return best
}
