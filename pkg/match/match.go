// Package match scores how closely a resolution candidate's extracted
// semantics match the semantics recorded in an EID's target node, the
// weighted similarity the resolver's Phase 2 filter uses.
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/anchorkit/anchorkit/pkg/classify"
	"github.com/anchorkit/anchorkit/pkg/eid"
)

const (
	weightText       = 0.30
	weightAttributes = 0.30
	weightClasses    = 0.20
	weightRole       = 0.10
	weightID         = 0.10

	// PassThreshold is the minimum score a candidate must reach to
	// survive Phase 2 filtering.
	PassThreshold = 0.5
)

// urlAttrs are attribute names whose values are normalized before
// comparison, so that origin-relative and absolute forms of the same
// link compare equal.
var urlAttrs = map[string]bool{"href": true, "src": true, "action": true}

// Score computes the weighted similarity in [0,1] between candidate
// and recorded. baseURL is used to normalize URL-bearing attribute
// values before comparison.
func Score(candidate, recorded eid.ElementSemantics, baseURL string) float64 {
	return weightText*textSimilarity(candidate.Text, recorded.Text) +
		weightAttributes*attrJaccard(candidate.Attributes, recorded.Attributes, baseURL) +
		weightClasses*jaccard(candidate.Classes, recorded.Classes) +
		weightRole*exactMatch(candidate.Role, recorded.Role) +
		weightID*exactMatch(candidate.ID, recorded.ID)
}

// Passes reports whether score clears PassThreshold.
func Passes(score float64) bool {
	return score >= PassThreshold
}

func exactMatch(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
}

func textSimilarity(a, b *eid.TextValue) float64 {
	if a == nil && b == nil {
		return 1
	}
	if a == nil || b == nil {
		return 0
	}
	av, bv := a.Normalized, b.Normalized
	if av == bv {
		return 1
	}
	dist := levenshtein.ComputeDistance(av, bv)
	norm := maxLen(av, bv)
	if norm == 0 {
		return 1
	}
	ratio := float64(dist) / float64(norm)
	if ratio > 1 {
		ratio = 1
	}
	return 1 - ratio
}

func maxLen(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	if la > lb {
		return la
	}
	return lb
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	setA := toSet(a)
	setB := toSet(b)
	intersection := 0
	for k := range setA {
		if setB[k] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

func toSet(ss []string) map[string]bool {
	out := make(map[string]bool, len(ss))
	for _, s := range ss {
		out[s] = true
	}
	return out
}

func attrJaccard(a, b []eid.AttrPair, baseURL string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	return jaccard(attrPairStrings(a, baseURL), attrPairStrings(b, baseURL))
}

func attrPairStrings(pairs []eid.AttrPair, baseURL string) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		v := p.Value
		if urlAttrs[strings.ToLower(p.Name)] {
			v = classify.NormalizeURL(v, baseURL)
		}
		out[i] = p.Name + "=" + v
	}
	return out
}
