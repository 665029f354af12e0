// Package fallback implements the relaxed anchor-only recovery path
// the resolver falls back to when its primary semantic filter yields
// no survivors.
package fallback

import (
	"sort"

	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
	"github.com/anchorkit/anchorkit/pkg/extract"
	"github.com/anchorkit/anchorkit/pkg/match"
)

// RelaxedThreshold is the lowered semantic-match bar applied once the
// primary ≥0.5 filter has already failed.
const RelaxedThreshold = 0.3

// ConfidenceReduction is applied to a fallback candidate's score
// before it's reported as the result's confidence, signaling the
// weaker evidentiary basis for the match.
const ConfidenceReduction = 0.6

// Candidate is one anchor-only recovery match.
type Candidate struct {
	Element *domtree.Element
	Score   float64
}

// Options configures the relaxed re-match.
type Options struct {
	BaseURL string
	Extract extract.Options
}

// Run re-scores every descendant of anchorEl sharing target's tag
// against target's recorded semantics, at the relaxed threshold, and
// returns survivors sorted by score descending then document order.
// An empty result means resolution should report status "error".
func Run(anchorEl *domtree.Element, target eid.TargetNode, opts Options) []Candidate {
	var out []Candidate
	for _, el := range anchorEl.Descendants() {
		if el.TagName() != target.Tag {
			continue
		}
		sem := extract.Extract(el, opts.Extract)
		score := match.Score(sem, target.Semantics, opts.BaseURL)
		if score >= RelaxedThreshold {
			out = append(out, Candidate{Element: el, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Confidence reduces a fallback candidate's raw match score into the
// result confidence reported to the caller.
func Confidence(score float64) float64 {
	return score * ConfidenceReduction
}
