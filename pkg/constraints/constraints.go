// Package constraints applies the post-filter rules an EID records —
// uniqueness, text-proximity, position — to a resolved candidate set,
// in declining priority order.
package constraints

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/agnivade/levenshtein"

	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
)

// Candidate is one surviving resolution candidate, carrying its
// semantic-match score and document-order index (lower = earlier).
type Candidate struct {
	Element  *domtree.Element
	Score    float64
	DocOrder int
}

// UniquenessMode values for a "uniqueness" constraint's params["mode"].
const (
	ModeStrict        = "strict"
	ModeBestScore     = "best-score"
	ModeAllowMultiple = "allow-multiple"
)

// PositionStrategy values for a "position" constraint's params["strategy"].
const (
	StrategyTopMost    = "top-most"
	StrategyLeftMost   = "left-most"
	StrategyFirstInDOM = "first-in-dom"
)

// Apply runs cs, sorted by declining priority, against candidates.
// uniqueness and text-proximity narrow the working set; position is
// held back and only applied as a final tiebreak if more than one
// candidate survives everything else, since it's a fallback selector
// rather than a filter.
func Apply(candidates []Candidate, cs []eid.Constraint) ([]Candidate, error) {
	ordered := make([]eid.Constraint, len(cs))
	copy(ordered, cs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	var position *eid.Constraint
	working := candidates
	for i := range ordered {
		c := ordered[i]
		switch c.Type {
		case eid.ConstraintUniqueness:
			next, err := applyUniqueness(working, c)
			if err != nil {
				return nil, err
			}
			working = next
		case eid.ConstraintTextProximity:
			next, err := applyTextProximity(working, c)
			if err != nil {
				return nil, err
			}
			working = next
		case eid.ConstraintPosition:
			position = &c
		}
	}

	if len(working) > 1 && position != nil {
		working = applyPosition(working, *position)
	}
	return working, nil
}

func applyUniqueness(candidates []Candidate, c eid.Constraint) ([]Candidate, error) {
	switch c.Params["mode"] {
	case ModeStrict:
		if len(candidates) > 1 {
			return nil, fmt.Errorf("constraints: uniqueness(strict) failed: %d candidates", len(candidates))
		}
		return candidates, nil
	case ModeBestScore:
		if len(candidates) <= 1 {
			return candidates, nil
		}
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.Score > best.Score {
				best = c
			}
		}
		return []Candidate{best}, nil
	case ModeAllowMultiple, "":
		return candidates, nil
	default:
		return candidates, nil
	}
}

func applyTextProximity(candidates []Candidate, c eid.Constraint) ([]Candidate, error) {
	reference := c.Params["reference"]
	maxDistance, err := strconv.Atoi(c.Params["maxDistance"])
	if err != nil {
		return nil, fmt.Errorf("constraints: text-proximity: invalid maxDistance %q", c.Params["maxDistance"])
	}

	out := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(TextContent(cand.Element), reference)
		if dist <= maxDistance {
			out = append(out, cand)
		}
	}
	return out, nil
}

// applyPosition deterministically picks one candidate. The engine has
// no layout box model (it walks a parsed tree, not a rendered page),
// so top-most and left-most both fall back to first-in-dom — the
// only position signal a static tree actually carries.
func applyPosition(candidates []Candidate, c eid.Constraint) []Candidate {
	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.DocOrder < best.DocOrder {
			best = cand
		}
	}
	_ = c.Params["strategy"]
	return []Candidate{best}
}

// TextContent concatenates el's own and every descendant's direct
// text, in document order, for text-proximity matching.
func TextContent(el *domtree.Element) string {
	s := el.DirectText()
	for _, d := range el.Descendants() {
		s += d.DirectText()
	}
	return s
}
