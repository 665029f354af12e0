// Package anchor finds the closest strong-semantic ancestor of a
// target element: the node an EID's path is built relative to.
//
// Candidates are scored by a tiered bonus system (semantic tag, ARIA
// landmark role, aria-label, stable id, test marker) with a depth
// penalty that only kicks in past a short grace window, so the first
// qualifying ancestor a few levels up isn't penalized relative to one
// right next to the target. A semantic-tag hit short-circuits the
// walk immediately; otherwise the best-scoring ancestor seen before
// reaching the document root wins. Finding nothing at all degrades to
// a root-element fallback.
package anchor

import (
	"strings"

	"github.com/anchorkit/anchorkit/pkg/classify"
	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
	"github.com/anchorkit/anchorkit/pkg/extract"
)

// Tier A: tags whose mere presence signals a semantic landmark. A hit
// here short-circuits the ancestor walk.
var tierATags = map[string]bool{
	"form": true, "main": true, "nav": true, "section": true,
	"article": true, "header": true, "footer": true, "aside": true,
	"dialog": true,
}

// Tier B: ARIA landmark/widget roles carrying the same weight as a
// semantic tag when the tag itself is generic (e.g. a <div role="dialog">).
var tierBRoles = map[string]bool{
	"navigation": true, "main": true, "region": true, "dialog": true,
	"form": true, "banner": true, "contentinfo": true, "complementary": true,
}

var testMarkerAttrs = []string{"data-testid", "data-qa", "data-test"}

// appLevelIDs are conventional root-mount ids; a stable id matching
// one of these gets a small extra nudge since it's more likely to be
// the single enduring anchor across an app's lifetime.
var appLevelIDs = map[string]bool{
	"root": true, "app": true, "main": true, "app-root": true, "__next": true,
}

const (
	tierABonus      = 0.60
	tierBBonus      = 0.40
	ariaLabelBonus  = 0.15
	stableIDBonus   = 0.25
	appLevelIDBonus = 0.05
	testMarkerBonus = 0.20

	// depthPenaltyGrace (T) is how many ancestor levels are penalty-free.
	depthPenaltyGrace = 3
	// depthPenaltyFactor (F) scales the per-level penalty past the grace window.
	depthPenaltyFactor = 0.05

	// DefaultMaxDepth bounds how many ancestors are walked before
	// giving up and degrading to a root fallback.
	DefaultMaxDepth = 10
)

// Options configures anchor discovery.
type Options struct {
	// MaxDepth bounds the ancestor walk. Zero means DefaultMaxDepth.
	MaxDepth int

	// Extract configures semantic extraction for the chosen anchor.
	Extract extract.Options
}

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

// candidateScore reports the raw tiered bonus for el and whether it
// is a Tier A (semantic-tag) hit.
func candidateScore(el *domtree.Element) (raw float64, tierA bool) {
	if tierATags[el.TagName()] {
		raw += tierABonus
		tierA = true
	}
	if role, ok := el.Attr("role"); ok && tierBRoles[strings.ToLower(role)] {
		raw += tierBBonus
	}
	if hasAriaLabel(el) {
		raw += ariaLabelBonus
	}
	if id := el.ID(); classify.IsStableID(id) {
		raw += stableIDBonus
		if appLevelIDs[strings.ToLower(id)] {
			raw += appLevelIDBonus
		}
	}
	if hasTestMarker(el) {
		raw += testMarkerBonus
	}
	return raw, tierA
}

func hasAriaLabel(el *domtree.Element) bool {
	if v, ok := el.Attr("aria-label"); ok && v != "" {
		return true
	}
	v, ok := el.Attr("aria-labelledby")
	return ok && v != ""
}

func hasTestMarker(el *domtree.Element) bool {
	for _, name := range testMarkerAttrs {
		if v, ok := el.Attr(name); ok && v != "" {
			return true
		}
	}
	return false
}

func depthPenalty(depth int) float64 {
	over := depth - depthPenaltyGrace
	if over <= 0 {
		return 0
	}
	return float64(over) * depthPenaltyFactor
}

func adjustedScore(raw float64, depth int) float64 {
	adj := raw - depthPenalty(depth)
	if adj < 0 {
		return 0
	}
	return adj
}

// Find walks target's ancestors to choose an anchor. It never returns
// an error: when nothing qualifies, the result is a degraded anchor
// at the document root.
func Find(target *domtree.Element, opts Options) eid.AnchorNode {
	_, node := FindElement(target, opts)
	return node
}

// FindElement is Find plus the live element the anchor data was built
// from, which the path builder needs to walk from anchor to target.
func FindElement(target *domtree.Element, opts Options) (*domtree.Element, eid.AnchorNode) {
	if el, override, ok := rootOverrideElement(target, opts); ok {
		return el, override
	}

	var best *domtree.Element
	bestScore := -1.0
	found := false

	depth := 0
	for el := target.Parent(); el != nil && depth < opts.maxDepth(); el = el.Parent() {
		depth++
		raw, tierA := candidateScore(el)
		if raw <= 0 {
			if el.TagName() == "body" {
				break
			}
			continue
		}
		found = true
		score := adjustedScore(raw, depth)
		if tierA {
			return el, buildAnchorNode(el, score, false, opts.Extract)
		}
		if score > bestScore {
			bestScore = score
			best = el
		}
		if el.TagName() == "body" {
			break
		}
	}

	if found && best != nil {
		return best, buildAnchorNode(best, bestScore, false, opts.Extract)
	}

	fallback := rootFallback(target)
	fallbackSem := extract.Extract(fallback, opts.Extract)
	return fallback, buildAnchorNode(fallback, fallbackSem.SemanticScore(), true, opts.Extract)
}

// rootOverrideElement handles the root-element short-circuits for
// html/head/body targets, which precede the normal ancestor walk
// entirely.
func rootOverrideElement(target *domtree.Element, opts Options) (*domtree.Element, eid.AnchorNode, bool) {
	switch target.TagName() {
	case "html":
		return target, buildAnchorNode(target, 1.0, false, opts.Extract), true
	case "head", "body":
		if html := ancestorByTag(target, "html"); html != nil {
			return html, buildAnchorNode(html, 1.0, false, opts.Extract), true
		}
	default:
		if insideHead(target) {
			if html := ancestorByTag(target, "html"); html != nil {
				return html, buildAnchorNode(html, 1.0, false, opts.Extract), true
			}
		}
	}
	return nil, eid.AnchorNode{}, false
}

func insideHead(el *domtree.Element) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p.TagName() == "head" {
			return true
		}
	}
	return false
}

func ancestorByTag(el *domtree.Element, tag string) *domtree.Element {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p.TagName() == tag {
			return p
		}
	}
	return nil
}

// rootFallback returns <body>, or <html> if there is no body, or
// target itself if it has no ancestors at all.
func rootFallback(target *domtree.Element) *domtree.Element {
	var html, body *domtree.Element
	for el := target.Parent(); el != nil; el = el.Parent() {
		switch el.TagName() {
		case "body":
			body = el
		case "html":
			html = el
		}
	}
	if body != nil {
		return body
	}
	if html != nil {
		return html
	}
	return target
}

func buildAnchorNode(el *domtree.Element, score float64, degraded bool, extractOpts extract.Options) eid.AnchorNode {
	sem := extract.Extract(el, extractOpts)
	return eid.AnchorNode{
		NodeRef: eid.NodeRef{
			Tag:       el.TagName(),
			Semantics: sem,
			Score:     clamp01(score),
			NthChild:  el.NthChild(),
		},
		Degraded: degraded,
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
