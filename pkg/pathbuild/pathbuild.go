// Package pathbuild constructs the filtered ancestor chain between an
// anchor and a target element.
//
// Every ancestor between anchor and target is collected first; most
// are then dropped as structurally insignificant (a bare layout
// <div>), keeping only the ones carrying identity or belonging to a
// whitelisted semantic tag. If the resulting trial selector still
// isn't unique against the owning document, skipped ancestors are
// reinserted one at a time — those clearing a semantic-score bar
// first, then the rest, each group in original order — until it is, or
// until the skipped pool runs out.
package pathbuild

import (
	"fmt"

	"github.com/anchorkit/anchorkit/pkg/cssgen"
	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
	drifterrors "github.com/anchorkit/anchorkit/pkg/errors"
	"github.com/anchorkit/anchorkit/pkg/extract"
)

// DefaultMaxDepth bounds how many ancestors may separate anchor and
// target before the path is considered degraded.
const DefaultMaxDepth = 10

// minConfidenceForSkip is the semantic-score bar a skipped ancestor
// must clear to be preferred during uniqueness escalation.
const minConfidenceForSkip = 0.55

// Options configures path construction.
type Options struct {
	// MaxDepth bounds the anchor-to-target ancestor count. Zero means
	// DefaultMaxDepth.
	MaxDepth int

	Extract extract.Options
}

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

// node is one ancestor between anchor and target, in anchor-to-target
// order, with its computed significance.
type node struct {
	pathNode    eid.PathNode
	significant bool
}

// Result is the outcome of Build.
type Result struct {
	Path              []eid.PathNode
	Degraded          bool
	DegradationReason drifterrors.DegradationReason
}

// Build collects the ancestor chain between anchorEl and target,
// filters it down to semantically significant nodes, and — given doc
// — escalates by reinserting skipped nodes until the trial selector
// `<anchor> <path...> <target>` uniquely matches within doc.
//
// doc may be nil, in which case no document is available to check
// uniqueness against (e.g. a detached fragment) and the filtered path
// is returned as-is.
func Build(target, anchorEl *domtree.Element, anchor eid.AnchorNode, targetNode eid.TargetNode, doc *domtree.Document, opts Options) Result {
	// Root override: anchor==target (the html-anchors-
	// itself case) always has an empty path, and when html anchors a
	// target inside head, the whole head..target chain is kept
	// unfiltered rather than run through significance filtering.
	if anchorEl.Equal(target) {
		return Result{}
	}
	if anchor.Tag == "html" && insideHead(target) {
		nodes, err := collect(target, anchorEl, opts)
		if err != nil {
			return Result{Degraded: true, DegradationReason: classifyCollectError(err)}
		}
		all := make(map[int]bool, len(nodes))
		for i := range nodes {
			all[i] = true
		}
		return Result{Path: extractPath(nodes, all)}
	}

	nodes, err := collect(target, anchorEl, opts)
	if err != nil {
		return Result{
			Degraded:          true,
			DegradationReason: classifyCollectError(err),
		}
	}

	filtered := filteredIndices(nodes)
	if doc == nil {
		return Result{Path: extractPath(nodes, filtered)}
	}

	kept := escalate(nodes, filtered, anchor, targetNode, doc)
	return Result{Path: extractPath(nodes, kept)}
}

func insideHead(el *domtree.Element) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p.TagName() == "head" {
			return true
		}
	}
	return false
}

func classifyCollectError(err error) drifterrors.DegradationReason {
	if _, ok := err.(depthOverflowError); ok {
		return drifterrors.ReasonPathDepthOverflow
	}
	return drifterrors.ReasonTargetNotDescendant
}

type depthOverflowError struct{ max int }

func (e depthOverflowError) Error() string {
	return fmt.Sprintf("pathbuild: ancestor chain exceeds max depth %d", e.max)
}

// collect walks up from target to anchorEl (exclusive of both) and
// returns the intermediate ancestors in anchor-to-target order.
func collect(target, anchorEl *domtree.Element, opts Options) ([]node, error) {
	var reversed []*domtree.Element // nearest-target first
	found := false
	steps := 0
	for el := target.Parent(); el != nil; el = el.Parent() {
		if el.Equal(anchorEl) {
			found = true
			break
		}
		reversed = append(reversed, el)
		steps++
		if steps > opts.maxDepth() {
			return nil, depthOverflowError{opts.maxDepth()}
		}
	}
	if !found {
		return nil, fmt.Errorf("pathbuild: %s is not a descendant of anchor %s", target.TagName(), anchorEl.TagName())
	}

	nodes := make([]node, len(reversed))
	for i, el := range reversed {
		out := len(reversed) - 1 - i // flip to anchor-to-target order
		sem := extract.Extract(el, opts.Extract)
		nodes[out] = node{
			pathNode: eid.PathNode{NodeRef: eid.NodeRef{
				Tag:       el.TagName(),
				Semantics: sem,
				Score:     sem.SemanticScore(),
				NthChild:  el.NthChild(),
			}},
			significant: isSignificant(el, sem),
		}
	}
	return nodes, nil
}

// semanticWhitelist are tags kept regardless of their extracted
// semantics, since the tag itself carries structural meaning.
var semanticWhitelist = map[string]bool{
	"form": true, "nav": true, "header": true, "footer": true,
	"main": true, "aside": true, "article": true, "section": true,
	"dialog": true, "table": true, "ul": true, "ol": true,
	"fieldset": true, "thead": true, "tbody": true,
}

func isSignificant(el *domtree.Element, sem eid.ElementSemantics) bool {
	if semanticWhitelist[el.TagName()] {
		return true
	}
	if el.TagName() != "div" && el.TagName() != "span" {
		return false
	}
	return sem.Role != "" || hasAria(el) || len(sem.Classes) > 0 || hasTestMarker(el) || sem.ID != ""
}

func hasAria(el *domtree.Element) bool {
	for _, a := range el.Attrs() {
		if len(a.Key) > 5 && a.Key[:5] == "aria-" {
			return true
		}
	}
	return false
}

func hasTestMarker(el *domtree.Element) bool {
	for _, name := range []string{"data-testid", "data-qa", "data-test"} {
		if v, ok := el.Attr(name); ok && v != "" {
			return true
		}
	}
	return false
}

func filteredIndices(nodes []node) map[int]bool {
	kept := make(map[int]bool, len(nodes))
	for i, n := range nodes {
		if n.significant {
			kept[i] = true
		}
	}
	return kept
}

func extractPath(nodes []node, kept map[int]bool) []eid.PathNode {
	out := make([]eid.PathNode, 0, len(kept))
	for i, n := range nodes {
		if kept[i] {
			out = append(out, n.pathNode)
		}
	}
	return out
}

// escalate reinserts skipped nodes — those scoring ≥ minConfidenceForSkip
// first, then the rest in original order — one at a time, keeping an
// insertion only when it strictly reduces the trial selector's match
// count, until unique or the skipped pool is exhausted.
func escalate(nodes []node, kept map[int]bool, anchor eid.AnchorNode, target eid.TargetNode, doc *domtree.Document) map[int]bool {
	count := trialMatchCount(nodes, kept, anchor, target, doc)
	if count <= 1 {
		return kept
	}

	var strong, weak []int
	for i, n := range nodes {
		if kept[i] {
			continue
		}
		if n.pathNode.Score >= minConfidenceForSkip {
			strong = append(strong, i)
		} else {
			weak = append(weak, i)
		}
	}

	for _, i := range append(strong, weak...) {
		trial := make(map[int]bool, len(kept)+1)
		for k := range kept {
			trial[k] = true
		}
		trial[i] = true
		newCount := trialMatchCount(nodes, trial, anchor, target, doc)
		if newCount < count {
			kept = trial
			count = newCount
			if count <= 1 {
				break
			}
		}
	}
	return kept
}

func trialMatchCount(nodes []node, kept map[int]bool, anchor eid.AnchorNode, target eid.TargetNode, doc *domtree.Document) int {
	selector := cssgen.NodeSelector(anchor.NodeRef, false)
	for i, n := range nodes {
		if kept[i] {
			// Reinserted nodes carry their nth-child: that position
			// is the only thing distinguishing two otherwise-identical
			// branches, which is exactly the case escalation exists for.
			selector += " " + cssgen.NodeSelector(n.pathNode.NodeRef, true)
		}
	}
	selector += " " + cssgen.NodeSelector(target.NodeRef, false)

	matches, err := doc.QuerySelectorAll(selector)
	if err != nil {
		return 1
	}
	return len(matches)
}
