// Package cssgen synthesizes CSS selector strings from an EID's
// anchor/path/target nodes, with escaping, combinator policy, and two
// escalation ladders (anchor selection, target disambiguation) that
// trade off against a live document to guarantee uniqueness when
// asked to.
package cssgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anchorkit/anchorkit/pkg/classify"
	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
)

// reservedChars is the CSS-reserved character set that must be
// backslash-escaped in identifiers (classes, attribute names).
const reservedChars = `!"#$%&'()*+,./:;<=>?@[\]^{|}~`

// EscapeIdent escapes s for use as a CSS class or identifier. A
// leading `-` is escaped first per the CSS grammar, then every
// remaining reserved character is backslash-escaped individually.
func EscapeIdent(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	runes := []rune(s)
	start := 0
	if runes[0] == '-' {
		b.WriteString(`\-`)
		start = 1
	}
	for _, r := range runes[start:] {
		if strings.ContainsRune(reservedChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func escapeAttrValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// NodeSelector renders a single node's tag, stable id (if any),
// classes (dot-prefixed, in stored order), attribute predicates (in
// stored order), and optionally its nth-child, classes before
// attributes, both before nth-child. A
// stable id is rendered as a CSS id selector ahead of classes — the
// most specific, cheapest-to-match fragment available.
func NodeSelector(n eid.NodeRef, includeNth bool) string {
	var b strings.Builder
	b.WriteString(n.Tag)
	if n.Semantics.ID != "" {
		b.WriteByte('#')
		b.WriteString(EscapeIdent(n.Semantics.ID))
	}
	for _, c := range n.Semantics.Classes {
		b.WriteByte('.')
		b.WriteString(EscapeIdent(c))
	}
	for _, a := range n.Semantics.Attributes {
		fmt.Fprintf(&b, `[%s="%s"]`, a.Name, escapeAttrValue(a.Value))
	}
	if includeNth && n.NthChild != nil {
		fmt.Fprintf(&b, ":nth-child(%d)", *n.NthChild)
	}
	return b.String()
}

// sequence flattens anchor/path/target into one ordered slice for
// combinator computation.
func sequence(e eid.EID) []eid.NodeRef {
	seq := make([]eid.NodeRef, 0, len(e.Path)+2)
	seq = append(seq, e.Anchor.NodeRef)
	for _, p := range e.Path {
		seq = append(seq, p.NodeRef)
	}
	seq = append(seq, e.Target.NodeRef)
	return seq
}

// isRootMode reports whether e should be synthesized as a root-anchored
// selector (html > head > ... with preserved nth-child).
func isRootMode(e eid.EID) bool {
	return e.Anchor.Tag == "html"
}

// Baseline renders the default selector for e: descendant combinators
// between every node, except (a) when anchor is the document root
// (root-element synthesis uses `>` throughout with nth-child
// preserved) and (b) once an `svg` element appears in the sequence,
// from which point on every remaining combinator (through the target)
// is `>`.
func Baseline(e eid.EID) string {
	seq := sequence(e)
	root := isRootMode(e)

	parts := make([]string, len(seq))
	for i, n := range seq {
		// Path nodes (everything strictly between anchor and target)
		// always carry their recorded nth-child: it's the only thing
		// that can disambiguate two structurally-identical branches
		// once a node was kept specifically to break a tie. Anchor and
		// target only get theirs in root mode; otherwise their own
		// escalation ladders (cssgen.BuildUnique) own that tier.
		includeNth := root || (i > 0 && i < len(seq)-1)
		parts[i] = NodeSelector(n, includeNth)
	}

	var b strings.Builder
	b.WriteString(parts[0])
	svgSeen := seq[0].Tag == "svg"
	for i := 1; i < len(seq); i++ {
		combinator := " "
		if root || svgSeen {
			combinator = " > "
		}
		b.WriteString(combinator)
		b.WriteString(parts[i])
		if seq[i].Tag == "svg" {
			svgSeen = true
		}
	}
	return b.String()
}

// Build returns the plain baseline selector for e. It performs no
// document access and never fails to produce a string, matching the
// "pure" half of buildSelector's dual return.
func Build(e eid.EID) string {
	return Baseline(e)
}

// BuildOptions configures the uniqueness-checking half of selector
// synthesis, which needs a document to query against.
type BuildOptions struct {
	// Root is the document or element the candidate selectors are
	// evaluated against. Required for any escalation to run; without
	// it, Result.Selector is the baseline and IsUnique is left false.
	Root domtree.Root

	// AnchorElement is the live anchor element, when available (at
	// generation time). It lets the anchor escalation ladder compute
	// an nth-of-type fallback; without it, that final tier is skipped.
	AnchorElement *domtree.Element

	// TargetElement is the live target element, when available (at
	// generation time). Target disambiguation escalates by pulling
	// additional classes/attributes straight off the live element
	// that extraction left out of the recorded semantics — not a
	// possibility once only the EID's stored fields remain.
	TargetElement *domtree.Element

	// EnsureUnique runs the target disambiguation ladder when the
	// baseline (or anchor-escalated) selector matches more than once.
	EnsureUnique bool
}

// Result is the richer return of BuildUnique.
type Result struct {
	Selector          string
	IsUnique          bool
	UsedNthOfType     bool
	ExtraClassesAdded int
}

// BuildUnique synthesizes a selector for e and, when opts.Root is
// supplied, escalates the anchor and (if opts.EnsureUnique) target
// fragments until the result uniquely matches or the escalation
// ladders are exhausted.
func BuildUnique(e eid.EID, opts BuildOptions) (Result, error) {
	if opts.Root == nil {
		return Result{Selector: Baseline(e)}, nil
	}
	rootEl, _, err := domtree.Resolve(opts.Root)
	if err != nil {
		return Result{}, fmt.Errorf("cssgen: %w", err)
	}

	root := isRootMode(e)
	anchorSel, usedNthOfType := escalateAnchor(e.Anchor, rootEl, opts.AnchorElement)

	middle := middleSelector(e)
	targetSel := NodeSelector(e.Target.NodeRef, root)

	selector := joinSequence(e, anchorSel, middle, targetSel)
	count, _ := countMatches(rootEl, selector)

	extraClasses := 0
	if opts.EnsureUnique && count != 1 {
		targetSel, count, extraClasses = escalateTarget(e, rootEl, opts.TargetElement, anchorSel, middle, root)
		selector = joinSequence(e, anchorSel, middle, targetSel)
	}

	return Result{
		Selector:          selector,
		IsUnique:          count == 1,
		UsedNthOfType:     usedNthOfType,
		ExtraClassesAdded: extraClasses,
	}, nil
}

func middleSelector(e eid.EID) []string {
	out := make([]string, len(e.Path))
	for i, p := range e.Path {
		// Path nodes always carry their nth-child; see Baseline.
		out[i] = NodeSelector(p.NodeRef, true)
	}
	return out
}

// joinSequence re-applies the combinator policy (descendant, with
// root/SVG special-casing) to a possibly-escalated anchor/middle/target.
func joinSequence(e eid.EID, anchorSel string, middle []string, targetSel string) string {
	root := isRootMode(e)
	seq := sequence(e)

	frags := make([]string, 0, len(middle)+2)
	frags = append(frags, anchorSel)
	frags = append(frags, middle...)
	frags = append(frags, targetSel)

	var b strings.Builder
	b.WriteString(frags[0])
	svgSeen := seq[0].Tag == "svg"
	for i := 1; i < len(frags); i++ {
		combinator := " "
		if root || svgSeen {
			combinator = " > "
		}
		b.WriteString(combinator)
		b.WriteString(frags[i])
		if seq[i].Tag == "svg" {
			svgSeen = true
		}
	}
	return b.String()
}

// escalateAnchor tries, in order: tag alone, tag#id (when the anchor
// has a stable id), tag + first identity attribute, tag + first semantic class, tag:nth-child(n), and
// (given a live element) tag:nth-of-type(k) — stopping at the first
// candidate that uniquely matches within root.
func escalateAnchor(anchor eid.AnchorNode, rootEl *domtree.Element, live *domtree.Element) (string, bool) {
	tag := anchor.Tag
	candidates := []string{tag}

	if anchor.Semantics.ID != "" {
		candidates = append(candidates, fmt.Sprintf("%s#%s", tag, EscapeIdent(anchor.Semantics.ID)))
	}
	if attrs := anchor.Semantics.Attributes; len(attrs) > 0 {
		candidates = append(candidates, fmt.Sprintf(`%s[%s="%s"]`, tag, attrs[0].Name, escapeAttrValue(attrs[0].Value)))
	}
	if classes := anchor.Semantics.Classes; len(classes) > 0 {
		candidates = append(candidates, tag+"."+EscapeIdent(classes[0]))
	}
	if anchor.NthChild != nil {
		candidates = append(candidates, fmt.Sprintf("%s:nth-child(%d)", tag, *anchor.NthChild))
	}

	for _, cand := range candidates {
		if count, err := countMatches(rootEl, cand); err == nil && count == 1 {
			return cand, false
		}
	}

	if live != nil {
		k := live.NthOfType()
		return fmt.Sprintf("%s:nth-of-type(%d)", tag, k), true
	}

	// Exhausted the ladder: fall back to the richest candidate, with
	// nth-child applied if we recorded one, so the selector is at
	// least as specific as generation-time observed.
	full := NodeSelector(anchor.NodeRef, true)
	return full, false
}

// escalateTarget tries, in order: one more semantic class, one more
// identity attribute (both pulled from the live element when
// available, since the baseline already includes every stored
// class/attribute), then nth-child — stopping at the first candidate
// that uniquely matches. The attribute candidate is screened through
// classify.ClassifyAttribute so state/analytics/library-internal noise
// on the live element never becomes part of the selector.
func escalateTarget(e eid.EID, rootEl *domtree.Element, live *domtree.Element, anchorSel string, middle []string, root bool) (string, int, int) {
	target := e.Target.NodeRef
	base := NodeSelector(target, root)
	extra := 0

	try := func(sel string) (string, int, bool) {
		full := joinSequence(e, anchorSel, middle, sel)
		count, err := countMatches(rootEl, full)
		return sel, count, err == nil && count == 1
	}

	if sel, count, ok := try(base); ok {
		return sel, count, extra
	} else if live != nil {
		if extraClass, found := nextUnusedClass(live, target.Semantics.Classes); found {
			extra++
			candidate := base + "." + EscapeIdent(extraClass)
			if sel, count, ok := try(candidate); ok {
				return sel, count, extra
			}
			base = candidate
		}
		if name, value, found := nextUnusedAttr(live, target.Semantics.Attributes); found {
			extra++
			candidate := fmt.Sprintf(`%s[%s="%s"]`, base, name, escapeAttrValue(value))
			if sel, count, ok := try(candidate); ok {
				return sel, count, extra
			}
			base = candidate
		}
	}

	if target.NthChild != nil {
		candidate := fmt.Sprintf("%s:nth-child(%d)", base, *target.NthChild)
		sel, count, _ := try(candidate)
		return sel, count, extra
	}

	_, count, _ := try(base)
	return base, count, extra
}

func nextUnusedClass(live *domtree.Element, used []string) (string, bool) {
	usedSet := toSet(used)
	for _, c := range live.ClassList() {
		if !usedSet[c] {
			return c, true
		}
	}
	return "", false
}

func nextUnusedAttr(live *domtree.Element, used []eid.AttrPair) (string, string, bool) {
	usedSet := make(map[string]bool, len(used))
	for _, a := range used {
		usedSet[a.Name] = true
	}
	for _, a := range live.Attrs() {
		name := strings.ToLower(a.Key)
		if name == "id" || name == "class" || usedSet[name] {
			continue
		}
		if classify.ClassifyAttribute(name, a.Val) != classify.AttrIdentity {
			continue
		}
		return a.Key, a.Val, true
	}
	return "", "", false
}

func toSet(ss []string) map[string]bool {
	out := make(map[string]bool, len(ss))
	for _, s := range ss {
		out[s] = true
	}
	return out
}

func countMatches(rootEl *domtree.Element, selector string) (int, error) {
	matches, err := domtree.QuerySelectorAll(rootEl, selector)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// ParseNthChild extracts N from the last `:nth-child(N)` in a selector
// fragment.
func ParseNthChild(selector string) (int, bool) {
	idx := strings.LastIndex(selector, ":nth-child(")
	if idx < 0 {
		return 0, false
	}
	rest := selector[idx+len(":nth-child("):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
