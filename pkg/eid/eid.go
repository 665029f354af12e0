// Package eid defines the Element Identity Descriptor data model: the
// immutable record produced by generation and consumed by resolution.
//
// An EID encodes what an element *is* semantically — its anchor,
// the filtered ancestor path between anchor and target, and the
// target's own semantics — rather than where it sits structurally.
// Once produced, an EID is never mutated; callers that need a changed
// EID build a new one.
package eid

import (
	"time"

	drifterrors "github.com/anchorkit/anchorkit/pkg/errors"
)

// NodeRef holds the fields shared by AnchorNode, PathNode, and TargetNode.
//
// Sharing via embedding (rather than a tagged `kind` discriminator) keeps
// anchor/path/target serialization one-to-one with the SEQL grammar, which
// walks the three positionally and never needs to ask "what kind of node
// is this".
type NodeRef struct {
	// Tag is the lowercased element tag name.
	Tag string

	// Semantics is the extracted identity information for this node.
	Semantics ElementSemantics

	// Score is in [0,1]: the anchor finder's tiered score for the
	// anchor, the semantic richness for path and target nodes.
	Score float64

	// NthChild is the 1-based position among the parent's children.
	// Nil only for an element with no parent (the document root).
	NthChild *int
}

// AnchorNode is the closest strong-semantic ancestor chosen as the
// identifier's root.
type AnchorNode struct {
	NodeRef

	// Degraded indicates the anchor finder fell back to a weak
	// candidate (e.g. <body>) rather than a tiered match.
	Degraded bool
}

// PathNode is one filtered intermediate ancestor between anchor and target.
type PathNode struct {
	NodeRef
}

// TargetNode is the element the EID ultimately identifies.
type TargetNode struct {
	NodeRef
}

// ConstraintType identifies a post-filter rule applied during resolution.
type ConstraintType string

const (
	ConstraintUniqueness    ConstraintType = "uniqueness"
	ConstraintTextProximity ConstraintType = "text-proximity"
	ConstraintPosition      ConstraintType = "position"
)

// Constraint is one ordered rule the constraints evaluator applies.
type Constraint struct {
	Type ConstraintType

	// Params holds rule-specific parameters, e.g. {"mode": "strict"}
	// for uniqueness or {"reference": "...", "maxDistance": "2"} for
	// text-proximity.
	Params map[string]string

	// Priority governs application order; higher runs first. 0..100.
	Priority int
}

// OnMultiple names the fallback strategy when resolution yields more
// than one candidate.
type OnMultiple string

const (
	OnMultipleBestScore     OnMultiple = "best-score"
	OnMultipleStrict        OnMultiple = "strict"
	OnMultipleAllowMultiple OnMultiple = "allow-multiple"
)

// OnMissing names the fallback strategy when resolution yields zero
// candidates.
type OnMissing string

const (
	OnMissingAnchorOnly OnMissing = "anchor-only"
	OnMissingNone       OnMissing = "none"
)

// Fallback describes how the resolver should behave on ambiguity or
// absence of candidates.
type Fallback struct {
	OnMultiple OnMultiple
	OnMissing  OnMissing
	MaxDepth   int
}

// Meta carries generation provenance and quality information.
type Meta struct {
	// Confidence is the scorer's aggregate result in [0,1].
	Confidence float64

	// GeneratedAt is when generation ran, in ISO-8601 (RFC3339).
	GeneratedAt time.Time

	// Generator identifies the producing implementation, e.g.
	// "anchorkit/0.1".
	Generator string

	// Source optionally names the originating tool or session.
	Source string

	// Degraded is true iff anchor.Degraded or the path was degraded.
	Degraded bool

	// DegradationReason explains Degraded when true.
	DegradationReason drifterrors.DegradationReason
}

// Version is the current EID format tag.
const Version = "1"

// EID is the immutable Element Identity Descriptor.
type EID struct {
	Version     string
	Anchor      AnchorNode
	Path        []PathNode
	Target      TargetNode
	Constraints []Constraint
	Fallback    Fallback
	Meta        Meta
}

// AttrPair is one identity attribute in priority-emission order.
type AttrPair struct {
	Name  string
	Value string
}

// TextValue holds an element's raw and normalized text content.
type TextValue struct {
	Raw        string
	Normalized string
}

// SvgShape is the fingerprinted SVG element kind.
type SvgShape string

const (
	SvgShapePath     SvgShape = "path"
	SvgShapeCircle   SvgShape = "circle"
	SvgShapeRect     SvgShape = "rect"
	SvgShapeLine     SvgShape = "line"
	SvgShapePolyline SvgShape = "polyline"
	SvgShapePolygon  SvgShape = "polygon"
	SvgShapeEllipse  SvgShape = "ellipse"
	SvgShapeG        SvgShape = "g"
	SvgShapeText     SvgShape = "text"
	SvgShapeUse      SvgShape = "use"
	SvgShapeSvg      SvgShape = "svg"
)

// SvgFingerprint summarizes an SVG element's shape and geometry.
type SvgFingerprint struct {
	Shape SvgShape

	// DHash is an 8-hex hash of the first 5 path commands (path only).
	DHash string

	// GeomHash is an 8-hex hash of a scale-independent geometry
	// descriptor (circle/rect/ellipse/line only).
	GeomHash string

	Role         string
	TitleText    string
	HasAnimation bool
}

// ElementSemantics is the extracted identity information for one element.
// All fields are optional; zero values mean "absent".
type ElementSemantics struct {
	// ID is the element's stable id, if any.
	ID string

	// Classes is the ordered list of semantic (non-utility) classes.
	Classes []string

	// Attributes is the ordered list of kept identity attributes.
	Attributes []AttrPair

	// Role is the verbatim `role` attribute, if present.
	Role string

	// Text holds raw/normalized text for text-bearing tags only.
	Text *TextValue

	// SVG holds the fingerprint for SVG elements, when enabled.
	SVG *SvgFingerprint
}

// IsEmpty reports whether the semantics carry no identity information.
func (s ElementSemantics) IsEmpty() bool {
	return s.ID == "" && len(s.Classes) == 0 && len(s.Attributes) == 0 &&
		s.Role == "" && s.Text == nil && s.SVG == nil
}

// Attr returns the value of the named attribute and whether it was present.
func (s ElementSemantics) Attr(name string) (string, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasClass reports whether the named semantic class is present.
func (s ElementSemantics) HasClass(name string) bool {
	for _, c := range s.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// AttrSet returns the attributes as a name=value set, for Jaccard-style
// comparisons in the semantic matcher.
func (s ElementSemantics) AttrSet() map[string]string {
	out := make(map[string]string, len(s.Attributes))
	for _, a := range s.Attributes {
		out[a.Name] = a.Value
	}
	return out
}

// SemanticScore computes an element's semantic richness score:
// base 0.5 + weighted presence bonuses, clamped to [0,1].
func (s ElementSemantics) SemanticScore() float64 {
	score := 0.5
	if s.ID != "" {
		score += 0.15
	}
	if len(s.Classes) > 0 {
		score += 0.10
	}
	if len(s.Attributes) > 0 {
		score += 0.10
	}
	if s.Role != "" {
		score += 0.10
	}
	if s.Text != nil {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// IsRootAnchor reports whether this EID was generated for a document
// root element, where anchor == target == <html>.
func (e EID) IsRootAnchor() bool {
	return e.Anchor.Tag == "html" && e.Target.Tag == "html" && len(e.Path) == 0
}
