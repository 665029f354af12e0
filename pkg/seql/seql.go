// Package seql implements the compact single-line serialization of an
// EID: `v<version>: <anchor> :: <path…> > <target>`, each node
// written as `tag.class…[attr="val",…]#nthChild`. Parsing and
// stringifying are both pure. A round trip keeps each node's tag,
// classes, attributes and nth-child; stable ids, roles, text, SVG
// fingerprints, scores, Degraded, constraints, fallback and meta are
// not encoded.
package seql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anchorkit/anchorkit/pkg/eid"
	drifterrors "github.com/anchorkit/anchorkit/pkg/errors"
)

const chainSeparator = " :: "
const nodeSeparator = " > "

// Stringify renders e in SEQL form.
func Stringify(e eid.EID) string {
	var b strings.Builder
	fmt.Fprintf(&b, "v%s: %s%s", e.Version, nodeString(e.Anchor.NodeRef), chainSeparator)

	nodes := make([]string, 0, len(e.Path)+1)
	for _, p := range e.Path {
		nodes = append(nodes, nodeString(p.NodeRef))
	}
	nodes = append(nodes, nodeString(e.Target.NodeRef))
	b.WriteString(strings.Join(nodes, nodeSeparator))
	return b.String()
}

// nodeString renders one node as tag + classes (dot-prefixed, stored
// order) + attributes (bracketed, comma-separated, stored order) +
// optional #nthChild. Class-then-attributes order is normative.
func nodeString(n eid.NodeRef) string {
	var b strings.Builder
	b.WriteString(n.Tag)
	for _, c := range n.Semantics.Classes {
		b.WriteByte('.')
		b.WriteString(c)
	}
	if attrs := n.Semantics.Attributes; len(attrs) > 0 {
		parts := make([]string, len(attrs))
		for i, a := range attrs {
			parts[i] = fmt.Sprintf(`%s="%s"`, a.Name, a.Value)
		}
		b.WriteByte('[')
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte(']')
	}
	if n.NthChild != nil {
		fmt.Fprintf(&b, "#%d", *n.NthChild)
	}
	return b.String()
}

// Parse reverses Stringify. The returned EID carries only what a SEQL
// string encodes: Version, and the tag, classes, attributes and
// nth-child of Anchor, Path and Target. Semantic id, role, text and
// SVG, Score, Degraded, Constraints, Fallback, and Meta are left
// zero-valued.
func Parse(s string) (eid.EID, error) {
	version, rest, err := splitVersion(s)
	if err != nil {
		return eid.EID{}, err
	}

	anchorStr, chainStr, ok := strings.Cut(rest, chainSeparator)
	if !ok {
		return eid.EID{}, &drifterrors.ParseError{Input: s, Pos: len(version) + 3, Reason: `missing " :: " separator`}
	}

	anchorNode, err := parseNode(anchorStr)
	if err != nil {
		return eid.EID{}, &drifterrors.ParseError{Input: s, Pos: strings.Index(s, anchorStr), Reason: err.Error()}
	}

	nodeStrs := strings.Split(chainStr, nodeSeparator)
	if len(nodeStrs) == 0 || nodeStrs[len(nodeStrs)-1] == "" {
		return eid.EID{}, &drifterrors.ParseError{Input: s, Pos: len(s), Reason: "missing target node"}
	}

	path := make([]eid.PathNode, 0, len(nodeStrs)-1)
	for _, ns := range nodeStrs[:len(nodeStrs)-1] {
		n, err := parseNode(ns)
		if err != nil {
			return eid.EID{}, &drifterrors.ParseError{Input: s, Pos: strings.Index(s, ns), Reason: err.Error()}
		}
		path = append(path, eid.PathNode{NodeRef: n})
	}

	targetNode, err := parseNode(nodeStrs[len(nodeStrs)-1])
	if err != nil {
		return eid.EID{}, &drifterrors.ParseError{Input: s, Pos: len(s), Reason: err.Error()}
	}

	return eid.EID{
		Version: version,
		Anchor:  eid.AnchorNode{NodeRef: anchorNode},
		Path:    path,
		Target:  eid.TargetNode{NodeRef: targetNode},
	}, nil
}

func splitVersion(s string) (version, rest string, err error) {
	if !strings.HasPrefix(s, "v") {
		return "", "", &drifterrors.ParseError{Input: s, Pos: 0, Reason: `expected leading "v"`}
	}
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return "", "", &drifterrors.ParseError{Input: s, Pos: 0, Reason: `missing ":" after version`}
	}
	version = s[1:colon]
	rest = strings.TrimPrefix(s[colon+1:], " ")
	return version, rest, nil
}

// parseNode reverses nodeString for one `tag.class…[attr="val",…]#N`
// fragment.
func parseNode(s string) (eid.NodeRef, error) {
	tag, rest := cutTag(s)
	if tag == "" {
		return eid.NodeRef{}, fmt.Errorf("seql: node %q has no tag", s)
	}

	var nthChild *int
	if hash := strings.LastIndexByte(rest, '#'); hash >= 0 {
		n, err := strconv.Atoi(rest[hash+1:])
		if err != nil {
			return eid.NodeRef{}, fmt.Errorf("seql: node %q has a non-numeric nthChild suffix", s)
		}
		nthChild = &n
		rest = rest[:hash]
	}

	var attrs []eid.AttrPair
	if open := strings.IndexByte(rest, '['); open >= 0 {
		closeIdx := strings.LastIndexByte(rest, ']')
		if closeIdx < open {
			return eid.NodeRef{}, fmt.Errorf("seql: node %q has an unterminated attribute list", s)
		}
		attrs = parseAttrs(rest[open+1 : closeIdx])
		rest = rest[:open]
	}

	var classes []string
	for _, c := range strings.Split(rest, ".") {
		if c != "" {
			classes = append(classes, c)
		}
	}

	return eid.NodeRef{
		Tag: tag,
		Semantics: eid.ElementSemantics{
			Classes:    classes,
			Attributes: attrs,
		},
		NthChild: nthChild,
	}, nil
}

func cutTag(s string) (tag, rest string) {
	end := len(s)
	for i, r := range s {
		if r == '.' || r == '[' || r == '#' {
			end = i
			break
		}
	}
	return s[:end], s[end:]
}

func parseAttrs(s string) []eid.AttrPair {
	if s == "" {
		return nil
	}
	var out []eid.AttrPair
	for _, pair := range splitAttrList(s) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out = append(out, eid.AttrPair{Name: name, Value: strings.Trim(value, `"`)})
	}
	return out
}

// splitAttrList splits on commas that fall outside a quoted value,
// since an attribute value may itself contain a comma.
func splitAttrList(s string) []string {
	var out []string
	inQuotes := false
	start := 0
	for i, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
