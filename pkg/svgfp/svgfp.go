// Package svgfp fingerprints SVG elements that have no useful text or
// attribute identity (icons, glyphs) by hashing their shape geometry,
// so two icons rendered from the same path data compare equal even
// when wrapped in differently-classed containers.
package svgfp

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
)

// shapeTags maps an SVG tag name to its fingerprinted shape kind.
var shapeTags = map[string]eid.SvgShape{
	"path":     eid.SvgShapePath,
	"circle":   eid.SvgShapeCircle,
	"rect":     eid.SvgShapeRect,
	"line":     eid.SvgShapeLine,
	"polyline": eid.SvgShapePolyline,
	"polygon":  eid.SvgShapePolygon,
	"ellipse":  eid.SvgShapeEllipse,
	"g":        eid.SvgShapeG,
	"text":     eid.SvgShapeText,
	"use":      eid.SvgShapeUse,
	"svg":      eid.SvgShapeSvg,
}

// animationTags mark an SVG subtree as animated.
var animationTags = map[string]bool{
	"animate": true, "animatetransform": true, "animatemotion": true, "set": true,
}

// ShapeOf returns the fingerprinted shape for tag, defaulting to
// SvgShapeG for unrecognized SVG tags.
func ShapeOf(tag string) eid.SvgShape {
	if s, ok := shapeTags[strings.ToLower(tag)]; ok {
		return s
	}
	return eid.SvgShapeG
}

// Fingerprint builds a geometry-based identity for el, which must be
// an SVG element. Returns nil if el yields no geometry hash, role or
// title (e.g. a bare <g> with neither a role nor a <title> child).
func Fingerprint(el *domtree.Element) *eid.SvgFingerprint {
	shape := ShapeOf(el.TagName())

	fp := &eid.SvgFingerprint{
		Shape:        shape,
		Role:         roleOf(el),
		TitleText:    titleOf(el),
		HasAnimation: hasAnimation(el),
	}

	switch shape {
	case eid.SvgShapePath:
		if d, ok := el.Attr("d"); ok && d != "" {
			fp.DHash = dHash(d)
		}
	case eid.SvgShapeCircle, eid.SvgShapeRect, eid.SvgShapeEllipse, eid.SvgShapeLine:
		fp.GeomHash = geomHash(shape, el)
	}

	if fp.DHash == "" && fp.GeomHash == "" && fp.Role == "" && fp.TitleText == "" {
		return nil
	}
	return fp
}

func roleOf(el *domtree.Element) string {
	r, _ := el.Attr("role")
	return r
}

func titleOf(el *domtree.Element) string {
	title := el.ChildElementByTag("title")
	if title == nil {
		return ""
	}
	return strings.TrimSpace(title.DirectText())
}

func hasAnimation(el *domtree.Element) bool {
	for _, d := range el.Descendants() {
		if animationTags[strings.ToLower(d.TagName())] {
			return true
		}
	}
	return false
}

// pathCommandRE captures one SVG path command letter plus its
// argument run, e.g. "M10 20" or "C1,2 3,4 5,6".
var pathCommandRE = regexp.MustCompile(`[MmLlHhVvCcSsQqTtAaZz][^MmLlHhVvCcSsQqTtAaZz]*`)

// maxCommandsForHash bounds how much of a long path contributes to
// the hash, keeping icons with shared starts but diverging tails from
// colliding while staying cheap to compute.
const maxCommandsForHash = 5

// dHash hashes the first maxCommandsForHash commands of an SVG path's
// `d` attribute, ignoring exact whitespace so equivalent serializations
// of the same path hash identically.
func dHash(d string) string {
	commands := pathCommandRE.FindAllString(d, -1)
	if len(commands) > maxCommandsForHash {
		commands = commands[:maxCommandsForHash]
	}
	normalized := normalizeCommands(commands)
	return mix(normalized)
}

func normalizeCommands(commands []string) string {
	var b strings.Builder
	for _, c := range commands {
		fields := strings.FieldsFunc(c[1:], func(r rune) bool {
			return r == ' ' || r == ',' || r == '\t'
		})
		b.WriteByte(c[0])
		for _, f := range fields {
			if n, err := strconv.ParseFloat(f, 64); err == nil {
				fmt.Fprintf(&b, "%.1f|", n)
			} else {
				b.WriteString(f)
				b.WriteByte('|')
			}
		}
	}
	return b.String()
}

// geomHash builds a geometry descriptor for basic shapes and hashes
// it. Rects and ellipses use their aspect ratio and lines their angle
// rather than absolute dimensions, so a 16px and 24px rendering of the
// same shape fingerprint identically; a circle is described by its
// radius as written, so circles of different sizes hash differently.
func geomHash(shape eid.SvgShape, el *domtree.Element) string {
	switch shape {
	case eid.SvgShapeCircle:
		r := attrFloat(el, "r")
		return mix(fmt.Sprintf("circle|r=%.2f", r))
	case eid.SvgShapeEllipse:
		rx, ry := attrFloat(el, "rx"), attrFloat(el, "ry")
		ratio := safeRatio(rx, ry)
		return mix(fmt.Sprintf("ellipse|ratio=%.3f", ratio))
	case eid.SvgShapeRect:
		w, h := attrFloat(el, "width"), attrFloat(el, "height")
		rx := attrFloat(el, "rx")
		ratio := safeRatio(w, h)
		return mix(fmt.Sprintf("rect|ratio=%.3f|rounded=%v", ratio, rx > 0))
	case eid.SvgShapeLine:
		x1, y1 := attrFloat(el, "x1"), attrFloat(el, "y1")
		x2, y2 := attrFloat(el, "x2"), attrFloat(el, "y2")
		dx, dy := x2-x1, y2-y1
		angle := math.Atan2(dy, dx)
		return mix(fmt.Sprintf("line|angle=%.2f", angle))
	default:
		return ""
	}
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func attrFloat(el *domtree.Element, name string) float64 {
	v, ok := el.Attr(name)
	if !ok {
		return 0
	}
	v = strings.TrimSuffix(v, "px")
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

// mix hashes s with xxhash and formats the low 32 bits as 8 hex
// digits, the width of the DHash and GeomHash fingerprint fields.
func mix(s string) string {
	h := xxhash.Sum64String(s)
	return fmt.Sprintf("%08x", uint32(h))
}
