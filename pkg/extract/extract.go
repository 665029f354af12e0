// Package extract builds an eid.ElementSemantics snapshot for a
// single DOM element: its stable id (if any), authored classes, kept
// identity attributes, role, text content, and SVG fingerprint.
//
// Extraction never looks at the element's ancestors or siblings; only
// the SVG fingerprint reads into the element's own children. It is the raw
// material the anchor finder, path builder, and semantic matcher all
// consume identically.
package extract

import (
	"sort"
	"strings"

	"github.com/anchorkit/anchorkit/pkg/classify"
	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
	"github.com/anchorkit/anchorkit/pkg/svgfp"
	"github.com/anchorkit/anchorkit/pkg/textnorm"
)

// Options configures extraction.
type Options struct {
	// BaseURL resolves relative href/src values for normalization.
	BaseURL string

	// EnableSVGFingerprint turns on shape hashing for SVG elements.
	// Off by default since it costs a regex pass per path.
	EnableSVGFingerprint bool

	// IncludeUtilityClasses disables utility-class filtering, keeping
	// every authored class verbatim. Debug-only: utility classes are
	// framework noise, not identity, for every other purpose.
	IncludeUtilityClasses bool
}

// identityAttrOrder is the fixed non-aria, non-data identity
// attributes, in priority-emission order.
var identityAttrOrder = []string{
	"type", "name", "value", "href", "src", "action",
	"placeholder", "alt", "title", "for", "form", "lang", "dir",
}

// ariaIdentityAttrOrder is the aria-* identity tier, emitted
// immediately after the fixed identity attributes.
var ariaIdentityAttrOrder = []string{"aria-label", "aria-labelledby", "aria-describedby"}

// testIDAttrOrder is the data-testid family tier, emitted before any
// other (non-test) data-* attribute.
var testIDAttrOrder = []string{"data-testid", "data-test", "data-cy", "data-qa"}

// urlBearingAttrs get base-URL resolution and tracking-param
// stripping rather than verbatim copy.
var urlBearingAttrs = map[string]bool{"href": true, "src": true, "action": true}

// textBearingTags are elements whose direct text content is part of
// their identity.
var textBearingTags = map[string]bool{
	"button": true, "a": true, "label": true,
	"legend": true, "summary": true, "li": true,
	"span": true, "p": true, "td": true, "th": true,
	"dt": true, "dd": true, "figcaption": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Extract produces the semantic snapshot for el.
func Extract(el *domtree.Element, opts Options) eid.ElementSemantics {
	var sem eid.ElementSemantics

	if id := el.ID(); classify.IsStableID(id) {
		sem.ID = id
	}

	if opts.IncludeUtilityClasses {
		sem.Classes = dedup(el.ClassList())
	} else {
		sem.Classes = classify.SemanticClasses(el.ClassList())
	}
	sem.Attributes = extractAttributes(el, opts)

	if role, ok := el.Attr("role"); ok && role != "" {
		sem.Role = role
	}

	if textBearingTags[el.TagName()] {
		if raw := strings.TrimSpace(el.DirectText()); raw != "" {
			sem.Text = &eid.TextValue{Raw: raw, Normalized: textnorm.Normalize(raw)}
		}
	}

	if opts.EnableSVGFingerprint && el.IsSVG() {
		sem.SVG = svgfp.Fingerprint(el)
	}

	return sem
}

// extractAttributes emits kept attributes in priority order: fixed
// identity attributes, then aria-* identity attributes, then the
// data-testid family, then every remaining data-* attribute that
// passes classification, alphabetically.
func extractAttributes(el *domtree.Element, opts Options) []eid.AttrPair {
	var out []eid.AttrPair

	emit := func(name string) {
		v, ok := el.Attr(name)
		if !ok || v == "" {
			return
		}
		if classify.ClassifyAttribute(name, v) != classify.AttrIdentity {
			return
		}
		if classify.IDReferenceAttrs[name] && classify.ReferencesDynamicID(v) {
			return
		}
		if urlBearingAttrs[name] {
			v = classify.NormalizeURL(v, opts.BaseURL)
		}
		out = append(out, eid.AttrPair{Name: name, Value: v})
	}

	for _, name := range identityAttrOrder {
		emit(name)
	}
	for _, name := range ariaIdentityAttrOrder {
		emit(name)
	}
	for _, name := range testIDAttrOrder {
		emit(name)
	}

	var remainingData []string
	for _, a := range el.Attrs() {
		name := strings.ToLower(a.Key)
		if containsAttr(out, name) || !strings.HasPrefix(name, "data-") {
			continue
		}
		if classify.ClassifyAttribute(name, a.Val) != classify.AttrIdentity {
			continue
		}
		if classify.IDReferenceAttrs[name] && classify.ReferencesDynamicID(a.Val) {
			continue
		}
		remainingData = append(remainingData, name)
	}
	sort.Strings(remainingData)
	for _, name := range remainingData {
		v, _ := el.Attr(name)
		out = append(out, eid.AttrPair{Name: name, Value: v})
	}

	return out
}

func dedup(classes []string) []string {
	seen := make(map[string]bool, len(classes))
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func containsAttr(attrs []eid.AttrPair, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}
