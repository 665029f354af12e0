// Package classify holds the small heuristic classifiers the
// extractor, anchor finder and selector builder lean on: telling a hand-authored
// class from a generated utility class, a stable id from a
// session-scoped one, and an identity-bearing attribute from state or
// analytics noise.
package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// utilityClassPatterns matches class names generated by atomic CSS
// frameworks (Tailwind, UnoCSS, Bootstrap's spacing/sizing utilities)
// rather than authored for identity.
var utilityClassPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(m|p)[trblxy]?-\d+(\.\d+)?$`),              // m-2, px-4, pt-1.5
	regexp.MustCompile(`^-?(m|p)[trblxy]?-\[.+\]$`),                 // p-[2px]
	regexp.MustCompile(`^[wh]-(\d+(\.\d+)?|full|screen|auto|fit|px)$`), // w-10, h-full
	regexp.MustCompile(`^(min|max)-[wh]-`),                          // max-w-screen-lg
	regexp.MustCompile(`^(flex|grid|block|inline|hidden|table)(-\w+)*$`),
	regexp.MustCompile(`^(row|col)-(span|start|end)-\d+$`),
	regexp.MustCompile(`^(text|bg|border|fill|stroke|ring|from|via|to)-[a-z]+(-\d{2,3})?$`),
	regexp.MustCompile(`^(text|font)-(xs|sm|base|lg|xl|\d?xl|thin|light|normal|medium|semibold|bold|black)$`),
	regexp.MustCompile(`^(rounded|shadow|opacity|z|order|gap|space-[xy])(-\w+)?$`),
	regexp.MustCompile(`^(items|justify|content|self)-(start|end|center|between|around|evenly|stretch|baseline)$`),
	regexp.MustCompile(`^(absolute|relative|fixed|sticky|static)$`),
	regexp.MustCompile(`^(top|bottom|left|right|inset)(-[xy])?-(\d+(\.\d+)?|full|auto|px)$`),
	regexp.MustCompile(`^(sm|md|lg|xl|2xl):`),                       // responsive variants
	regexp.MustCompile(`^(hover|focus|active|disabled|group-hover|dark):`),
	regexp.MustCompile(`^col(-(xs|sm|md|lg|xl))?-(\d{1,2}|auto)$`),   // bootstrap grid
	regexp.MustCompile(`^(container|d-(flex|block|none|inline))$`),
	regexp.MustCompile(`^[a-z][a-z-]*:`),                            // catch-all variant prefix, e.g. file:, group-hover:, peer-checked:
}

// IsUtilityClass reports whether class looks like it was generated by
// an atomic CSS framework rather than authored to name this element.
// A leading "-" (Tailwind's negative-value variant, e.g. "-mt-4",
// "-inset-x-2") is stripped before matching so negative utilities are
// still recognized.
func IsUtilityClass(class string) bool {
	if class == "" {
		return false
	}
	check := strings.TrimPrefix(class, "-")
	for _, re := range utilityClassPatterns {
		if re.MatchString(check) {
			return true
		}
	}
	return false
}

// SemanticClasses filters classes down to the ones worth keeping for
// identity, preserving order and dropping duplicates.
func SemanticClasses(classes []string) []string {
	seen := make(map[string]bool, len(classes))
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		if c == "" || IsUtilityClass(c) || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

var (
	hexLikeID       = regexp.MustCompile(`^[0-9a-f]{16,}$`)
	uuidLikeID      = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	radixID         = regexp.MustCompile(`^radix-:r[0-9a-z]+:$`)
	frameworkPrefix = regexp.MustCompile(`^(radix|headlessui|mantine|mui|chakra|__next)-`)
	reactAutoID     = regexp.MustCompile(`^(react-select|react-aria|headlessui|mui|mantine)-\d+-`)
	numericSuffix   = regexp.MustCompile(`^.+-\d{4,}$`)
	reactIDHookID   = regexp.MustCompile(`^:r[0-9a-z]+:$`)
	hashLikeShortID = regexp.MustCompile(`^[a-z]{1,3}[A-Za-z0-9]{8,}$`)
	alnumRun        = regexp.MustCompile(`[0-9a-zA-Z]+`)
)

// IsDynamicID reports whether id looks machine-generated and unstable
// across renders/sessions (a React useId hook, a Radix UI internal id,
// a raw hash or UUID) rather than hand-authored and stable. Every
// heuristic below is honored, not just the first that applies.
func IsDynamicID(id string) bool {
	if id == "" {
		return false
	}
	switch {
	case uuidLikeID.MatchString(id),
		radixID.MatchString(id),
		frameworkPrefix.MatchString(id),
		reactIDHookID.MatchString(id),
		reactAutoID.MatchString(id),
		numericSuffix.MatchString(id),
		hexLikeID.MatchString(id):
		return true
	}
	if hashLikeShortID.MatchString(id) && (hasDigitAndUpper(id) || len(id) >= 20) {
		return true
	}
	return hasDynamicAlnumRun(id)
}

// hasDigitAndUpper reports whether s contains both an ASCII digit and
// an uppercase letter.
func hasDigitAndUpper(s string) bool {
	var digit, upper bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'A' && r <= 'Z':
			upper = true
		}
		if digit && upper {
			return true
		}
	}
	return false
}

// hasDynamicAlnumRun reports whether id contains a run of at least 6
// consecutive alphanumeric characters that mixes letters and digits —
// a hex or base62 chunk too opaque to be hand-authored.
func hasDynamicAlnumRun(id string) bool {
	for _, run := range alnumRun.FindAllString(id, -1) {
		if len(run) >= 6 && hasLetterAndDigit(run) {
			return true
		}
	}
	return false
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letter = true
		}
		if letter && digit {
			return true
		}
	}
	return false
}

// IsStableID reports whether id is safe to treat as a durable
// identity signal.
func IsStableID(id string) bool {
	return id != "" && !IsDynamicID(id)
}

// AttrClass categorizes an attribute for identity extraction.
type AttrClass int

const (
	// AttrIdentity attributes describe what an element is (name,
	// type, href, alt, placeholder, data-testid, ...).
	AttrIdentity AttrClass = iota
	// AttrState attributes describe current UI state, not identity
	// (aria-expanded, aria-checked, data-state, ...).
	AttrState
	// AttrAnalytics attributes are instrumentation noise (data-ga-*,
	// data-gtm-*, data-analytics-*, data-amplitude-*, ...).
	AttrAnalytics
	// AttrLibraryInternal attributes are framework plumbing, not
	// author-chosen identity (data-radix-*, data-headlessui-*, ...).
	AttrLibraryInternal
	// AttrDynamicValue attributes carry a value that won't survive a
	// re-render (a raw hash, a long numeric id/timestamp, a stringified
	// JS null/undefined/object, or an unrendered template expression).
	AttrDynamicValue
)

var dynamicValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[a-f0-9]{32,}`),
	regexp.MustCompile(`\d{10,}`),
	regexp.MustCompile(`(?i)^(undefined|null)$`),
	regexp.MustCompile(`(?i)\[object \w*\]`),
	regexp.MustCompile(`\{\{.*\}\}`),
}

// IsDynamicValue reports whether value looks machine-generated or
// unrendered rather than authored: a raw hash, a long numeric id or
// timestamp, a stringified JS null/undefined/object, or a template
// expression (`{{...}}`) that never got interpolated.
func IsDynamicValue(value string) bool {
	if value == "" {
		return false
	}
	for _, re := range dynamicValuePatterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// identityAttrs is the closed allowlist of non-data, non-aria
// attributes kept verbatim when present.
var identityAttrs = []string{
	"type", "name", "value", "href", "src", "action",
	"placeholder", "alt", "title", "for", "form", "lang", "dir",
}

// ariaIdentityAttrs are the aria-* attributes kept for identity (every
// other aria-* attribute is transient UI state, see stateAttrs).
var ariaIdentityAttrs = []string{"aria-label", "aria-labelledby", "aria-describedby"}

// testIDAttrs are the explicit test-marker whitelist, protected even
// though they end in forms analytics prefixes could otherwise catch.
var testIDAttrs = []string{"data-testid", "data-test", "data-cy", "data-qa"}

// IDReferenceAttrs name attributes whose value is itself a reference
// to another element's id. The attribute is dropped entirely if that
// referenced id is dynamic, since the reference can't survive a
// re-render either.
var IDReferenceAttrs = map[string]bool{
	"for": true, "form": true, "aria-labelledby": true,
	"aria-describedby": true, "aria-controls": true,
	"aria-owns": true, "list": true, "headers": true,
}

// ReferencesDynamicID reports whether value — a space-separated list
// of referenced element ids, as aria-labelledby/aria-describedby/
// aria-owns/aria-controls/headers allow — contains any dynamic id.
func ReferencesDynamicID(value string) bool {
	for _, id := range strings.Fields(value) {
		if IsDynamicID(id) {
			return true
		}
	}
	return false
}

var stateAttrs = map[string]bool{
	"aria-expanded": true, "aria-checked": true, "aria-pressed": true,
	"aria-selected": true, "aria-current": true, "aria-disabled": true,
	"aria-hidden": true, "aria-busy": true, "data-state": true,
	"data-open": true, "data-active": true, "data-checked": true,
	"data-loading": true,
}

var analyticsPrefixes = []string{
	"data-ga", "data-gtm", "data-analytics", "data-amplitude",
	"data-segment", "data-mixpanel", "data-heap", "data-track",
	"data-pendo", "data-hj-",
}

var libraryInternalPrefixes = []string{
	"data-radix-", "data-headlessui-", "data-mui-", "data-mantine-",
	"data-reach-", "data-floating-ui-", "__",
}

// ClassifyAttribute returns how name and its value should be treated
// for identity purposes.
func ClassifyAttribute(name, value string) AttrClass {
	if IsDynamicValue(value) {
		return AttrDynamicValue
	}
	lower := strings.ToLower(name)
	for _, a := range testIDAttrs {
		if lower == a {
			return AttrIdentity
		}
	}
	if stateAttrs[lower] {
		return AttrState
	}
	for _, p := range analyticsPrefixes {
		if strings.HasPrefix(lower, p) {
			return AttrAnalytics
		}
	}
	for _, p := range libraryInternalPrefixes {
		if strings.HasPrefix(lower, p) {
			return AttrLibraryInternal
		}
	}
	return AttrIdentity
}

// IsIdentityAttrName reports whether name is even eligible for
// identity, independent of ClassifyAttribute (which screens out
// state/analytics/library-internal noise). Non-data attributes are a
// closed allowlist; every data-* attribute is eligible, since the
// noise it might carry (analytics, state, library-internal) is
// screened out by ClassifyAttribute rather than by name omission —
// an arbitrary author-chosen data-* attribute like data-product-id
// must still reach identity.
func IsIdentityAttrName(name string) bool {
	lower := strings.ToLower(name)
	for _, a := range identityAttrs {
		if a == lower {
			return true
		}
	}
	for _, a := range ariaIdentityAttrs {
		if a == lower {
			return true
		}
	}
	for _, a := range testIDAttrs {
		if a == lower {
			return true
		}
	}
	return strings.HasPrefix(lower, "data-")
}

// NormalizeURL resolves raw against base (if raw is relative) and
// strips tracking query parameters and fragments, so that two links
// to the same resource compare equal regardless of campaign params.
func NormalizeURL(raw, base string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if base != "" && !u.IsAbs() {
		if b, err := url.Parse(base); err == nil {
			u = b.ResolveReference(u)
		}
	}
	u.Fragment = ""
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			lk := strings.ToLower(key)
			if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" || lk == "ref" {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
