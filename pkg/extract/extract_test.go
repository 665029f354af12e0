package extract

import (
	"testing"

	"github.com/anchorkit/anchorkit/pkg/domtree"
)

func parseFirst(t *testing.T, html, selector string) *domtree.Element {
	t.Helper()
	doc, err := domtree.ParseString(html, "https://example.com")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	els, err := doc.QuerySelectorAll(selector)
	if err != nil {
		t.Fatalf("QuerySelectorAll: %v", err)
	}
	if len(els) == 0 {
		t.Fatalf("no match for %q in %s", selector, html)
	}
	return els[0]
}

func TestExtract_StableIDKept(t *testing.T) {
	el := parseFirst(t, `<input id="firstName">`, "input")
	sem := Extract(el, Options{})
	if sem.ID != "firstName" {
		t.Errorf("ID = %q, want firstName", sem.ID)
	}
}

func TestExtract_DynamicIDDropped(t *testing.T) {
	el := parseFirst(t, `<div id="radix-:r0:">x</div>`, "div")
	sem := Extract(el, Options{})
	if sem.ID != "" {
		t.Errorf("ID = %q, want empty for dynamic id", sem.ID)
	}
}

func TestExtract_UtilityClassesFiltered(t *testing.T) {
	el := parseFirst(t, `<div class="flex h-10 glass-card">x</div>`, "div")
	sem := Extract(el, Options{})
	if len(sem.Classes) != 1 || sem.Classes[0] != "glass-card" {
		t.Errorf("Classes = %v, want [glass-card]", sem.Classes)
	}
}

func TestExtract_IdentityAttributesKept(t *testing.T) {
	el := parseFirst(t, `<input name="firstName" data-ga-id="x42" placeholder="First name">`, "input")
	sem := Extract(el, Options{})
	v, ok := sem.Attr("name")
	if !ok || v != "firstName" {
		t.Errorf("Attr(name) = %q, %v", v, ok)
	}
	if _, ok := sem.Attr("data-ga-id"); ok {
		t.Error("did not expect analytics attribute to be kept")
	}
}

func TestExtract_AnalyticsAttrDroppedButArbitraryDataIDKept(t *testing.T) {
	el := parseFirst(t, `<button data-tracking-id="abc" data-product-id="42">Buy</button>`, "button")
	sem := Extract(el, Options{})

	if _, ok := sem.Attr("data-tracking-id"); ok {
		t.Error("data-tracking-id is an analytics attribute and must be dropped")
	}
	if v, ok := sem.Attr("data-product-id"); !ok || v != "42" {
		t.Errorf("data-product-id should be kept as an arbitrary identity data-* attribute, got %q, %v", v, ok)
	}
}

func TestExtract_DynamicValueAttributeDropped(t *testing.T) {
	el := parseFirst(t, `<input name="{{user.id}}" title="1700000000000">`, "input")
	sem := Extract(el, Options{})
	if _, ok := sem.Attr("name"); ok {
		t.Error("name holding an unrendered template expression should be dropped")
	}
	if _, ok := sem.Attr("title"); ok {
		t.Error("title holding a long numeric run should be dropped")
	}
}

func TestExtract_IDReferenceDroppedWhenTargetIsDynamic(t *testing.T) {
	el := parseFirst(t, `<input aria-describedby="radix-:r1:">`, "input")
	sem := Extract(el, Options{})
	if _, ok := sem.Attr("aria-describedby"); ok {
		t.Error("aria-describedby referencing a dynamic id should be dropped")
	}
}

func TestExtract_IDReferenceKeptWhenTargetIsStable(t *testing.T) {
	el := parseFirst(t, `<input aria-describedby="email-hint">`, "input")
	sem := Extract(el, Options{})
	if v, ok := sem.Attr("aria-describedby"); !ok || v != "email-hint" {
		t.Errorf("aria-describedby referencing a stable id should be kept, got %q, %v", v, ok)
	}
}

func TestExtract_HrefNormalized(t *testing.T) {
	el := parseFirst(t, `<a href="/pricing?utm_source=ad">Pricing</a>`, "a")
	sem := Extract(el, Options{BaseURL: "https://example.com"})
	v, ok := sem.Attr("href")
	if !ok || v != "https://example.com/pricing" {
		t.Errorf("Attr(href) = %q, %v", v, ok)
	}
}

func TestExtract_TextBearingTag(t *testing.T) {
	el := parseFirst(t, `<button>Sign  Up</button>`, "button")
	sem := Extract(el, Options{})
	if sem.Text == nil || sem.Text.Normalized != "Sign Up" {
		t.Fatalf("Text = %+v", sem.Text)
	}
}

func TestExtract_NonTextBearingTagHasNoText(t *testing.T) {
	el := parseFirst(t, `<div>Some text</div>`, "div")
	sem := Extract(el, Options{})
	if sem.Text != nil {
		t.Errorf("expected div to not carry Text, got %+v", sem.Text)
	}
}

func TestExtract_IncludeUtilityClassesKeepsEverything(t *testing.T) {
	el := parseFirst(t, `<div class="flex h-10 glass-card">x</div>`, "div")
	sem := Extract(el, Options{IncludeUtilityClasses: true})
	want := []string{"flex", "h-10", "glass-card"}
	if len(sem.Classes) != len(want) {
		t.Fatalf("Classes = %v, want %v", sem.Classes, want)
	}
	for i, c := range want {
		if sem.Classes[i] != c {
			t.Errorf("Classes[%d] = %q, want %q", i, sem.Classes[i], c)
		}
	}
}

func TestExtract_UtilityClassesFilteredFromRealisticFormInput(t *testing.T) {
	el := parseFirst(t, `<form id="f"><div class="glass-card">`+
		`<input id="firstName" name="firstName" class="flex h-10 w-full file:bg-transparent"></div></form>`,
		"#firstName")
	sem := Extract(el, Options{})

	if sem.ID != "firstName" {
		t.Errorf("ID = %q, want firstName", sem.ID)
	}
	if v, ok := sem.Attr("name"); !ok || v != "firstName" {
		t.Errorf("Attr(name) = %q, %v, want firstName, true", v, ok)
	}
	if len(sem.Classes) != 0 {
		t.Errorf("Classes = %v, want empty: flex/h-10/w-full/file:* are all utility", sem.Classes)
	}
}

func TestExtract_SVGFingerprintOptIn(t *testing.T) {
	el := parseFirst(t, `<svg><path d="M1 1 L2 2"/></svg>`, "path")
	withoutFP := Extract(el, Options{})
	if withoutFP.SVG != nil {
		t.Error("expected SVG fingerprint to be nil when not enabled")
	}
	withFP := Extract(el, Options{EnableSVGFingerprint: true})
	if withFP.SVG == nil {
		t.Error("expected SVG fingerprint when enabled")
	}
}
