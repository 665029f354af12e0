package svgfp

import (
	"testing"

	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
)

func firstByTag(t *testing.T, html, tag string) *domtree.Element {
	t.Helper()
	doc, err := domtree.ParseString(html, "")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	els, err := doc.QuerySelectorAll(tag)
	if err != nil {
		t.Fatalf("QuerySelectorAll: %v", err)
	}
	if len(els) == 0 {
		t.Fatalf("no %s found in %s", tag, html)
	}
	return els[0]
}

// --- ShapeOf ---

func TestShapeOf(t *testing.T) {
	tests := []struct {
		tag  string
		want eid.SvgShape
	}{
		{"path", eid.SvgShapePath},
		{"circle", eid.SvgShapeCircle},
		{"RECT", eid.SvgShapeRect},
		{"weird-custom-tag", eid.SvgShapeG},
	}
	for _, tt := range tests {
		if got := ShapeOf(tt.tag); got != tt.want {
			t.Errorf("ShapeOf(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

// --- Fingerprint: path dHash ---

func TestFingerprint_PathDHash_StableAcrossWhitespace(t *testing.T) {
	a := firstByTag(t, `<svg><path d="M10 20 L30 40 C1,2 3,4 5,6"/></svg>`, "path")
	b := firstByTag(t, `<svg><path d="M10   20L30 40C1, 2 3, 4 5, 6"/></svg>`, "path")

	fpA := Fingerprint(a)
	fpB := Fingerprint(b)
	if fpA == nil || fpB == nil {
		t.Fatal("expected non-nil fingerprints")
	}
	if fpA.DHash != fpB.DHash {
		t.Errorf("DHash differs across whitespace variants: %q vs %q", fpA.DHash, fpB.DHash)
	}
}

func TestFingerprint_PathDHash_DiffersForDifferentPaths(t *testing.T) {
	a := firstByTag(t, `<svg><path d="M10 20 L30 40"/></svg>`, "path")
	b := firstByTag(t, `<svg><path d="M99 1 L2 99"/></svg>`, "path")
	if Fingerprint(a).DHash == Fingerprint(b).DHash {
		t.Error("expected different paths to produce different DHash")
	}
}

// --- Fingerprint: geomHash ---

func TestFingerprint_CircleGeomHash_Present(t *testing.T) {
	small := firstByTag(t, `<svg><circle r="8"/></svg>`, "circle")
	fp := Fingerprint(small)
	if fp == nil || fp.GeomHash == "" {
		t.Fatal("expected a geom hash for circle")
	}
}

func TestFingerprint_RectRatio_ScaleIndependent(t *testing.T) {
	a := firstByTag(t, `<svg><rect width="16" height="8"/></svg>`, "rect")
	b := firstByTag(t, `<svg><rect width="32" height="16"/></svg>`, "rect")
	if Fingerprint(a).GeomHash != Fingerprint(b).GeomHash {
		t.Error("expected same-aspect-ratio rects to fingerprint identically")
	}
}

// --- Fingerprint: title / role / animation ---

func TestFingerprint_TitleText(t *testing.T) {
	el := firstByTag(t, `<svg><title>Close</title><path d="M1 1"/></svg>`, "svg")
	fp := Fingerprint(el)
	if fp == nil || fp.TitleText != "Close" {
		t.Fatalf("TitleText = %+v", fp)
	}
}

func TestFingerprint_HasAnimation(t *testing.T) {
	el := firstByTag(t, `<svg><circle r="4"><animate attributeName="r" to="8"/></circle></svg>`, "circle")
	fp := Fingerprint(el)
	if fp == nil || !fp.HasAnimation {
		t.Fatalf("expected HasAnimation=true, got %+v", fp)
	}
}

func TestFingerprint_NilForBareGroup(t *testing.T) {
	el := firstByTag(t, `<svg><g></g></svg>`, "g")
	if fp := Fingerprint(el); fp != nil {
		t.Errorf("expected nil fingerprint for bare <g>, got %+v", fp)
	}
}
