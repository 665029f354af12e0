package cssgen

import (
	"strings"
	"testing"

	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
)

func nth(n int) *int { return &n }

// --- EscapeIdent ---

func TestEscapeIdent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"card", "card"},
		{"-webkit-thing", `\-webkit-thing`},
		{"foo:bar", `foo\:bar`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeIdent(tt.in); got != tt.want {
			t.Errorf("EscapeIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- NodeSelector ---

func TestNodeSelector_ClassesBeforeAttributes(t *testing.T) {
	n := eid.NodeRef{
		Tag: "input",
		Semantics: eid.ElementSemantics{
			Classes:    []string{"field"},
			Attributes: []eid.AttrPair{{Name: "name", Value: "email"}},
		},
		NthChild: nth(2),
	}
	got := NodeSelector(n, true)
	want := `input.field[name="email"]:nth-child(2)`
	if got != want {
		t.Errorf("NodeSelector() = %q, want %q", got, want)
	}
}

func TestNodeSelector_OmitsNthWhenNotRequested(t *testing.T) {
	n := eid.NodeRef{Tag: "div", NthChild: nth(3)}
	if got := NodeSelector(n, false); got != "div" {
		t.Errorf("NodeSelector() = %q, want div", got)
	}
}

// --- Baseline: combinator policy ---

func TestBaseline_DescendantByDefault(t *testing.T) {
	e := eid.EID{
		Anchor: eid.AnchorNode{NodeRef: eid.NodeRef{Tag: "form"}},
		Path:   []eid.PathNode{{NodeRef: eid.NodeRef{Tag: "div", Semantics: eid.ElementSemantics{Classes: []string{"field-group"}}}}},
		Target: eid.TargetNode{NodeRef: eid.NodeRef{Tag: "input"}},
	}
	want := `form div.field-group input`
	if got := Baseline(e); got != want {
		t.Errorf("Baseline() = %q, want %q", got, want)
	}
}

func TestBaseline_RootModeUsesChildCombinatorAndNth(t *testing.T) {
	e := eid.EID{
		Anchor: eid.AnchorNode{NodeRef: eid.NodeRef{Tag: "html"}},
		Path:   []eid.PathNode{{NodeRef: eid.NodeRef{Tag: "head", NthChild: nth(1)}}},
		Target: eid.TargetNode{NodeRef: eid.NodeRef{Tag: "title", NthChild: nth(2)}},
	}
	want := `html > head:nth-child(1) > title:nth-child(2)`
	if got := Baseline(e); got != want {
		t.Errorf("Baseline() = %q, want %q", got, want)
	}
}

func TestBaseline_SVGSubtreeUsesChildCombinatorAfterSVG(t *testing.T) {
	e := eid.EID{
		Anchor: eid.AnchorNode{NodeRef: eid.NodeRef{Tag: "main"}},
		Path:   []eid.PathNode{{NodeRef: eid.NodeRef{Tag: "svg"}}},
		Target: eid.TargetNode{NodeRef: eid.NodeRef{Tag: "path"}},
	}
	want := `main svg > path`
	if got := Baseline(e); got != want {
		t.Errorf("Baseline() = %q, want %q", got, want)
	}
}

// --- BuildUnique: anchor/target escalation against a live document ---

func TestBuildUnique_NoRootReturnsBaseline(t *testing.T) {
	e := eid.EID{
		Anchor: eid.AnchorNode{NodeRef: eid.NodeRef{Tag: "form"}},
		Target: eid.TargetNode{NodeRef: eid.NodeRef{Tag: "input"}},
	}
	result, err := BuildUnique(e, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildUnique: %v", err)
	}
	if result.Selector != "form input" {
		t.Errorf("Selector = %q, want %q", result.Selector, "form input")
	}
}

func TestBuildUnique_AnchorEscalatesToAttribute(t *testing.T) {
	doc, _ := domtree.ParseString(`<body>
		<form><input name="a"></form>
		<form data-testid="signup-form"><input name="b"></form>
	</body>`, "")

	e := eid.EID{
		Anchor: eid.AnchorNode{NodeRef: eid.NodeRef{
			Tag:       "form",
			Semantics: eid.ElementSemantics{Attributes: []eid.AttrPair{{Name: "data-testid", Value: "signup-form"}}},
		}},
		Target: eid.TargetNode{NodeRef: eid.NodeRef{
			Tag:       "input",
			Semantics: eid.ElementSemantics{Attributes: []eid.AttrPair{{Name: "name", Value: "b"}}},
		}},
	}

	result, err := BuildUnique(e, BuildOptions{Root: doc})
	if err != nil {
		t.Fatalf("BuildUnique: %v", err)
	}
	if !result.IsUnique {
		t.Errorf("expected unique result, got selector %q", result.Selector)
	}
	matches, _ := domtree.QuerySelectorAll(doc.DocumentElement(), result.Selector)
	if len(matches) != 1 {
		t.Fatalf("selector %q matched %d elements, want 1", result.Selector, len(matches))
	}
}

func TestBuildUnique_TargetEscalatesWithNthChildWhenAmbiguous(t *testing.T) {
	doc, _ := domtree.ParseString(`<body>
		<ul id="items">
			<li class="row">one</li>
			<li class="row">two</li>
		</ul>
	</body>`, "")

	lis, _ := doc.QuerySelectorAll("li")
	second := lis[1]

	e := eid.EID{
		Anchor: eid.AnchorNode{NodeRef: eid.NodeRef{
			Tag:       "ul",
			Semantics: eid.ElementSemantics{ID: "items"},
		}},
		Target: eid.TargetNode{NodeRef: eid.NodeRef{
			Tag:       "li",
			Semantics: eid.ElementSemantics{Classes: []string{"row"}},
			NthChild:  second.NthChild(),
		}},
	}

	result, err := BuildUnique(e, BuildOptions{Root: doc, EnsureUnique: true, TargetElement: second})
	if err != nil {
		t.Fatalf("BuildUnique: %v", err)
	}
	if !result.IsUnique {
		t.Errorf("expected unique selector after escalation, got %q", result.Selector)
	}
}

func TestBuildUnique_TargetEscalationSkipsNonIdentityAttributes(t *testing.T) {
	doc, _ := domtree.ParseString(`<body>
		<ul id="items">
			<li class="row" aria-checked="true" data-ga-id="x1">one</li>
			<li class="row" aria-checked="false" data-ga-id="x2">two</li>
		</ul>
	</body>`, "")

	lis, _ := doc.QuerySelectorAll("li")
	second := lis[1]

	e := eid.EID{
		Anchor: eid.AnchorNode{NodeRef: eid.NodeRef{
			Tag:       "ul",
			Semantics: eid.ElementSemantics{ID: "items"},
		}},
		Target: eid.TargetNode{NodeRef: eid.NodeRef{
			Tag:       "li",
			Semantics: eid.ElementSemantics{Classes: []string{"row"}},
			NthChild:  second.NthChild(),
		}},
	}

	result, err := BuildUnique(e, BuildOptions{Root: doc, EnsureUnique: true, TargetElement: second})
	if err != nil {
		t.Fatalf("BuildUnique: %v", err)
	}
	if strings.Contains(result.Selector, "aria-checked") || strings.Contains(result.Selector, "data-ga-id") {
		t.Errorf("selector %q must not pick up state/analytics noise for disambiguation", result.Selector)
	}
}
