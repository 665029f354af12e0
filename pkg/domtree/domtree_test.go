package domtree

import "testing"

const sampleHTML = `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<form id="f">
  <div class="glass-card">
    <input id="firstName" name="firstName" class="flex h-10 w-full">
  </div>
</form>
<ul><li>one</li><li>two</li><li>three</li></ul>
</body>
</html>`

// --- Parse / navigation ---

func TestParseString_DocumentElement(t *testing.T) {
	doc, err := ParseString(sampleHTML, "https://example.com")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if doc.DocumentElement().TagName() != "html" {
		t.Fatalf("DocumentElement().TagName() = %q", doc.DocumentElement().TagName())
	}
	if doc.Body() == nil || doc.Head() == nil {
		t.Fatal("expected head and body to be found")
	}
}

func TestElement_Parent_Children(t *testing.T) {
	doc, _ := ParseString(sampleHTML, "")
	inputs, err := doc.QuerySelectorAll("#firstName")
	if err != nil {
		t.Fatalf("QuerySelectorAll: %v", err)
	}
	if len(inputs) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(inputs))
	}
	input := inputs[0]

	parent := input.Parent()
	if parent == nil || parent.TagName() != "div" {
		t.Fatalf("expected parent div, got %+v", parent)
	}

	if len(parent.Children()) != 1 {
		t.Fatalf("expected 1 child, got %d", len(parent.Children()))
	}
}

func TestElement_NthChild(t *testing.T) {
	doc, _ := ParseString(sampleHTML, "")
	lis, err := doc.QuerySelectorAll("li")
	if err != nil {
		t.Fatalf("QuerySelectorAll: %v", err)
	}
	if len(lis) != 3 {
		t.Fatalf("expected 3 li, got %d", len(lis))
	}
	for i, li := range lis {
		n := li.NthChild()
		if n == nil || *n != i+1 {
			t.Errorf("li[%d].NthChild() = %v, want %d", i, n, i+1)
		}
	}

	html := doc.DocumentElement()
	if html.NthChild() != nil {
		t.Error("expected <html> to have no nth-child (no parent)")
	}
}

func TestElement_DirectText(t *testing.T) {
	doc, _ := ParseString(`<p>Hello <b>World</b></p>`, "")
	ps, _ := doc.QuerySelectorAll("p")
	if got := ps[0].DirectText(); got != "Hello " {
		t.Errorf("DirectText() = %q, want %q", got, "Hello ")
	}
}

func TestElement_ClassList(t *testing.T) {
	doc, _ := ParseString(sampleHTML, "")
	inputs, _ := doc.QuerySelectorAll("#firstName")
	classes := inputs[0].ClassList()
	want := []string{"flex", "h-10", "w-full"}
	if len(classes) != len(want) {
		t.Fatalf("ClassList() = %v", classes)
	}
	for i := range want {
		if classes[i] != want[i] {
			t.Errorf("ClassList()[%d] = %q, want %q", i, classes[i], want[i])
		}
	}
}

func TestQuerySelectorAll_ScopedToRoot(t *testing.T) {
	doc, _ := ParseString(sampleHTML, "")
	form, _ := doc.QuerySelectorAll("#f")
	scoped, err := QuerySelectorAll(form[0], "input")
	if err != nil {
		t.Fatalf("QuerySelectorAll: %v", err)
	}
	if len(scoped) != 1 {
		t.Fatalf("expected 1 input under #f, got %d", len(scoped))
	}
}

func TestElement_IsSVG(t *testing.T) {
	doc, _ := ParseString(`<svg class="lucide-mail"><rect/></svg>`, "")
	rects, _ := doc.QuerySelectorAll("rect")
	if len(rects) != 1 || !rects[0].IsSVG() {
		t.Fatalf("expected rect to be recognized as SVG")
	}
}

func TestResolve_AcceptsDocumentOrElement(t *testing.T) {
	doc, _ := ParseString(sampleHTML, "")
	if el, d, err := Resolve(doc); err != nil || el.TagName() != "html" || d != doc {
		t.Fatalf("Resolve(doc) = %v, %v, %v", el, d, err)
	}
	body := doc.Body()
	if el, d, err := Resolve(body); err != nil || el != body || d != doc {
		t.Fatalf("Resolve(body) = %v, %v, %v", el, d, err)
	}
}
