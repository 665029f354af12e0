package eidcache

import (
	"runtime"
	"testing"
	"time"

	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
)

func elementFixture(t *testing.T) (*domtree.Document, *domtree.Element) {
	t.Helper()
	doc, err := domtree.ParseString(`<body><button id="go">Go</button></body>`, "")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	els, err := doc.QuerySelectorAll("#go")
	if err != nil || len(els) == 0 {
		t.Fatalf("QuerySelectorAll: %v", err)
	}
	return doc, els[0]
}

// --- per-element memoization ---

func TestCache_AnchorRoundTrips(t *testing.T) {
	_, el := elementFixture(t)
	c := New(0)

	if _, ok := c.GetAnchor(el); ok {
		t.Fatal("expected no anchor cached yet")
	}
	want := eid.AnchorNode{NodeRef: eid.NodeRef{Tag: "body"}}
	c.PutAnchor(el, want)

	got, ok := c.GetAnchor(el)
	if !ok || got.Tag != "body" {
		t.Errorf("GetAnchor() = %+v, %v, want %+v, true", got, ok, want)
	}
}

func TestCache_SemanticsAndEIDAreIndependentSlots(t *testing.T) {
	_, el := elementFixture(t)
	c := New(0)

	c.PutSemantics(el, eid.ElementSemantics{ID: "go"})
	if _, ok := c.GetEID(el); ok {
		t.Fatal("expected no EID cached yet despite semantics being cached")
	}
	sem, ok := c.GetSemantics(el)
	if !ok || sem.ID != "go" {
		t.Errorf("GetSemantics() = %+v, %v", sem, ok)
	}
}

func TestCache_ForgetDropsAllSlots(t *testing.T) {
	_, el := elementFixture(t)
	c := New(0)
	c.PutAnchor(el, eid.AnchorNode{})
	c.PutSemantics(el, eid.ElementSemantics{})

	c.Forget(el)

	if _, ok := c.GetAnchor(el); ok {
		t.Error("expected anchor slot gone after Forget")
	}
	if _, ok := c.GetSemantics(el); ok {
		t.Error("expected semantics slot gone after Forget")
	}
}

func TestCache_EntryReclaimedAfterElementIsUnreachable(t *testing.T) {
	c := New(0)
	func() {
		_, el := elementFixture(t)
		c.PutAnchor(el, eid.AnchorNode{NodeRef: eid.NodeRef{Tag: "body"}})
	}()

	// The cleanup registered via runtime.AddCleanup runs on a future GC,
	// asynchronously; poll briefly rather than assume a single GC is enough.
	for i := 0; i < 20; i++ {
		runtime.GC()
		c.mu.Lock()
		n := len(c.elements)
		c.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("expected element entry to be reclaimed once the element became unreachable")
}

// --- selector LRU ---

func TestSelectorLRU_GetPutRoundTrip(t *testing.T) {
	_, el := elementFixture(t)
	c := New(2)

	c.PutSelector("#go", []*domtree.Element{el})
	got, ok := c.GetSelector("#go")
	if !ok || len(got) != 1 {
		t.Errorf("GetSelector() = %+v, %v", got, ok)
	}
}

func TestSelectorLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	_, el := elementFixture(t)
	c := New(2)

	c.PutSelector("a", []*domtree.Element{el})
	c.PutSelector("b", []*domtree.Element{el})
	c.GetSelector("a") // touch "a" so "b" becomes the LRU victim
	c.PutSelector("c", []*domtree.Element{el})

	if _, ok := c.GetSelector("b"); ok {
		t.Error("expected \"b\" to have been evicted as least recently used")
	}
	if _, ok := c.GetSelector("a"); !ok {
		t.Error("expected \"a\" to survive since it was touched")
	}
	if _, ok := c.GetSelector("c"); !ok {
		t.Error("expected \"c\" to be present as the most recent insert")
	}
}

// --- Default ---

func TestDefault_ReturnsSameSingleton(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same process-wide cache")
	}
}

// --- logging ---

type recordingLogger struct{ debugs []string }

func (r *recordingLogger) Debug(msg string, kv ...any) { r.debugs = append(r.debugs, msg) }
func (r *recordingLogger) Info(string, ...any)         {}
func (r *recordingLogger) Warn(string, ...any)         {}
func (r *recordingLogger) Error(string, ...any)        {}

func TestSetLogger_ObservesSelectorEviction(t *testing.T) {
	_, el := elementFixture(t)
	c := New(1)
	rec := &recordingLogger{}
	c.SetLogger(rec)

	c.PutSelector("a", []*domtree.Element{el})
	c.PutSelector("b", []*domtree.Element{el})

	if len(rec.debugs) == 0 {
		t.Error("expected an eviction to be logged")
	}
}

func TestSetLogger_NilRestoresNoop(t *testing.T) {
	c := New(1)
	c.SetLogger(nil) // must not panic
	c.PutSelector("a", nil)
}
