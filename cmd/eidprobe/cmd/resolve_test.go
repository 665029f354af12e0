package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eidconfig"
	"github.com/anchorkit/anchorkit/pkg/resolver"
	"github.com/anchorkit/anchorkit/pkg/seql"
)

func TestRunResolve_MissingArgs(t *testing.T) {
	if err := runResolve([]string{"only-one-arg"}); err == nil {
		t.Error("expected error for missing arguments")
	}
}

func TestRunResolve_RoundTripsGeneratedSEQL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.html")
	html := `<html><body><form id="f"><div class="glass-card">` +
		`<input id="firstName" name="firstName" class="flex h-10 w-full"></div></form></body></html>`
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}

	id, err := loadEID(mustGenerateSEQL(t, path, "#firstName"))
	if err != nil {
		t.Fatalf("loadEID: %v", err)
	}
	if name, _ := id.Target.Semantics.Attr("name"); name != "firstName" {
		t.Errorf("target name attribute = %q, want firstName", name)
	}

	if err := runResolve([]string{path, mustGenerateSEQL(t, path, "#firstName")}); err != nil {
		t.Fatalf("runResolve: %v", err)
	}
}

func TestLoadEID_RejectsInvalidSEQL(t *testing.T) {
	if _, err := loadEID("not a valid seql string"); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadEID_MissingJSONFile(t *testing.T) {
	if _, err := loadEID(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing json file")
	}
}

// mustGenerateSEQL mirrors runGenerate's selector-to-EID path without
// going through stdout, for use as test fixture data.
func mustGenerateSEQL(t *testing.T, file, selector string) string {
	t.Helper()
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := domtree.ParseString(string(data), "")
	if err != nil {
		t.Fatal(err)
	}
	matches, err := doc.QuerySelectorAll(selector)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatalf("selector %q matched nothing", selector)
	}
	id := resolver.GenerateEID(matches[0], eidconfig.Default().ToResolverOptions())
	if id == nil {
		t.Fatal("GenerateEID returned nil")
	}
	return seql.Stringify(*id)
}
