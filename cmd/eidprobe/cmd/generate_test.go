package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitFlags(t *testing.T) {
	positional, flags, err := splitFlags([]string{
		"a.html", "#firstName", "--base-url=https://example.com", "--config", "eidprobe.yaml", "--json",
	})
	if err != nil {
		t.Fatalf("splitFlags: %v", err)
	}
	if len(positional) != 2 || positional[0] != "a.html" || positional[1] != "#firstName" {
		t.Errorf("positional = %v, want [a.html #firstName]", positional)
	}
	if flags["base-url"] != "https://example.com" {
		t.Errorf("base-url flag = %q", flags["base-url"])
	}
	if flags["config"] != "eidprobe.yaml" {
		t.Errorf("config flag = %q", flags["config"])
	}
	if v, ok := flags["json"]; !ok || v != "" {
		t.Errorf("json flag = %q, %v, want present and empty", v, ok)
	}
}

func TestRunGenerate_MissingArgs(t *testing.T) {
	if err := runGenerate(nil); err == nil {
		t.Error("expected error for missing arguments")
	}
}

func TestRunGenerate_NoMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.html")
	if err := os.WriteFile(path, []byte(`<html><body><div id="x"></div></body></html>`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runGenerate([]string{path, "#nope"}); err == nil {
		t.Error("expected error when selector matches nothing")
	}
}

func TestRunGenerate_ProducesSEQL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.html")
	html := `<html><body><form id="f"><div class="glass-card">` +
		`<input id="firstName" name="firstName" class="flex h-10 w-full"></div></form></body></html>`
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runGenerate([]string{path, "#firstName"}); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}
}

func TestLoadOptions_DefaultWhenNoConfigFlag(t *testing.T) {
	opts, err := loadOptions(map[string]string{})
	if err != nil {
		t.Fatalf("loadOptions: %v", err)
	}
	if opts.MaxPathDepth != 10 {
		t.Errorf("expected default maxPathDepth, got %d", opts.MaxPathDepth)
	}
}
