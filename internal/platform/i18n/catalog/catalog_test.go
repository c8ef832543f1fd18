package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("zh-CN") {
		t.Fatalf("expected locale zh-CN")
	}
	if got := len(bundle.NamespaceMessages("en-US", SharedNamespace)); got == 0 {
		t.Fatalf("expected en-US shared namespace messages")
	}
	if got, ok := bundle.Lookup("zh-CN", SharedNamespace, "error.EMPTY_UNDO_STACK"); !ok || got == "" {
		t.Fatal("expected zh-CN empty undo stack message")
	}
}

func TestLoadFromFSRejectsEngineKeyOutsideSharedNamespace(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/tally.yaml"), `locale: "en-US"
namespace: "tally"
messages:
  "engine.bad": "nope"
`)
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/shared.yaml"), `locale: "en-US"
namespace: "shared"
messages:
  "engine.good": "ok"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadFromFSAllowsSameKeyAcrossNamespaces(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/shared.yaml": {Data: []byte("locale: en-US\nnamespace: shared\nmessages:\n  error.X: shared\n")},
		"locales/en-US/tally.yaml":  {Data: []byte("locale: en-US\nnamespace: tally\nmessages:\n  error.X: game\n")},
	}
	bundle, err := LoadFromFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := bundle.Lookup("en-US", "tally", "error.X"); got != "game" {
		t.Fatalf("tally error.X = %q, want game", got)
	}
	if got, _ := bundle.Lookup("en-US", "shared", "error.X"); got != "shared" {
		t.Fatalf("shared error.X = %q, want shared", got)
	}
}

func TestLoadFromFSRejectsLocaleMismatch(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/shared.yaml": {Data: []byte("locale: pt-BR\nnamespace: shared\nmessages:\n  a: b\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/zh-CN/shared.yaml": {Data: []byte("locale: zh-CN\nnamespace: shared\nmessages:\n  a: b\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestMatchLocale(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	tests := []struct {
		requested string
		want      string
	}{
		{requested: "", want: BaseLocale},
		{requested: "zh-CN", want: "zh-CN"},
		{requested: "zh", want: "zh-CN"},
		{requested: "en-GB", want: BaseLocale},
		{requested: "not a locale!", want: BaseLocale},
	}
	for _, tt := range tests {
		if got := bundle.MatchLocale(tt.requested); got != tt.want {
			t.Fatalf("MatchLocale(%q) = %q, want %q", tt.requested, got, tt.want)
		}
	}
}

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBundleAccessorsAreDefensive(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if got := bundle.Locales(); len(got) != 2 || got[0] != "en-US" || got[1] != "zh-CN" {
		t.Fatalf("Locales() = %v", got)
	}
	shared := bundle.NamespaceMessages(BaseLocale, SharedNamespace)
	shared["error.EMPTY_UNDO_STACK"] = "changed"
	if got, _ := bundle.Lookup(BaseLocale, SharedNamespace, "error.EMPTY_UNDO_STACK"); got == "changed" {
		t.Fatal("NamespaceMessages returned the bundle's own map")
	}
	if got := bundle.NamespaceMessages("fr-FR", SharedNamespace); len(got) != 0 {
		t.Fatalf("unknown locale messages = %v", got)
	}
	if _, ok := bundle.Lookup(BaseLocale, "missing", "error.EMPTY_UNDO_STACK"); ok {
		t.Fatal("lookup in a missing namespace should fail")
	}

	var none *Bundle
	if none.HasLocale(BaseLocale) || none.Locales() != nil || none.MatchLocale("zh-CN") != BaseLocale {
		t.Fatal("nil bundle should be empty")
	}
}
