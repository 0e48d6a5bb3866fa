package project

import (
	"os"
	"path/filepath"
	"testing"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/source"
	"wisp/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestLoader(t *testing.T, dir string) (*Loader, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(32)
	l := NewLoader(source.NewFileSet(), diag.BagReporter{Bag: bag}, types.NewInterner())
	l.SearchDirs = []string{dir}
	return l, bag
}

func TestLoadMainPipeline(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.wisp", "function main() = ();")
	l, bag := newTestLoader(t, dir)

	pkg, ok := l.LoadMain("app", path)
	if !ok || bag.HasErrors() {
		t.Fatalf("load failed: %v", bag.Items())
	}
	if pkg.Phase != ast.PhaseTypecked {
		t.Fatalf("phase: %v", pkg.Phase)
	}
}

func TestExternDependencyLoads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dep.wisp", "function answer() -> Int = 42;")
	path := writeFile(t, dir, "app.wisp",
		"extern mod dep;\nfunction main() -> Int = dep.answer();")
	l, bag := newTestLoader(t, dir)

	_, ok := l.LoadMain("app", path)
	if !ok || bag.HasErrors() {
		t.Fatalf("load failed: %v", bag.Items())
	}
	if len(l.Finalized()) != 1 || l.Finalized()[0].Name != "dep" {
		t.Fatalf("finalized: %+v", l.Finalized())
	}

	// memoized: a second load returns the same package
	dep1, _ := l.LoadPackage("dep", source.Span{})
	dep2, _ := l.LoadPackage("dep", source.Span{})
	if dep1 != dep2 {
		t.Fatal("package loading must be memoized")
	}
}

func TestDependencyCycleDiagnosed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.wisp", "extern mod b;\nfunction fa() = ();")
	writeFile(t, dir, "b.wisp", "extern mod a;\nfunction fb() = ();")
	path := writeFile(t, dir, "app.wisp", "extern mod a;\nfunction main() = ();")
	l, bag := newTestLoader(t, dir)

	l.LoadMain("app", path)
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.PrjImportCycle {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an import cycle diagnostic, got %v", bag.Items())
	}
}

func TestFileBasedModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "disk.wisp", "function g() -> Int = 7;")
	path := writeFile(t, dir, "app.wisp",
		"mod disk;\nfunction main() -> Int = disk.g();")
	l, bag := newTestLoader(t, dir)

	pkg, ok := l.LoadMain("app", path)
	if !ok || bag.HasErrors() {
		t.Fatalf("load failed: %v", bag.Items())
	}
	mod := pkg.Root.Items[0].(*ast.ModItem)
	if !mod.FromFile || len(mod.Items) != 1 {
		t.Fatalf("file module not loaded: %+v", mod)
	}
}

func TestMissingModuleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.wisp", "mod nosuch;\nfunction main() = ();")
	l, bag := newTestLoader(t, dir)

	l.LoadMain("app", path)
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.PrjMissingModule {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing module diagnostic, got %v", bag.Items())
	}
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wisp.toml", `
[package]
name = "app"

[deps]
util = "vendor/util"
`)
	m, ok, err := LoadManifest(dir)
	if err != nil || !ok {
		t.Fatalf("manifest: %v %v", ok, err)
	}
	if m.Config.Package.Name != "app" {
		t.Fatalf("name: %q", m.Config.Package.Name)
	}
	if m.MainFile() != filepath.Join(dir, "app.wisp") {
		t.Fatalf("main file: %q", m.MainFile())
	}
	depDir, ok := m.DepDir("util")
	if !ok || depDir != filepath.Join(dir, "vendor", "util") {
		t.Fatalf("dep dir: %q", depDir)
	}

	// nested dirs inherit the manifest
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := LoadManifest(sub); !ok {
		t.Fatal("manifest must be found from nested directories")
	}
}
