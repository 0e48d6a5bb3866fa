package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCompilesToWat(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "app.wisp")
	if err := os.WriteFile(input, []byte("function main() = print(\"hi\");\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.wat")

	var stdout, stderr bytes.Buffer
	code := Run(Options{
		PackageName: "app",
		Input:       input,
		Output:      output,
		NoStd:       true,
		Stdout:      &stdout,
		Stderr:      &stderr,
	})
	if code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr.String())
	}

	text, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), "(module") {
		t.Fatalf("output is not a module:\n%s", text)
	}
	if !strings.Contains(string(text), `(export "main"`) {
		t.Fatalf("missing main export:\n%s", text)
	}
}

func TestRunReportsErrorsAndSkipsCodegen(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "app.wisp")
	if err := os.WriteFile(input, []byte("function main() = nosuch;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.wat")

	var stdout, stderr bytes.Buffer
	code := Run(Options{
		PackageName: "app",
		Input:       input,
		Output:      output,
		NoStd:       true,
		Stdout:      &stdout,
		Stderr:      &stderr,
	})
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "cannot find nosuch") {
		t.Fatalf("diagnostic missing:\n%s", stderr.String())
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatal("codegen must be skipped when diagnostics are fatal")
	}
}

func TestRunStdLibrary(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "app.wisp")
	src := "extern mod std;\nfunction main() -> I32 = std.alloc(16_I32);\n"
	if err := os.WriteFile(input, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.wat")

	var stdout, stderr bytes.Buffer
	code := Run(Options{
		PackageName: "app",
		Input:       input,
		Output:      output,
		Stdout:      &stdout,
		Stderr:      &stderr,
	})
	if code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr.String())
	}
	text, _ := os.ReadFile(output)
	if !strings.Contains(string(text), "call $std.alloc") {
		t.Fatalf("std call missing:\n%s", text)
	}
}

func TestDiagnoseFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.wisp")
	bad := filepath.Join(dir, "bad.wisp")
	os.WriteFile(good, []byte("function f() = 1;\n"), 0o644)
	os.WriteFile(bad, []byte("function = ;\n"), 0o644)

	reports := DiagnoseFiles([]string{good, bad}, 16)
	if len(reports) != 2 {
		t.Fatalf("reports: %d", len(reports))
	}
	if reports[0].Bag.HasErrors() {
		t.Fatalf("good file errored: %v", reports[0].Bag.Items())
	}
	if !reports[1].Bag.HasErrors() {
		t.Fatal("bad file must produce diagnostics")
	}
}
