package diagfmt

import (
	"strings"
	"testing"

	"wisp/internal/diag"
	"wisp/internal/source"
)

func TestPrettyPlain(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.wisp", []byte("let x = 1\nlet y = 2\n"))

	bag := diag.NewBag(4)
	bag.Add(diag.NewError(diag.SemaUnresolvedName,
		source.Span{File: id, Start: 14, End: 15}, "cannot find y").
		WithNote(source.Span{File: id, Start: 4, End: 5}, "x declared here"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{ShowNotes: true, Context: true})
	out := sb.String()

	if !strings.Contains(out, "main.wisp:2:5: ERROR SEM3002: cannot find y") {
		t.Fatalf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "let y = 2") {
		t.Fatalf("context line missing:\n%s", out)
	}
	if !strings.Contains(out, "    ^") {
		t.Fatalf("caret missing:\n%s", out)
	}
	if !strings.Contains(out, "note: main.wisp:1:5: x declared here") {
		t.Fatalf("note missing:\n%s", out)
	}
}
