package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"wisp/internal/diag"
	"wisp/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	posColor  = color.New(color.Bold)
	caretLine = color.New(color.FgGreen)
)

// Pretty renders diagnostics for humans. Call bag.Sort() first for stable
// output. Every diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a caret underline, then the notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		printOne(w, d, fs, opts)
	}
}

func printOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	sev := severityPainter(d.Severity)
	if !fs.Has(d.Primary.File) {
		// a diagnostic without a source position (I/O failures)
		if opts.Color {
			fmt.Fprintf(w, "%s %s: %s\n", sev.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
		} else {
			fmt.Fprintf(w, "%s %s: %s\n", d.Severity.String(), d.Code.ID(), d.Message)
		}
		return
	}
	start, _ := fs.Resolve(d.Primary)
	file := fs.Get(d.Primary.File)

	pos := fmt.Sprintf("%s:%d:%d:", file.Path, start.Line, start.Col)
	if opts.Color {
		fmt.Fprintf(w, "%s %s %s: %s\n",
			posColor.Sprint(pos), sev.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
	} else {
		fmt.Fprintf(w, "%s %s %s: %s\n", pos, d.Severity.String(), d.Code.ID(), d.Message)
	}

	if opts.Context {
		printContext(w, file, d.Primary, start, opts)
	}

	if opts.ShowNotes {
		for _, note := range d.Notes {
			noteStart, _ := fs.Resolve(note.Span)
			noteFile := fs.Get(note.Span.File)
			fmt.Fprintf(w, "  note: %s:%d:%d: %s\n",
				noteFile.Path, noteStart.Line, noteStart.Col, note.Msg)
		}
	}
}

func printContext(w io.Writer, file *source.File, span source.Span, start source.LineCol, opts PrettyOpts) {
	line := file.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	width := int(span.Len())
	if width < 1 {
		width = 1
	}
	if max := len(line) - int(start.Col) + 1; width > max && max > 0 {
		width = max
	}
	marker := strings.Repeat(" ", int(start.Col)-1) + "^" + strings.Repeat("~", width-1)
	if opts.Color {
		fmt.Fprintf(w, "  %s\n", caretLine.Sprint(marker))
	} else {
		fmt.Fprintf(w, "  %s\n", marker)
	}
}

func severityPainter(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errColor
	case diag.SevWarning:
		return warnColor
	default:
		return infoColor
	}
}
