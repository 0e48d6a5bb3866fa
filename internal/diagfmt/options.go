package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
	// Context enables the source line with a caret underline.
	Context bool
}

// DefaultPrettyOpts is what the CLI uses on a terminal.
func DefaultPrettyOpts(color bool) PrettyOpts {
	return PrettyOpts{
		Color:     color,
		ShowNotes: true,
		Context:   true,
	}
}
