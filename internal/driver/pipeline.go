package driver

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"wisp/internal/diag"
	"wisp/internal/diagfmt"
	"wisp/internal/lexer"
	"wisp/internal/project"
	"wisp/internal/source"
	"wisp/internal/types"
	"wisp/internal/wat"
	wispruntime "wisp/runtime"
)

// Options configure one compiler invocation.
type Options struct {
	PackageName string
	Input       string
	Output      string // defaults to out.wat
	NoOutput    bool
	NoStd       bool
	// Debug categories: tokens, ast, resolved, typecked, wat, wasm-validate.
	Debug          map[string]bool
	MaxDiagnostics int
	Color          bool
	SearchDirs     []string
	DepDirs        map[string]string
	Cache          *DiskCache

	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) fill() {
	if o.Output == "" {
		o.Output = "out.wat"
	}
	if o.MaxDiagnostics == 0 {
		o.MaxDiagnostics = 100
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Debug == nil {
		o.Debug = map[string]bool{}
	}
}

// Run drives the whole pipeline for one package and returns the process
// exit code.
func Run(opts Options) int {
	opts.fill()

	fs := source.NewFileSet()
	bag := diag.NewBag(opts.MaxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}
	in := types.NewInterner()

	loader := project.NewLoader(fs, reporter, in)
	loader.SearchDirs = append([]string{filepath.Dir(opts.Input)}, opts.SearchDirs...)
	loader.DepDirs = opts.DepDirs
	if !opts.NoStd {
		loader.Std = wispruntime.StdSource
	}

	if opts.Debug["tokens"] {
		dumpTokens(opts.Stdout, fs, opts.Input)
	}

	pkg, ok := loader.LoadMain(opts.PackageName, opts.Input)
	if !ok {
		reportAll(bag, fs, opts)
		return 1
	}

	if opts.Debug["ast"] {
		dumpPackage(opts.Stdout, pkg, nil, dumpAST)
	}
	if opts.Debug["resolved"] {
		dumpPackage(opts.Stdout, pkg, nil, dumpResolved)
	}
	if opts.Debug["typecked"] {
		dumpPackage(opts.Stdout, pkg, in, dumpTypecked)
	}

	reportAll(bag, fs, opts)
	if bag.HasErrors() || pkg.Fatal {
		return 1
	}
	if opts.NoOutput {
		return 0
	}

	pkgs := append(loader.Finalized(), pkg)
	out, err := os.Create(opts.Output)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "cannot create %s: %v\n", opts.Output, err)
		return 1
	}
	emitErr := wat.Emit(out, pkgs, in, loader)
	if closeErr := out.Close(); emitErr == nil {
		emitErr = closeErr
	}
	if emitErr != nil {
		fmt.Fprintf(opts.Stderr, "emit failed: %v\n", emitErr)
		return 1
	}

	if opts.Debug["wat"] {
		if text, err := os.ReadFile(opts.Output); err == nil {
			opts.Stdout.Write(text)
		}
	}

	if opts.Debug["wasm-validate"] {
		if err := validateOutput(opts); err != nil {
			fmt.Fprintf(opts.Stderr, "wasm-tools validate: %v\n", err)
			return 1
		}
	}
	return 0
}

func reportAll(bag *diag.Bag, fs *source.FileSet, opts Options) {
	bag.Sort()
	bag.Dedup()
	diagfmt.Pretty(opts.Stderr, bag, fs, diagfmt.DefaultPrettyOpts(opts.Color))
}

func dumpTokens(w io.Writer, fs *source.FileSet, path string) {
	id, err := fs.Load(path)
	if err != nil {
		return
	}
	toks := lexer.Tokenize(fs.Get(id), diag.NopReporter{})
	diagfmt.Tokens(w, toks, fs)
}

// validateOutput shells out to wasm-tools, memoizing clean results in the
// disk cache keyed by the output's content hash.
func validateOutput(opts Options) error {
	content, err := os.ReadFile(opts.Output)
	if err != nil {
		return err
	}
	key := HashBytes(content)

	if opts.Cache != nil {
		var payload Payload
		if hit, _ := opts.Cache.Get(key, &payload); hit && payload.Validated {
			return nil
		}
	}

	cmd := exec.Command("wasm-tools", "validate", opts.Output)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if err := cmd.Run(); err != nil {
		return err
	}

	if opts.Cache != nil {
		_ = opts.Cache.Put(key, &Payload{
			Schema:    cacheSchemaVersion,
			Name:      opts.PackageName,
			Validated: true,
		})
	}
	return nil
}
