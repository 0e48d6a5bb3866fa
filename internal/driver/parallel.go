package driver

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"wisp/internal/diag"
	"wisp/internal/parser"
	"wisp/internal/source"
)

// FileReport is the outcome of diagnosing one file.
type FileReport struct {
	Path string
	FS   *source.FileSet
	Bag  *diag.Bag
	Err  error
}

// DiagnoseFiles lexes and parses each file concurrently and collects
// per-file diagnostics. Every file gets its own FileSet and Bag, so this
// stays outside the single-threaded compile pipeline.
func DiagnoseFiles(paths []string, maxDiagnostics int) []FileReport {
	reports := make([]FileReport, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			reports[i] = diagnoseOne(path, maxDiagnostics)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func diagnoseOne(path string, maxDiagnostics int) FileReport {
	fs := source.NewFileSet()
	bag := diag.NewBag(maxDiagnostics)
	report := FileReport{Path: path, FS: fs, Bag: bag}

	id, err := fs.Load(path)
	if err != nil {
		report.Err = err
		return report
	}
	parser.ParseFile(fs.Get(id), diag.BagReporter{Bag: bag})
	bag.Sort()
	return report
}
