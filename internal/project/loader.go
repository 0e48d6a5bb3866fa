package project

import (
	"os"
	"path/filepath"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/parser"
	"wisp/internal/sema"
	"wisp/internal/source"
	"wisp/internal/symbols"
	"wisp/internal/types"
)

// Loader maps package names to source files and drives each dependency
// through the full pipeline. Every package loads at most once; circular
// dependencies are diagnosed here. It implements symbols.Context.
type Loader struct {
	FS       *source.FileSet
	Reporter diag.Reporter
	Types    *types.Interner

	// SearchDirs are scanned for <name>.wisp and <name>/<name>.wisp; a
	// DepDirs entry for the name is tried before them.
	SearchDirs []string
	// DepDirs pins package names to directories (from the manifest).
	DepDirs map[string]string
	// Std carries the embedded standard library source; nil disables it.
	Std []byte

	packages map[string]*ast.Package
	byID     map[ast.PackageID]*ast.Package
	loading  map[string]bool
	order    []*ast.Package // finalized packages in load order
	nextID   ast.PackageID
}

// NewLoader builds a loader over a shared file set and interner.
func NewLoader(fs *source.FileSet, reporter diag.Reporter, in *types.Interner) *Loader {
	return &Loader{
		FS:       fs,
		Reporter: reporter,
		Types:    in,
		packages: make(map[string]*ast.Package),
		byID:     make(map[ast.PackageID]*ast.Package),
		loading:  make(map[string]bool),
		nextID:   1,
	}
}

// Finalized returns the fully checked dependency packages in load order.
func (l *Loader) Finalized() []*ast.Package {
	return l.order
}

// FindItem implements symbols.Context.
func (l *Loader) FindItem(id ast.ItemID) (ast.Item, *ast.Package, bool) {
	pkg, ok := l.byID[id.Pkg]
	if !ok {
		return nil, nil, false
	}
	it, ok := pkg.Item(id.Item)
	return it, pkg, ok
}

// PackageByName implements symbols.Context: finalized packages only.
func (l *Loader) PackageByName(name string) (*ast.Package, bool) {
	pkg, ok := l.packages[name]
	if !ok || pkg.Phase != ast.PhaseTypecked {
		return nil, false
	}
	return pkg, ok
}

// LoadPackage implements symbols.Context: load, resolve, and type-check a
// dependency package, memoized per name.
func (l *Loader) LoadPackage(name string, span source.Span) (*ast.Package, bool) {
	if pkg, ok := l.packages[name]; ok {
		return pkg, true
	}
	if l.loading[name] {
		diag.ReportError(l.Reporter, diag.PrjImportCycle, span,
			"package dependency cycle through '"+name+"'").Emit()
		return nil, false
	}

	fileID, ok := l.packageFile(name, span)
	if !ok {
		return nil, false
	}

	l.loading[name] = true
	pkg := l.compile(name, fileID)
	delete(l.loading, name)

	l.packages[name] = pkg
	l.order = append(l.order, pkg)
	return pkg, true
}

// LoadMain drives the root package of a compilation from an explicit file.
func (l *Loader) LoadMain(name, path string) (*ast.Package, bool) {
	fileID, err := l.FS.Load(path)
	if err != nil {
		diag.ReportError(l.Reporter, diag.IOLoadFileError, source.Span{},
			"cannot load "+path+": "+err.Error()).Emit()
		return nil, false
	}
	l.loading[name] = true
	pkg := l.compile(name, fileID)
	delete(l.loading, name)
	l.packages[name] = pkg
	return pkg, true
}

// packageFile locates a package's root source file.
func (l *Loader) packageFile(name string, span source.Span) (source.FileID, bool) {
	if name == "std" && l.Std != nil {
		return l.FS.AddVirtual("std.wisp", l.Std), true
	}

	var candidates []string
	if dir, ok := l.DepDirs[name]; ok {
		candidates = append(candidates, filepath.Join(dir, name+".wisp"))
	}
	for _, dir := range l.SearchDirs {
		candidates = append(candidates,
			filepath.Join(dir, name+".wisp"),
			filepath.Join(dir, name, name+".wisp"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			id, err := l.FS.Load(path)
			if err == nil {
				return id, true
			}
		}
	}
	diag.ReportError(l.Reporter, diag.PrjMissingPackage, span,
		"cannot find package '"+name+"'").Emit()
	return 0, false
}

// compile runs one package through parse → build → resolve → check.
func (l *Loader) compile(name string, fileID source.FileID) *ast.Package {
	file := l.FS.Get(fileID)
	items, fatal := parser.ParseFile(file, l.Reporter)

	pkg := &ast.Package{
		ID:       l.nextID,
		Name:     name,
		RootFile: fileID,
		Phase:    ast.PhaseParsed,
		Fatal:    fatal,
		Root:     &ast.ModItem{ItemBase: ast.ItemBase{Name: name}, Items: items},
	}
	l.nextID++
	l.byID[pkg.ID] = pkg

	l.loadFileModules(pkg.Root, filepath.Dir(file.Path))

	ast.Build(pkg)
	symbols.Resolve(pkg, symbols.Options{Reporter: l.Reporter, Ctx: l})
	sema.Check(pkg, sema.Options{Reporter: l.Reporter, Ctx: l, Types: l.Types})
	return pkg
}

// loadFileModules reads `mod NAME;` declarations from NAME.wisp next to
// the referring file, recursively.
func (l *Loader) loadFileModules(mod *ast.ModItem, dir string) {
	for _, it := range mod.Items {
		sub, ok := it.(*ast.ModItem)
		if !ok {
			continue
		}
		if sub.FromFile {
			path := filepath.Join(dir, sub.Name+".wisp")
			fileID, err := l.FS.Load(path)
			if err != nil {
				diag.ReportError(l.Reporter, diag.PrjMissingModule, sub.Span,
					"cannot load module file "+path).Emit()
				continue
			}
			items, fatal := parser.ParseFile(l.FS.Get(fileID), l.Reporter)
			sub.Items = items
			if fatal {
				continue
			}
			l.loadFileModules(sub, filepath.Dir(path))
		} else {
			l.loadFileModules(sub, dir)
		}
	}
}
