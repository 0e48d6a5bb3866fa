package driver

import (
	"fmt"
	"io"
	"strings"

	"wisp/internal/ast"
	"wisp/internal/types"
)

// dumpMode selects how much elaboration a debug dump shows.
type dumpMode uint8

const (
	dumpAST      dumpMode = iota // structure only
	dumpResolved                 // plus resolutions and def paths
	dumpTypecked                 // plus expression types
)

// dumpPackage prints a compact tree of the package for the --debug
// categories.
func dumpPackage(w io.Writer, pkg *ast.Package, in *types.Interner, mode dumpMode) {
	fmt.Fprintf(w, "package %s (id %d, phase %s)\n", pkg.Name, pkg.ID, pkg.Phase)
	d := &dumper{w: w, in: in, mode: mode}
	for _, it := range pkg.RootItems() {
		d.item(it, 1)
	}
}

type dumper struct {
	w    io.Writer
	in   *types.Interner
	mode dumpMode
}

func (d *dumper) printf(depth int, format string, args ...any) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) item(it ast.Item, depth int) {
	base := it.Base()
	head := fmt.Sprintf("%s %s", itemKind(it), base.Name)
	if d.mode >= dumpResolved && len(base.DefPath) > 0 {
		head += " [" + strings.Join(base.DefPath, ".") + "]"
	}
	d.printf(depth, "%s (item %s)", head, base.ID)

	switch n := it.(type) {
	case *ast.ModItem:
		for _, child := range n.Items {
			d.item(child, depth+1)
		}
	case *ast.FnItem:
		if d.mode >= dumpTypecked && d.in != nil {
			d.printf(depth+1, ": %s", d.in.Format(n.Ty))
		}
		d.expr(n.Body, depth+1)
	case *ast.GlobalItem:
		d.expr(n.Init, depth+1)
	case *ast.UseItem:
		if d.mode >= dumpResolved {
			d.printf(depth+1, "= %s", d.res(n.Res))
		}
	}
}

func (d *dumper) expr(e ast.Expr, depth int) {
	if e == nil {
		return
	}
	head := exprKind(e)
	switch n := e.(type) {
	case *ast.IdentExpr:
		head += " " + n.Name
		if d.mode >= dumpResolved {
			head += " -> " + d.res(n.Res)
		}
	case *ast.PathExpr:
		var segs []string
		for _, s := range n.Segments {
			segs = append(segs, s.Name)
		}
		head += " " + strings.Join(segs, ".")
		if d.mode >= dumpResolved {
			head += " -> " + d.res(n.Res)
		}
	case *ast.LitExpr:
		if n.Lit == ast.LitString {
			head += fmt.Sprintf(" %q", n.Str)
		} else {
			head += fmt.Sprintf(" %d", n.Int)
		}
	case *ast.LetExpr:
		head += " " + n.Name
	case *ast.BinaryExpr:
		head += " " + n.Op.String()
	case *ast.LoopExpr:
		head += fmt.Sprintf(" #%d", n.Loop)
	case *ast.BreakExpr:
		if n.Target != ast.NoLoopID {
			head += fmt.Sprintf(" #%d", n.Target)
		}
	case *ast.StructLitExpr:
		head += " " + n.Name
	case *ast.FieldAccessExpr:
		if n.Field.IsNum {
			head += fmt.Sprintf(" .%d", n.Field.Num)
		} else {
			head += " ." + n.Field.Name
		}
	}
	if d.mode >= dumpTypecked && d.in != nil {
		head += " : " + d.in.Format(e.Base().Ty)
	}
	d.printf(depth, "%s", head)

	switch n := e.(type) {
	case *ast.LetExpr:
		d.expr(n.Rhs, depth+1)
	case *ast.AssignExpr:
		d.expr(n.Lhs, depth+1)
		d.expr(n.Rhs, depth+1)
	case *ast.BlockExpr:
		for _, sub := range n.Exprs {
			d.expr(sub, depth+1)
		}
	case *ast.BinaryExpr:
		d.expr(n.Lhs, depth+1)
		d.expr(n.Rhs, depth+1)
	case *ast.UnaryExpr:
		d.expr(n.Operand, depth+1)
	case *ast.CallExpr:
		d.expr(n.Callee, depth+1)
		for _, arg := range n.Args {
			d.expr(arg, depth+1)
		}
	case *ast.FieldAccessExpr:
		d.expr(n.Lhs, depth+1)
	case *ast.IfExpr:
		d.expr(n.Cond, depth+1)
		d.expr(n.Then, depth+1)
		d.expr(n.Else, depth+1)
	case *ast.LoopExpr:
		d.expr(n.Body, depth+1)
	case *ast.StructLitExpr:
		for _, f := range n.Fields {
			d.expr(f.Value, depth+1)
		}
	case *ast.TupleLitExpr:
		for _, elem := range n.Elems {
			d.expr(elem, depth+1)
		}
	}
}

func (d *dumper) res(res ast.Resolution) string {
	switch res.Kind {
	case ast.ResLocal:
		return fmt.Sprintf("local(%d)", res.Local)
	case ast.ResItem:
		return fmt.Sprintf("item(%s)", res.Item)
	case ast.ResBuiltin:
		return "builtin(" + res.Builtin.String() + ")"
	case ast.ResTyParam:
		return fmt.Sprintf("typaram(%d %s)", res.Param, res.Name)
	case ast.ResError:
		return "error"
	default:
		return "none"
	}
}

func itemKind(it ast.Item) string {
	switch it.(type) {
	case *ast.FnItem:
		return "function"
	case *ast.TypeItem:
		return "type"
	case *ast.ImportItem:
		return "import"
	case *ast.ModItem:
		return "mod"
	case *ast.ExternItem:
		return "extern"
	case *ast.GlobalItem:
		return "global"
	case *ast.UseItem:
		return "use"
	default:
		return "error"
	}
}

func exprKind(e ast.Expr) string {
	switch e.(type) {
	case *ast.EmptyExpr:
		return "unit"
	case *ast.LetExpr:
		return "let"
	case *ast.AssignExpr:
		return "assign"
	case *ast.BlockExpr:
		return "block"
	case *ast.LitExpr:
		return "lit"
	case *ast.IdentExpr:
		return "ident"
	case *ast.PathExpr:
		return "path"
	case *ast.BinaryExpr:
		return "binary"
	case *ast.UnaryExpr:
		return "unary"
	case *ast.CallExpr:
		return "call"
	case *ast.FieldAccessExpr:
		return "field"
	case *ast.IfExpr:
		return "if"
	case *ast.LoopExpr:
		return "loop"
	case *ast.BreakExpr:
		return "break"
	case *ast.StructLitExpr:
		return "structlit"
	case *ast.TupleLitExpr:
		return "tuplelit"
	case *ast.AsmExpr:
		return "asm"
	default:
		return "error"
	}
}
