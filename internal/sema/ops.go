package sema

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/types"
)

// binary types a binary expression. Operands are resolved first; a var on
// one side unifies against the other before the table applies.
func (bc *bodyCheck) binary(n *ast.BinaryExpr) (ast.Expr, types.TypeID) {
	b := bc.c.in.Builtins()

	var lhsTy, rhsTy types.TypeID
	n.Lhs, lhsTy = bc.check(n.Lhs)
	n.Rhs, rhsTy = bc.check(n.Rhs)

	lt := bc.ic.ResolveIfPossible(lhsTy)
	rt := bc.ic.ResolveIfPossible(rhsTy)
	lk := bc.c.in.MustLookup(lt).Kind
	rk := bc.c.in.MustLookup(rt).Kind

	if lk == types.KindError || rk == types.KindError {
		return n, types.ErrorTypeID
	}

	// give an unresolved side a chance to adopt the other's type
	if lk == types.KindVar || rk == types.KindVar {
		bc.ic.Assign(lt, rt, n.OpSpan)
		lt = bc.ic.ResolveIfPossible(lt)
		rt = bc.ic.ResolveIfPossible(rt)
		lk = bc.c.in.MustLookup(lt).Kind
		rk = bc.c.in.MustLookup(rt).Kind
		if lk == types.KindVar || rk == types.KindVar {
			bc.c.errorf(diag.SemaInvalidBinaryOperands, n.OpSpan,
				"cannot infer operand types for '"+n.Op.String()+"'")
			return n, types.ErrorTypeID
		}
	}

	switch n.Op.Class() {
	case ast.ClassCompare:
		ok := false
		switch {
		case lk == types.KindInt && rk == types.KindInt:
			ok = true
		case lk == types.KindI32 && rk == types.KindI32:
			ok = true
		case lk == types.KindString && rk == types.KindString:
			ok = true
		case lk == types.KindRawPtr && rk == types.KindRawPtr:
			bc.ic.Assign(lt, rt, n.OpSpan)
			ok = true
		case lk == types.KindBool && rk == types.KindBool:
			ok = n.Op == ast.OpEq || n.Op == ast.OpNe
		}
		if !ok {
			return n, bc.invalidOperands(n, lt, rt)
		}
		return n, b.Bool

	case ast.ClassArith:
		if lk == types.KindInt && rk == types.KindInt {
			return n, b.Int
		}
		if lk == types.KindI32 && rk == types.KindI32 {
			return n, b.I32
		}
		return n, bc.invalidOperands(n, lt, rt)

	case ast.ClassBit:
		if lk == types.KindBool && rk == types.KindBool {
			return n, b.Bool
		}
		return n, bc.invalidOperands(n, lt, rt)
	}
	return n, bc.invalidOperands(n, lt, rt)
}

func (bc *bodyCheck) invalidOperands(n *ast.BinaryExpr, lt, rt types.TypeID) types.TypeID {
	bc.c.errorf(diag.SemaInvalidBinaryOperands, n.OpSpan,
		"invalid operands "+bc.c.in.Format(lt)+" "+n.Op.String()+" "+bc.c.in.Format(rt))
	return types.ErrorTypeID
}

// unary types a unary expression. `!` works on int, i32 and bool and
// returns the operand type; negation is rejected uniformly.
func (bc *bodyCheck) unary(n *ast.UnaryExpr) (ast.Expr, types.TypeID) {
	var operandTy types.TypeID
	n.Operand, operandTy = bc.check(n.Operand)

	if n.Op == ast.UnNeg {
		bc.c.errorf(diag.SemaInvalidUnaryOperand, n.Span,
			"unary '-' is not supported; subtract from 0 instead")
		return n, types.ErrorTypeID
	}

	ot := bc.ic.ResolveIfPossible(operandTy)
	switch bc.c.in.MustLookup(ot).Kind {
	case types.KindInt, types.KindI32, types.KindBool:
		return n, ot
	case types.KindError:
		return n, types.ErrorTypeID
	default:
		bc.c.errorf(diag.SemaInvalidUnaryOperand, n.Span,
			"invalid operand "+bc.c.in.Format(ot)+" for '!'")
		return n, types.ErrorTypeID
	}
}
