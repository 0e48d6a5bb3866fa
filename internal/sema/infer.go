package sema

import (
	"wisp/internal/diag"
	"wisp/internal/source"
	"wisp/internal/types"
)

// InferCtx owns the mutable substitution used while checking one package.
// It is single-writer: only the in-flight body checker touches it.
type InferCtx struct {
	in       *types.Interner
	reporter diag.Reporter
	// subst maps variable ids (the Payload of a KindVar descriptor) to
	// their binding. An unbound variable has no entry.
	subst map[uint32]types.TypeID
}

// NewInferCtx wires an inference context to a shared interner.
func NewInferCtx(in *types.Interner, reporter diag.Reporter) *InferCtx {
	return &InferCtx{
		in:       in,
		reporter: reporter,
		subst:    make(map[uint32]types.TypeID),
	}
}

// NewVar allocates a fresh unification variable.
func (ic *InferCtx) NewVar() types.TypeID {
	return ic.in.NewVar()
}

// ResolveIfPossible chases variable bindings shallowly: the result is not
// a bound variable, but its components may still contain variables.
func (ic *InferCtx) ResolveIfPossible(ty types.TypeID) types.TypeID {
	for {
		tt, ok := ic.in.Lookup(ty)
		if !ok || tt.Kind != types.KindVar {
			return ty
		}
		bound, ok := ic.subst[tt.Payload]
		if !ok {
			return ty
		}
		ty = bound
	}
}

// Assign unifies expected with actual, reporting a mismatch at span.
// Error types absorb unification silently; never unifies one-sided with
// anything; structural types unify component-wise; structs by identity.
func (ic *InferCtx) Assign(expected, actual types.TypeID, span source.Span) {
	if ic.unify(expected, actual) {
		return
	}
	diag.ReportError(ic.reporter, diag.SemaTypeMismatch, span,
		"expected "+ic.in.Format(ic.Apply(expected))+
			", found "+ic.in.Format(ic.Apply(actual))).Emit()
}

func (ic *InferCtx) unify(a, b types.TypeID) bool {
	a = ic.ResolveIfPossible(a)
	b = ic.ResolveIfPossible(b)
	if a == b {
		return true
	}

	ta := ic.in.MustLookup(a)
	tb := ic.in.MustLookup(b)

	// error sentinels absorb silently
	if ta.Kind == types.KindError || tb.Kind == types.KindError {
		return true
	}

	if ta.Kind == types.KindVar {
		return ic.bind(ta.Payload, b)
	}
	if tb.Kind == types.KindVar {
		return ic.bind(tb.Payload, a)
	}

	// never unifies with anything, one-sided
	if ta.Kind == types.KindNever || tb.Kind == types.KindNever {
		return true
	}

	if ta.Kind != tb.Kind {
		return false
	}

	switch ta.Kind {
	case types.KindUnit, types.KindBool, types.KindString, types.KindInt, types.KindI32:
		return true
	case types.KindRawPtr:
		return ic.unify(ta.Elem, tb.Elem)
	case types.KindTuple:
		ia, _ := ic.in.TupleInfo(a)
		ib, _ := ic.in.TupleInfo(b)
		if len(ia.Elems) != len(ib.Elems) {
			return false
		}
		for i := range ia.Elems {
			if !ic.unify(ia.Elems[i], ib.Elems[i]) {
				return false
			}
		}
		return true
	case types.KindFn:
		ia, _ := ic.in.FnInfo(a)
		ib, _ := ic.in.FnInfo(b)
		if len(ia.Params) != len(ib.Params) {
			return false
		}
		for i := range ia.Params {
			if !ic.unify(ia.Params[i], ib.Params[i]) {
				return false
			}
		}
		return ic.unify(ia.Result, ib.Result)
	case types.KindStruct:
		// nominal: same underlying item
		ia, _ := ic.in.StructInfo(a)
		ib, _ := ic.in.StructInfo(b)
		return ia.Item == ib.Item
	case types.KindParam:
		return ta.Payload == tb.Payload
	}
	return false
}

// bind records var → ty unless ty contains the variable.
func (ic *InferCtx) bind(varID uint32, ty types.TypeID) bool {
	if ic.occurs(varID, ty) {
		return false
	}
	ic.subst[varID] = ty
	return true
}

// occurs reports whether the variable appears inside ty.
func (ic *InferCtx) occurs(varID uint32, ty types.TypeID) bool {
	ty = ic.ResolveIfPossible(ty)
	tt := ic.in.MustLookup(ty)
	switch tt.Kind {
	case types.KindVar:
		return tt.Payload == varID
	case types.KindRawPtr:
		return ic.occurs(varID, tt.Elem)
	case types.KindTuple:
		info, _ := ic.in.TupleInfo(ty)
		for _, e := range info.Elems {
			if ic.occurs(varID, e) {
				return true
			}
		}
	case types.KindFn:
		info, _ := ic.in.FnInfo(ty)
		for _, p := range info.Params {
			if ic.occurs(varID, p) {
				return true
			}
		}
		return ic.occurs(varID, info.Result)
	}
	return false
}

// Apply resolves a type deeply, replacing every bound variable with its
// substitution. Unbound variables remain.
func (ic *InferCtx) Apply(ty types.TypeID) types.TypeID {
	ty = ic.ResolveIfPossible(ty)
	tt := ic.in.MustLookup(ty)
	switch tt.Kind {
	case types.KindRawPtr:
		return ic.in.RawPtr(ic.Apply(tt.Elem))
	case types.KindTuple:
		info, _ := ic.in.TupleInfo(ty)
		elems := make([]types.TypeID, len(info.Elems))
		changed := false
		for i, e := range info.Elems {
			elems[i] = ic.Apply(e)
			changed = changed || elems[i] != e
		}
		if !changed {
			return ty
		}
		return ic.in.RegisterTuple(elems)
	case types.KindFn:
		info, _ := ic.in.FnInfo(ty)
		params := make([]types.TypeID, len(info.Params))
		for i, p := range info.Params {
			params[i] = ic.Apply(p)
		}
		return ic.in.RegisterFn(params, ic.Apply(info.Result))
	default:
		return ty
	}
}

// HasVars reports whether the deeply resolved type still contains an
// unbound variable.
func (ic *InferCtx) HasVars(ty types.TypeID) bool {
	ty = ic.ResolveIfPossible(ty)
	tt := ic.in.MustLookup(ty)
	switch tt.Kind {
	case types.KindVar:
		return true
	case types.KindRawPtr:
		return ic.HasVars(tt.Elem)
	case types.KindTuple:
		info, _ := ic.in.TupleInfo(ty)
		for _, e := range info.Elems {
			if ic.HasVars(e) {
				return true
			}
		}
	case types.KindFn:
		info, _ := ic.in.FnInfo(ty)
		for _, p := range info.Params {
			if ic.HasVars(p) {
				return true
			}
		}
		return ic.HasVars(info.Result)
	}
	return false
}
