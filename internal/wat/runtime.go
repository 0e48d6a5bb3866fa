package wat

import "wisp/internal/ast"

func calleeBuiltin(callee ast.Expr) (ast.Builtin, bool) {
	switch n := callee.(type) {
	case *ast.IdentExpr:
		if n.Res.Kind == ast.ResBuiltin {
			return n.Res.Builtin, true
		}
	case *ast.PathExpr:
		if n.Res.Kind == ast.ResBuiltin {
			return n.Res.Builtin, true
		}
	}
	return ast.BuiltinNone, false
}

// runtimeHelpers are the support functions every module carries: a bump
// allocator and the string comparisons. Strings are a 4-byte length
// followed by the bytes.
const runtimeHelpers = `(func $wisp.alloc (param $n i32) (result i32)
(local $p i32)
global.get $heap
local.set $p
global.get $heap
local.get $n
i32.add
i32.const 7
i32.add
i32.const -8
i32.and
global.set $heap
local.get $p
)
(func $wisp.str.eq (param $a i32) (param $b i32) (result i32)
(local $n i32)
(local $i i32)
local.get $a
i32.load
local.get $b
i32.load
i32.ne
if
i32.const 0
return
end
local.get $a
i32.load
local.set $n
i32.const 0
local.set $i
block $done
loop $next
local.get $i
local.get $n
i32.ge_u
br_if $done
local.get $a
local.get $i
i32.add
i32.load8_u offset=4
local.get $b
local.get $i
i32.add
i32.load8_u offset=4
i32.ne
if
i32.const 0
return
end
local.get $i
i32.const 1
i32.add
local.set $i
br $next
end
end
i32.const 1
)
(func $wisp.str.lt (param $a i32) (param $b i32) (result i32)
(local $n i32)
(local $i i32)
(local $ca i32)
(local $cb i32)
local.get $a
i32.load
local.set $n
local.get $b
i32.load
local.get $n
i32.lt_u
if
local.get $b
i32.load
local.set $n
end
i32.const 0
local.set $i
block $done
loop $next
local.get $i
local.get $n
i32.ge_u
br_if $done
local.get $a
local.get $i
i32.add
i32.load8_u offset=4
local.set $ca
local.get $b
local.get $i
i32.add
i32.load8_u offset=4
local.set $cb
local.get $ca
local.get $cb
i32.lt_u
if
i32.const 1
return
end
local.get $ca
local.get $cb
i32.gt_u
if
i32.const 0
return
end
local.get $i
i32.const 1
i32.add
local.set $i
br $next
end
end
local.get $a
i32.load
local.get $b
i32.load
i32.lt_u
)
(func $wisp.str.gt (param $a i32) (param $b i32) (result i32)
local.get $b
local.get $a
call $wisp.str.lt
)
`
