// Package desugar implements HIR Desugaring (component F, spec §4.6):
// an exhaustive, ordered rewrite of every surface-sugar HIR node kind
// into the canonical subset MIR construction expects. Grounded on the
// teacher's internal/elaborate package, which performs the analogous
// "surface AST to Core ANF" lowering pass (dictionary-passing,
// operator desugaring) as a single ordered walk over the same node
// set it reads, rather than a separate pass per sugar kind.
package desugar

import (
	"fmt"

	"github.com/sunholo/haira/internal/hir"
)

// Desugar returns a rewritten copy of one HIR function, applying every
// transformation spec §4.6 lists, in the fixed order: string
// interpolation, pipe, range, for-loops (already Loop+Break via
// materialization, a no-op here), method calls, match, then `?`.
// Desugaring a function never changes its signature.
func Desugar(fn *hir.Function) *hir.Function {
	return &hir.Function{
		Name: fn.Name, Params: fn.Params, ReturnType: fn.ReturnType,
		Body: desugarStmts(fn.Body),
	}
}

func desugarStmts(stmts []hir.Stmt) []hir.Stmt {
	out := make([]hir.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, desugarStmt(s)...)
	}
	return out
}

// desugarStmt returns one or more statements: a `?` desugars into a
// two-value destructure followed by an early Return, so in general one
// input statement can expand to several output statements.
func desugarStmt(s hir.Stmt) []hir.Stmt {
	switch st := s.(type) {
	case *hir.Let:
		pre, val := desugarExprWithPrelude(st.Value)
		return append(pre, &hir.Let{Name: st.Name, Value: val})
	case *hir.ExprStmt:
		pre, val := desugarExprWithPrelude(st.Value)
		return append(pre, &hir.ExprStmt{Value: val})
	case *hir.Return:
		if st.Value == nil {
			return []hir.Stmt{st}
		}
		pre, val := desugarExprWithPrelude(st.Value)
		return append(pre, &hir.Return{Value: val})
	case *hir.Assign:
		pre, val := desugarExprWithPrelude(st.Value)
		return append(pre, &hir.Assign{Name: st.Name, Value: val})
	case *hir.Loop:
		return []hir.Stmt{&hir.Loop{Body: desugarStmts(st.Body)}}
	default:
		return []hir.Stmt{s}
	}
}

// desugarExprWithPrelude desugars e and returns any statements that
// must run before the resulting expression is evaluated (only `?`
// needs this: it destructures a (value, error) pair and returns early
// on error, so the "early return" half must become its own statement
// ahead of the expression that uses the success value).
func desugarExprWithPrelude(e hir.Expr) ([]hir.Stmt, hir.Expr) {
	e = desugarExpr(e)
	if try, ok := e.(*hir.TryExpr); ok {
		okVar := "__try_ok"
		errVar := "__try_err"
		prelude := []hir.Stmt{
			&hir.Let{Name: okVar, Value: hir.NewFieldAccess("", try.Value, "ok")},
			&hir.Let{Name: errVar, Value: hir.NewFieldAccess("", try.Value, "err")},
			&hir.IfStmt{
				Cond: hir.NewUnaryExpr("bool", hir.OpNot, hir.NewVar("bool", okVar)),
				Then: []hir.Stmt{&hir.Return{Value: hir.NewVar("", errVar)}},
			},
		}
		return prelude, hir.NewFieldAccess("", try.Value, "value")
	}
	return nil, e
}

// desugarExpr rewrites interpolation, pipe, range, method calls, and
// match expressions bottom-up into canonical Call/BuiltinCall/IfExpr
// chains; it recurses into every sub-expression first so nested sugar
// (e.g. a pipe whose argument is itself an interpolated string) is
// fully canonical by the time the outer rewrite runs.
func desugarExpr(e hir.Expr) hir.Expr {
	switch ex := e.(type) {
	case *hir.InterpString:
		return desugarInterp(ex)
	case *hir.PipeExpr:
		return desugarPipe(ex)
	case *hir.RangeExpr:
		return desugarRange(ex)
	case *hir.MethodCall:
		return desugarMethodCall(ex)
	case *hir.MatchExpr:
		return desugarMatch(ex)
	case *hir.BinaryExpr:
		return hir.NewBinaryExpr("", ex.Op, desugarExpr(ex.Left), desugarExpr(ex.Right))
	case *hir.UnaryExpr:
		return hir.NewUnaryExpr("", ex.Op, desugarExpr(ex.Operand))
	case *hir.IfExpr:
		return hir.NewIfExpr("", desugarExpr(ex.Cond), desugarStmts(ex.Then), desugarStmts(ex.Else))
	case *hir.Call:
		return hir.NewCall("", ex.Callee, desugarExprs(ex.Args))
	case *hir.BuiltinCall:
		return hir.NewBuiltinCall("", ex.Name, desugarExprs(ex.Args))
	case *hir.FieldAccess:
		return hir.NewFieldAccess("", desugarExpr(ex.Recv), ex.Field)
	case *hir.IndexExpr:
		return hir.NewIndexExpr("", desugarExpr(ex.Recv), desugarExpr(ex.Index))
	case *hir.ListLit:
		return hir.NewListLit("", desugarExprs(ex.Elems))
	case *hir.Lambda:
		return hir.NewLambda("", ex.Params, desugarStmts(ex.Body))
	default:
		return e
	}
}

func desugarExprs(es []hir.Expr) []hir.Expr {
	out := make([]hir.Expr, len(es))
	for i, e := range es {
		out[i] = desugarExpr(e)
	}
	return out
}

// desugarInterp rewrites `"a${x}b"` into a chain of string.concat
// calls over literal parts and `to_string(expr)` calls — spec §4.6:
// "string interpolation → concatenation of to_string calls".
func desugarInterp(s *hir.InterpString) hir.Expr {
	var acc hir.Expr
	concat := func(a, b hir.Expr) hir.Expr {
		return hir.NewBuiltinCall("string", "string.concat", []hir.Expr{a, b})
	}
	exprIdx := 0
	for i, part := range s.Parts {
		if part != "" {
			lit := hir.Expr(hir.NewStringLit("string", part))
			if acc == nil {
				acc = lit
			} else {
				acc = concat(acc, lit)
			}
		}
		if exprIdx < len(s.Exprs) && i < len(s.Parts)-1 {
			toStr := hir.NewBuiltinCall("string", "to_string", []hir.Expr{desugarExpr(s.Exprs[exprIdx])})
			exprIdx++
			if acc == nil {
				acc = toStr
			} else {
				acc = concat(acc, toStr)
			}
		}
	}
	for ; exprIdx < len(s.Exprs); exprIdx++ {
		toStr := hir.NewBuiltinCall("string", "to_string", []hir.Expr{desugarExpr(s.Exprs[exprIdx])})
		if acc == nil {
			acc = toStr
		} else {
			acc = concat(acc, toStr)
		}
	}
	if acc == nil {
		return hir.NewStringLit("string", "")
	}
	return acc
}

// desugarPipe rewrites `x | f(a, b)` into `f(x, a, b)` — spec §4.6.
func desugarPipe(p *hir.PipeExpr) hir.Expr {
	args := append([]hir.Expr{desugarExpr(p.Value)}, desugarExprs(p.Call.Args)...)
	return hir.NewCall("", p.Call.Callee, args)
}

// desugarRange rewrites `a..b` / `a..=b` into an iterator-object
// builtin call — spec §4.6.
func desugarRange(r *hir.RangeExpr) hir.Expr {
	name := "range.exclusive"
	if r.Inclusive {
		name = "range.inclusive"
	}
	return hir.NewBuiltinCall("iterator", name, []hir.Expr{desugarExpr(r.From), desugarExpr(r.To)})
}

// desugarMethodCall rewrites `x.m(args…)` into `T_of_x::m(x, args…)` —
// spec §4.6. The qualified callee name mirrors the structural-dispatch
// naming internal/types' inferer already resolved at §4.2 rule 4, so
// this rewrite never needs its own type lookup: the receiver's static
// type string produced by inference IS the qualifier.
func desugarMethodCall(m *hir.MethodCall) hir.Expr {
	recv := desugarExpr(m.Recv)
	qualified := fmt.Sprintf("%s::%s", hir.TypeOf(recv), m.Method)
	args := append([]hir.Expr{recv}, desugarExprs(m.Args)...)
	return hir.NewCall("", qualified, args)
}

// desugarMatch lowers a MatchExpr into an ordered decision tree of
// IfExprs keyed on tag dispatch — spec §4.6. Each arm becomes one
// `if subject.__tag == "Variant" { ... }` branch, tried in source
// order, mirroring the teacher's internal/dtree decision-tree compiler
// (match arms tried top-to-bottom, first matching tag wins, no
// backtracking).
func desugarMatch(m *hir.MatchExpr) hir.Expr {
	subject := desugarExpr(m.Subject)
	var build func(i int) hir.Expr
	build = func(i int) hir.Expr {
		if i >= len(m.Arms) {
			return hir.NewCall("unit", "panic.unreachable_match", nil)
		}
		arm := m.Arms[i]
		tagEq := hir.NewBinaryExpr("bool", hir.OpEq,
			hir.NewFieldAccess("string", subject, "__tag"),
			hir.NewStringLit("string", arm.VariantName))
		thenBody := desugarStmts(arm.Body)
		elseExpr := build(i + 1)
		return hir.NewIfExpr("", tagEq, thenBody, []hir.Stmt{&hir.ExprStmt{Value: elseExpr}})
	}
	return build(0)
}
