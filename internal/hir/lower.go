package hir

import (
	"github.com/sunholo/haira/internal/ast"
	"github.com/sunholo/haira/internal/types"
)

// Lower builds one user-written function's HIR body directly from its
// typed AST (component E's other input path — materialize.go handles
// CIR-sourced functions, this handles everything the programmer wrote
// by hand). Grounded on the teacher's elaborate.Elaborator shape: one
// expression-kind switch and one statement-kind switch driven off the
// same inference pass that already type-checked the function, reusing
// its settled substitution rather than re-solving anything.
// env must already have every one of fd.Params bound to its inferred
// type (the same binding InferFile performs before inferring the
// body), so Lower never re-derives a signature of its own.
func Lower(fd *ast.FuncDecl, inf *types.Infer, env *types.Env) *Function {
	params := make([]Param, len(fd.Params))
	for i, p := range fd.Params {
		pt, _ := env.Lookup(p.Name)
		params[i] = Param{Name: p.Name, Type: typeString(pt)}
	}
	return &Function{
		Name:       fd.Name,
		Params:     params,
		ReturnType: astTypeString(fd.ReturnType),
		Body:       lowerStmts(fd.Body, inf, env),
	}
}

func typeString(t types.Type) string { return t.String() }

func astTypeString(t ast.TypeExpr) string {
	if n, ok := t.(*ast.NamedType); ok {
		return n.Name
	}
	if t == nil {
		return "unit"
	}
	return t.String()
}

func lowerStmts(stmts []ast.Stmt, inf *types.Infer, env *types.Env) []Stmt {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, lowerStmt(s, inf, env))
	}
	return out
}

func lowerStmt(s ast.Stmt, inf *types.Infer, env *types.Env) Stmt {
	switch st := s.(type) {
	case *ast.LetStmt:
		val := lowerExpr(st.Value, inf, env)
		name := ""
		if vp, ok := st.Pattern.(*ast.VarPattern); ok {
			name = vp.Name
			env.Bind(name, inf.TypeOfExpr(env, st.Value))
		}
		return &Let{Name: name, Value: val}
	case *ast.ExprStmt:
		return &ExprStmt{Value: lowerExpr(st.X, inf, env)}
	case *ast.ReturnStmt:
		if st.Value == nil {
			return &Return{}
		}
		return &Return{Value: lowerExpr(st.Value, inf, env)}
	case *ast.AssignStmt:
		name := ""
		if id, ok := st.Target.(*ast.Identifier); ok {
			name = id.Name
		}
		return &Assign{Name: name, Value: lowerExpr(st.Value, inf, env)}
	case *ast.BreakStmt:
		return &Break{}
	case *ast.ForStmt:
		iterT := inf.TypeOfExpr(env, st.Iter)
		elemT := elemType(iterT)
		loopEnv := types.NewEnv(env)
		varName := ""
		if vp, ok := st.Pattern.(*ast.VarPattern); ok {
			varName = vp.Name
			loopEnv.Bind(varName, elemT)
		}
		iterVal := lowerExpr(st.Iter, inf, env)
		body := []Stmt{&Let{Name: varName, Value: NewCall(typeString(elemT), "iter.next", []Expr{iterVal})}}
		body = append(body, lowerStmts(st.Body, inf, loopEnv)...)
		return &Loop{Body: body}
	}
	return &ExprStmt{Value: NewUnitLit("unit")}
}

func elemType(t types.Type) types.Type {
	switch x := t.(type) {
	case *types.List:
		return x.Elem
	case *types.Map:
		return x.Value
	default:
		return types.Int
	}
}

func lowerExprs(es []ast.Expr, inf *types.Infer, env *types.Env) []Expr {
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = lowerExpr(e, inf, env)
	}
	return out
}

func lowerExpr(e ast.Expr, inf *types.Infer, env *types.Env) Expr {
	t := typeString(inf.TypeOfExpr(env, e))
	switch ex := e.(type) {
	case *ast.IntLit:
		return NewIntLit(t, ex.Value)
	case *ast.FloatLit:
		return NewFloatLit(t, ex.Value)
	case *ast.BoolLit:
		return NewBoolLit(t, ex.Value)
	case *ast.StringLit:
		return NewStringLit(t, ex.Value)
	case *ast.UnitLit:
		return NewUnitLit(t)
	case *ast.Identifier:
		return NewVar(t, ex.Name)
	case *ast.QualifiedIdentifier:
		return NewVar(t, ex.Name)
	case *ast.InterpString:
		return NewInterpString(t, ex.Parts, lowerExprs(ex.Exprs, inf, env))
	case *ast.ListLit:
		return NewListLit(t, lowerExprs(ex.Elems, inf, env))
	case *ast.MapLit:
		entries := make([]MapEntry, len(ex.Entries))
		for i, en := range ex.Entries {
			entries[i] = MapEntry{Key: lowerExpr(en.Key, inf, env), Value: lowerExpr(en.Value, inf, env)}
		}
		return NewMapLit(t, entries)
	case *ast.RecordLit:
		fields := make([]FieldInit, len(ex.Fields))
		for i, fi := range ex.Fields {
			fields[i] = FieldInit{Name: fi.Name, Value: lowerExpr(fi.Value, inf, env)}
		}
		return NewRecordLit(t, ex.TypeName, fields)
	case *ast.FieldAccess:
		return NewFieldAccess(t, lowerExpr(ex.Target, inf, env), ex.Field)
	case *ast.IndexExpr:
		return NewIndexExpr(t, lowerExpr(ex.Target, inf, env), lowerExpr(ex.Index, inf, env))
	case *ast.Call:
		callee := ""
		if id, ok := ex.Callee.(*ast.Identifier); ok {
			callee = id.Name
		} else if qid, ok := ex.Callee.(*ast.QualifiedIdentifier); ok {
			callee = qid.Name
		}
		return NewCall(t, callee, lowerExprs(ex.Args, inf, env))
	case *ast.MethodCall:
		return NewMethodCall(t, lowerExpr(ex.Target, inf, env), ex.Method, lowerExprs(ex.Args, inf, env))
	case *ast.PipeExpr:
		call := NewCall(t, ex.Call.Callee.(*ast.Identifier).Name, lowerExprs(ex.Call.Args, inf, env))
		return NewPipeExpr(t, lowerExpr(ex.Source, inf, env), call)
	case *ast.BinaryExpr:
		return NewBinaryExpr(t, string(ex.Op), lowerExpr(ex.Left, inf, env), lowerExpr(ex.Right, inf, env))
	case *ast.UnaryExpr:
		return NewUnaryExpr(t, string(ex.Op), lowerExpr(ex.Operand, inf, env))
	case *ast.RangeExpr:
		return NewRangeExpr(t, lowerExpr(ex.Start, inf, env), lowerExpr(ex.End, inf, env), ex.Inclusive)
	case *ast.IfExpr:
		thenEnv := types.NewEnv(env)
		elseEnv := types.NewEnv(env)
		var elseStmts []Stmt
		if ex.Else != nil {
			elseStmts = lowerStmts(ex.Else, inf, elseEnv)
		}
		return NewIfExpr(t, lowerExpr(ex.Cond, inf, env), lowerStmts(ex.Then, inf, thenEnv), elseStmts)
	case *ast.MatchExpr:
		arms := make([]MatchArm, len(ex.Arms))
		for i, arm := range ex.Arms {
			armEnv := types.NewEnv(env)
			variant, binds := patternShape(arm.Pattern, inf.TypeOfExpr(env, ex.Scrutinee), armEnv)
			arms[i] = MatchArm{VariantName: variant, Binds: binds, Body: lowerStmts(arm.Body, inf, armEnv)}
		}
		return NewMatchExpr(t, lowerExpr(ex.Scrutinee, inf, env), arms)
	case *ast.TryExpr:
		return NewTryExpr(t, lowerExpr(ex.Operand, inf, env))
	case *ast.Block:
		blockEnv := types.NewEnv(env)
		stmts := lowerStmts(ex.Stmts, inf, blockEnv)
		if len(stmts) == 0 {
			return NewUnitLit(t)
		}
		return NewIfExpr(t, NewBoolLit("bool", true), stmts, nil)
	}
	return NewUnitLit(t)
}

// patternShape extracts a MatchArm's variant tag and bound names,
// binding each sub-pattern's name into armEnv at the corresponding
// field's type — wildcard/literal patterns never bind, so only
// ConstructorPattern and VarPattern contribute names.
func patternShape(pat ast.Pattern, scrutTyp types.Type, armEnv *types.Env) (string, []string) {
	switch p := pat.(type) {
	case *ast.ConstructorPattern:
		binds := make([]string, 0, len(p.Args))
		if u, ok := scrutTyp.(*types.Union); ok {
			if v, ok := u.Variant(p.Variant); ok {
				for i, argPat := range p.Args {
					if vp, ok := argPat.(*ast.VarPattern); ok && i < len(v.Fields) {
						armEnv.Bind(vp.Name, v.Fields[i].Type)
						binds = append(binds, vp.Name)
					}
				}
				return p.Variant, binds
			}
		}
		for _, argPat := range p.Args {
			if vp, ok := argPat.(*ast.VarPattern); ok {
				binds = append(binds, vp.Name)
			}
		}
		return p.Variant, binds
	case *ast.VarPattern:
		armEnv.Bind(p.Name, scrutTyp)
		return "_", []string{p.Name}
	default:
		return "_", nil
	}
}
