// infer.go implements the constraint-generation-and-solving inference
// engine of spec §4.2: declared annotations propagate first, record
// shapes are pinned down at first construction site, pipes are treated
// as ordinary calls, method calls resolve structurally, and Option use
// in a boolean context is a presence test.
package types

import (
	"fmt"

	"github.com/sunholo/haira/internal/ast"
	"github.com/sunholo/haira/internal/herrors"
)

// Infer runs one program's worth of type inference. A fresh Infer is
// created per build (spec §5: "the constraint solver's substitution map
// is process-global" — global to one inference run, not one Go process).
type Infer struct {
	fresh   Fresh
	subst   Subst
	funcs   map[string]*Function
	records map[string]*Record
	unions  map[string]*Union
	bag     herrors.Bag
}

func NewInfer() *Infer {
	return &Infer{
		subst:   Subst{},
		funcs:   map[string]*Function{},
		records: map[string]*Record{},
		unions:  map[string]*Union{},
	}
}

func (inf *Infer) Diagnostics() []*herrors.Diagnostic { return inf.bag.All() }
func (inf *Infer) Substitution() Subst                { return inf.subst }

// TypeOfExpr resolves e's fully-substituted type under env, for callers
// outside this package that need a settled type per expression node
// (component E's CIR→HIR path gets its types from CIR directly; the
// AST→HIR path for user-written functions has no other source of
// per-node types, so it re-walks inference on demand instead of
// recording a side-table during InferFile).
func (inf *Infer) TypeOfExpr(env *Env, e ast.Expr) Type {
	return inf.subst.Apply(inf.inferExpr(env, e))
}

// FuncSignature returns the pre-registered signature for a declared
// function or ai-function, so a caller outside this package (the build
// driver, binding the same env InferFile itself builds) can replicate
// InferFile's own param binding for a second pass over the same file.
func (inf *Infer) FuncSignature(name string) (*Function, bool) {
	f, ok := inf.funcs[name]
	return f, ok
}

// RegisterRecord folds a record type discovered after RegisterDecls
// already ran — the CIR→HIR path (component E) can introduce new
// record shapes as a side effect of AI-materialized Construct ops
// (spec §4.5), and those shapes need to resolve the same way any
// other nominal record type does for every inference call that
// follows.
func (inf *Infer) RegisterRecord(name string, fields []Field) {
	inf.records[name] = &Record{Name: name, Fields: fields}
}

// RegisterFunc folds a function signature discovered after
// RegisterDecls already ran. An AI-materialized function's own
// signature — whether an explicit `ai` declaration whose declared
// return was `unknown` until the CIR validator bound it, or an
// implicit candidate that had no declaration at all — is only known
// once component D's engine returns its CIR Function; every inferCall
// site that references it by name must see this signature, so the
// resolver/inferer work-list spec §2 describes ("replayed whenever (D)
// introduces new declarations") reaches its fixed point before any
// call site is lowered to HIR.
func (inf *Infer) RegisterFunc(name string, params []Type, ret Type) {
	inf.funcs[name] = &Function{Params: params, Return: ret}
}

// FromTypeString resolves a CIR type string (the same simple names
// cir.Param.Type carries, e.g. "int" or "Customer") to a Type, for
// callers folding CIR-sourced shapes into this Infer's record/union
// tables rather than its own AST decls.
func (inf *Infer) FromTypeString(s string) Type {
	switch s {
	case "int":
		return Int
	case "float":
		return Float
	case "bool":
		return Bool
	case "string":
		return String
	case "unit", "":
		return Unit
	}
	if r, ok := inf.records[s]; ok {
		return r
	}
	if u, ok := inf.unions[s]; ok {
		return u
	}
	return &Generic{Name: s}
}

func (inf *Infer) fromAstType(t ast.TypeExpr) Type {
	if t == nil {
		return inf.fresh.New()
	}
	switch x := t.(type) {
	case *ast.NamedType:
		switch x.Name {
		case "int":
			return Int
		case "float":
			return Float
		case "bool":
			return Bool
		case "string":
			return String
		case "unit":
			return Unit
		}
		if r, ok := inf.records[x.Name]; ok {
			return r
		}
		if u, ok := inf.unions[x.Name]; ok {
			return u
		}
		return &Generic{Name: x.Name}
	case *ast.ListType:
		return &List{Elem: inf.fromAstType(x.Elem)}
	case *ast.MapType:
		return &Map{Key: inf.fromAstType(x.Key), Value: inf.fromAstType(x.Value)}
	case *ast.OptionType:
		return &Option{Elem: inf.fromAstType(x.Elem)}
	case *ast.FunctionType:
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = inf.fromAstType(p)
		}
		return &Function{Params: params, Return: inf.fromAstType(x.Return)}
	}
	return inf.fresh.New()
}

// RegisterDecls pre-declares every function signature and nominal
// record/union type across all files, so forward references and
// mutual recursion resolve regardless of declaration order (spec §8:
// "reordering independent definitions never changes inferred types").
func (inf *Infer) RegisterDecls(files []*ast.File) {
	for _, f := range files {
		for _, d := range f.Decls {
			switch decl := d.(type) {
			case *ast.RecordDecl:
				fields := make([]Field, len(decl.Fields))
				for i, fd := range decl.Fields {
					fields[i] = Field{Name: fd.Name, Type: inf.fromAstType(fd.Type)}
				}
				inf.records[decl.Name] = &Record{Name: decl.Name, Fields: fields}
			case *ast.UnionDecl:
				variants := make([]Variant, len(decl.Variants))
				for i, v := range decl.Variants {
					fields := make([]Field, len(v.Fields))
					for j, fd := range v.Fields {
						fields[j] = Field{Name: fd.Name, Type: inf.fromAstType(fd.Type)}
					}
					variants[i] = Variant{Name: v.Name, Fields: fields}
				}
				inf.unions[decl.Name] = &Union{Name: decl.Name, Variants: variants}
			}
		}
	}
	for _, f := range files {
		for _, d := range f.Decls {
			switch decl := d.(type) {
			case *ast.FuncDecl:
				inf.funcs[decl.Name] = inf.signatureOf(decl.Params, decl.ReturnType)
			case *ast.AiDecl:
				inf.funcs[decl.Name] = inf.signatureOf(decl.Params, decl.ReturnType)
			}
		}
	}
}

func (inf *Infer) signatureOf(params []ast.Param, ret ast.TypeExpr) *Function {
	ps := make([]Type, len(params))
	for i, p := range params {
		ps[i] = inf.fromAstType(p.Type)
	}
	return &Function{Params: ps, Return: inf.fromAstType(ret)}
}

// InferFile type-checks every FuncDecl in f against the pre-registered
// signatures, accumulating diagnostics in the shared bag.
func (inf *Infer) InferFile(f *ast.File) {
	for _, d := range f.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		sig := inf.funcs[fd.Name]
		env := NewEnv(nil)
		for i, p := range fd.Params {
			env.Bind(p.Name, sig.Params[i])
		}
		ret := inf.inferBlock(env, fd.Body)
		if ret != nil {
			if _, err := Unify(inf.subst, sig.Return, ret); err != nil {
				inf.bag.Add(herrors.New(herrors.TYP004, fmt.Sprintf(
					"function %s: declared return %s does not unify with inferred %s",
					fd.Name, sig.Return, ret)).At(herrors.Span{File: f.Path, Line: fd.Pos.Line, Column: fd.Pos.Column}))
			}
		}
	}
}

// inferBlock infers every statement of a sequence and returns the type
// of the last one (Unit for an empty block). A return earlier in the
// block is inferred but its type is not checked against the declared
// return type here.
func (inf *Infer) inferBlock(env *Env, stmts []ast.Stmt) Type {
	var last Type = Unit
	for _, s := range stmts {
		last = inf.inferStmt(env, s)
	}
	return last
}

func (inf *Infer) inferStmt(env *Env, s ast.Stmt) Type {
	switch st := s.(type) {
	case *ast.LetStmt:
		vt := inf.inferExpr(env, st.Value)
		if st.Type != nil {
			declared := inf.fromAstType(st.Type)
			if sub, err := Unify(inf.subst, declared, vt); err == nil {
				inf.subst = sub
			} else {
				inf.bag.Add(herrors.New(herrors.TYP004, err.Error()))
			}
		}
		if vp, ok := st.Pattern.(*ast.VarPattern); ok {
			env.Bind(vp.Name, vt)
		}
		return Unit
	case *ast.ExprStmt:
		return inf.inferExpr(env, st.X)
	case *ast.ReturnStmt:
		if st.Value == nil {
			return Unit
		}
		return inf.inferExpr(env, st.Value)
	case *ast.AssignStmt:
		inf.inferExpr(env, st.Value)
		return Unit
	case *ast.ForStmt:
		iterT := inf.inferExpr(env, st.Iter)
		elemT := inf.elemTypeOf(iterT)
		loopEnv := NewEnv(env)
		if vp, ok := st.Pattern.(*ast.VarPattern); ok {
			loopEnv.Bind(vp.Name, elemT)
		}
		inf.inferBlock(loopEnv, st.Body)
		return Unit
	case *ast.BreakStmt:
		return Unit
	}
	return Unit
}

func (inf *Infer) elemTypeOf(t Type) Type {
	t = inf.subst.Apply(t)
	switch x := t.(type) {
	case *List:
		return x.Elem
	case *Map:
		return x.Value
	default:
		if rng, ok := t.(*Prim); ok && rng.Name == "range" {
			return Int
		}
		return inf.fresh.New()
	}
}

// inferExpr computes the type of e, unifying as it goes and reporting
// TypeError diagnostics; on failure it returns a fresh type variable so
// traversal can continue (errors accumulate rather than aborting the
// whole function, per spec §7 propagation policy).
func (inf *Infer) inferExpr(env *Env, e ast.Expr) Type {
	switch ex := e.(type) {
	case *ast.IntLit:
		return Int
	case *ast.FloatLit:
		return Float
	case *ast.BoolLit:
		return Bool
	case *ast.StringLit:
		return String
	case *ast.UnitLit:
		return Unit
	case *ast.InterpString:
		for _, sub := range ex.Exprs {
			inf.inferExpr(env, sub)
		}
		return String
	case *ast.Identifier:
		if t, ok := env.Lookup(ex.Name); ok {
			return t
		}
		if fn, ok := inf.funcs[ex.Name]; ok {
			return fn
		}
		return inf.fresh.New() // AI-backed / not-yet-materialized name: CannotInfer is reported once materialization fails, not here
	case *ast.QualifiedIdentifier:
		if fn, ok := inf.funcs[ex.Name]; ok {
			return fn
		}
		return inf.fresh.New()
	case *ast.ListLit:
		elem := inf.fresh.New()
		var et Type = elem
		for _, el := range ex.Elems {
			t := inf.inferExpr(env, el)
			if sub, err := Unify(inf.subst, et, t); err == nil {
				inf.subst = sub
			}
		}
		return &List{Elem: inf.subst.Apply(et)}
	case *ast.MapLit:
		kt, vt := Type(inf.fresh.New()), Type(inf.fresh.New())
		for _, en := range ex.Entries {
			k := inf.inferExpr(env, en.Key)
			v := inf.inferExpr(env, en.Value)
			if sub, err := Unify(inf.subst, kt, k); err == nil {
				inf.subst = sub
			}
			if sub, err := Unify(inf.subst, vt, v); err == nil {
				inf.subst = sub
			}
		}
		return &Map{Key: inf.subst.Apply(kt), Value: inf.subst.Apply(vt)}
	case *ast.RecordLit:
		return inf.inferRecordLit(env, ex)
	case *ast.FieldAccess:
		target := inf.subst.Apply(inf.inferExpr(env, ex.Target))
		if rec, ok := target.(*Record); ok {
			if ft, ok := rec.FieldType(ex.Field); ok {
				return ft
			}
			inf.bag.Add(herrors.New(herrors.TYP002, fmt.Sprintf("%s has no field %q", rec.Name, ex.Field)))
		}
		return inf.fresh.New()
	case *ast.IndexExpr:
		target := inf.subst.Apply(inf.inferExpr(env, ex.Target))
		inf.inferExpr(env, ex.Index)
		return inf.elemTypeOf(target)
	case *ast.BinaryExpr:
		return inf.inferBinary(env, ex)
	case *ast.UnaryExpr:
		t := inf.inferExpr(env, ex.Operand)
		return t
	case *ast.RangeExpr:
		inf.inferExpr(env, ex.Start)
		inf.inferExpr(env, ex.End)
		return &Prim{"range"}
	case *ast.Call:
		return inf.inferCall(env, ex.Callee, ex.Args)
	case *ast.PipeExpr:
		// Rule 3: `a | f(args...)` is treated as f(a, args...) for inference.
		args := append([]ast.Expr{ex.Source}, ex.Call.Args...)
		return inf.inferCall(env, ex.Call.Callee, args)
	case *ast.MethodCall:
		return inf.inferMethodCall(env, ex)
	case *ast.TryExpr:
		// `?` requires the enclosing function to return (T, Error); here
		// we surface the success-component type T of the operand.
		t := inf.subst.Apply(inf.inferExpr(env, ex.Operand))
		if opt, ok := t.(*Option); ok {
			return opt.Elem
		}
		return t
	case *ast.IfExpr:
		cond := inf.subst.Apply(inf.inferExpr(env, ex.Cond))
		if _, isOption := cond.(*Option); !isOption {
			if sub, err := Unify(inf.subst, Bool, cond); err == nil {
				inf.subst = sub
			}
		}
		thenEnv := NewEnv(env)
		thenT := inf.inferBlock(thenEnv, ex.Then)
		if ex.Else == nil {
			return Unit
		}
		elseEnv := NewEnv(env)
		elseT := inf.inferBlock(elseEnv, ex.Else)
		if sub, err := Unify(inf.subst, thenT, elseT); err == nil {
			inf.subst = sub
		}
		return thenT
	case *ast.MatchExpr:
		return inf.inferMatch(env, ex)
	case *ast.Block:
		return inf.inferBlock(NewEnv(env), ex.Stmts)
	}
	return inf.fresh.New()
}

func (inf *Infer) inferBinary(env *Env, ex *ast.BinaryExpr) Type {
	l := inf.inferExpr(env, ex.Left)
	r := inf.inferExpr(env, ex.Right)
	switch ex.Op {
	case ast.OpAnd, ast.OpOr:
		return Bool
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		if sub, err := Unify(inf.subst, l, r); err == nil {
			inf.subst = sub
		} else {
			inf.bag.Add(herrors.New(herrors.TYP004, err.Error()))
		}
		return Bool
	case ast.OpConcat:
		return String
	default: // + - * / %
		if sub, err := Unify(inf.subst, l, r); err == nil {
			inf.subst = sub
			return inf.subst.Apply(l)
		}
		inf.bag.Add(herrors.New(herrors.TYP004, fmt.Sprintf("%s %s %s: type mismatch", l, ex.Op, r)))
		return l
	}
}

// inferCall resolves a direct call: known signature ⇒ unify args and
// return the declared return type; unknown bare name ⇒ a fresh
// variable (the name is either still awaiting AI materialization, or
// will be reported as NameError by the resolver — not this package's
// job to re-diagnose names).
func (inf *Infer) inferCall(env *Env, callee ast.Expr, args []ast.Expr) Type {
	argTypes := make([]Type, len(args))
	for i, a := range args {
		argTypes[i] = inf.inferExpr(env, a)
	}
	id, ok := callee.(*ast.Identifier)
	if !ok {
		return inf.fresh.New()
	}
	sig, ok := inf.funcs[id.Name]
	if !ok {
		return inf.fresh.New()
	}
	if len(sig.Params) != len(argTypes) {
		inf.bag.Add(herrors.New(herrors.TYP001, fmt.Sprintf(
			"%s takes %d argument(s), got %d", id.Name, len(sig.Params), len(argTypes))))
		return sig.Return
	}
	for i, pt := range sig.Params {
		if sub, err := Unify(inf.subst, pt, argTypes[i]); err == nil {
			inf.subst = sub
		} else {
			inf.bag.Add(herrors.New(herrors.TYP004, fmt.Sprintf(
				"%s argument %d: %s", id.Name, i+1, err)))
		}
	}
	return inf.subst.Apply(sig.Return)
}

// inferMethodCall implements rule 4: resolve `T.m` first, falling back
// to any registered function whose first parameter's type is T.
func (inf *Infer) inferMethodCall(env *Env, ex *ast.MethodCall) Type {
	target := inf.subst.Apply(inf.inferExpr(env, ex.Target))
	args := make([]Type, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = inf.inferExpr(env, a)
	}
	qualified := typeName(target) + "." + ex.Method
	if sig, ok := inf.funcs[qualified]; ok {
		return inf.subst.Apply(sig.Return)
	}
	for _, sig := range inf.funcs {
		if len(sig.Params) == 0 {
			continue
		}
		if Equal(inf.subst.Apply(sig.Params[0]), target) {
			return inf.subst.Apply(sig.Return)
		}
	}
	inf.bag.Add(herrors.New(herrors.TYP003, fmt.Sprintf(
		"cannot infer a method %q on %s", ex.Method, target)))
	return inf.fresh.New()
}

func typeName(t Type) string {
	switch x := t.(type) {
	case *Record:
		return x.Name
	case *Union:
		return x.Name
	case *Prim:
		return x.Name
	default:
		return t.String()
	}
}

// inferRecordLit implements rule 2: the first time a record literal
// names an undeclared type, its shape is pinned down from that
// construction site; every subsequent literal for the same name must
// match the ordered field list exactly.
func (inf *Infer) inferRecordLit(env *Env, ex *ast.RecordLit) Type {
	fieldTypes := make([]Field, len(ex.Fields))
	for i, fi := range ex.Fields {
		fieldTypes[i] = Field{Name: fi.Name, Type: inf.inferExpr(env, fi.Value)}
	}
	existing, ok := inf.records[ex.TypeName]
	if !ok {
		rec := &Record{Name: ex.TypeName, Fields: fieldTypes}
		inf.records[ex.TypeName] = rec
		return rec
	}
	if len(existing.Fields) != len(fieldTypes) {
		inf.bag.Add(herrors.New(herrors.TYP001, fmt.Sprintf(
			"%s{...}: expected %d fields, got %d", ex.TypeName, len(existing.Fields), len(fieldTypes))))
		return existing
	}
	for i, f := range fieldTypes {
		if existing.Fields[i].Name != f.Name {
			inf.bag.Add(herrors.New(herrors.TYP002, fmt.Sprintf(
				"%s{...}: field %d is %q, expected %q", ex.TypeName, i, f.Name, existing.Fields[i].Name)))
			continue
		}
		if sub, err := Unify(inf.subst, existing.Fields[i].Type, f.Type); err == nil {
			inf.subst = sub
		} else {
			inf.bag.Add(herrors.New(herrors.TYP004, err.Error()))
		}
	}
	return existing
}

func (inf *Infer) inferMatch(env *Env, ex *ast.MatchExpr) Type {
	scrut := inf.subst.Apply(inf.inferExpr(env, ex.Scrutinee))
	var result Type = inf.fresh.New()
	for i, arm := range ex.Arms {
		armEnv := NewEnv(env)
		inf.bindPattern(armEnv, arm.Pattern, scrut)
		if arm.Guard != nil {
			inf.inferExpr(armEnv, arm.Guard)
		}
		armT := inf.inferBlock(armEnv, arm.Body)
		if i == 0 {
			result = armT
			continue
		}
		if sub, err := Unify(inf.subst, result, armT); err == nil {
			inf.subst = sub
		}
	}
	return inf.subst.Apply(result)
}

func (inf *Infer) bindPattern(env *Env, pat ast.Pattern, scrut Type) {
	switch p := pat.(type) {
	case *ast.VarPattern:
		env.Bind(p.Name, scrut)
	case *ast.ConstructorPattern:
		scrut = inf.subst.Apply(scrut)
		u, ok := scrut.(*Union)
		if !ok {
			return
		}
		v, ok := u.Variant(p.Variant)
		if !ok {
			inf.bag.Add(herrors.New(herrors.TYP002, fmt.Sprintf("%s has no variant %q", u.Name, p.Variant)))
			return
		}
		for i, arg := range p.Args {
			if i < len(v.Fields) {
				inf.bindPattern(env, arg, v.Fields[i].Type)
			}
		}
	}
}
