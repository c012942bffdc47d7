package hir

import (
	"fmt"
	"sort"

	"github.com/sunholo/haira/internal/cir"
	"github.com/sunholo/haira/internal/herrors"
	"github.com/sunholo/haira/internal/types"
)

// transformBuiltins maps a CIR transform op to the stdlib builtin name
// it materializes to (spec §4.5's worked example: `Map{...}` → a call
// to `"list.map"`); every name except "file.read" is also in
// internal/symbols' stdlibNames table.
var transformBuiltins = map[cir.Op]string{
	cir.OpMap:     "list.map",
	cir.OpFilter:  "list.filter",
	cir.OpReduce:  "list.reduce",
	cir.OpGroupBy: "list.group_by",
	cir.OpSort:    "list.sort",
	cir.OpTake:    "list.take",
	cir.OpCount:   "list.count",
	cir.OpSum:     "list.sum",
	cir.OpMin:     "list.min",
	cir.OpMax:     "list.max",
	cir.OpAvg:     "list.avg",
	cir.OpFileRead: "file.read",
}

// materializer threads per-result-name type information through one
// function's CIR op list, the CIR-sourced analogue of lower.go's
// inf.TypeOfExpr(env, e) calls: each op's inputs reference an earlier
// op's Result by name, so the type of every produced node is
// synthesized structurally from its already-typed inputs rather than
// re-run through the unifier (there is no AST here to unify against).
type materializer struct {
	inf *types.Infer
	env map[string]types.Type
}

func (m *materializer) bind(name string, t types.Type) {
	if name != "" {
		m.env[name] = t
	}
}

func (m *materializer) varType(name string) types.Type {
	if t, ok := m.env[name]; ok {
		return t
	}
	return types.Unit
}

// exprType resolves e's canonical type string back to a types.Type,
// for expressions (nested If/Match branches) whose Typ was itself
// assigned from another call to exprType — lossy for composite shapes
// the same way CanonicalString round-tripping would be, but only ever
// used to give an enclosing branch expression a plausible type, not for
// the return-type safety check (which compares two types.Type values
// computed directly, never through this string hop).
func (m *materializer) exprType(e Expr) types.Type {
	return m.inf.FromTypeString(TypeOf(e))
}

// blockType is an HIR statement list's result type: the type of its
// trailing Let/ExprStmt/Return value, or unit for an empty or
// side-effect-only block.
func (m *materializer) blockType(stmts []Stmt) types.Type {
	if len(stmts) == 0 {
		return types.Unit
	}
	switch last := stmts[len(stmts)-1].(type) {
	case *Let:
		return m.exprType(last.Value)
	case *ExprStmt:
		return m.exprType(last.Value)
	case *Return:
		if last.Value == nil {
			return types.Unit
		}
		return m.exprType(last.Value)
	default:
		return types.Unit
	}
}

// Materialize lowers one validated CIR Function into an HIR Function —
// component E. The mapping from CIR op to HIR statement is injective:
// each op produces exactly one Let binding (or, for the op whose
// Result is "return", a Return statement), per spec §4.5. Record types
// introduced by Construct are returned separately so the caller can
// fold them into the module's type environment before subsequent
// inference, exactly as spec §4.5 requires.
//
// inf supplies the same declared record/union/function shapes
// RegisterDecls folded in for user-written code, so an AI-materialized
// function's Construct/Call/GetField ops resolve against the real
// program types instead of opaque placeholders — every produced
// Expr's type string is concrete by the time this returns, and the
// function's Return statements are checked against its declared
// ReturnType before it is handed back (spec §3, §4.5, §9: CIR is the
// safety boundary, so a body whose computed return type contradicts
// its signature is rejected here rather than reaching codegen).
func Materialize(fn *cir.Function, inf *types.Infer) (*Function, []cir.RecordSpec, *herrors.Diagnostic) {
	params := make([]Param, len(fn.Params))
	m := &materializer{inf: inf, env: map[string]types.Type{}}
	for i, p := range fn.Params {
		params[i] = Param{Name: p.Name, Type: p.Type}
		m.bind(p.Name, inf.FromTypeString(p.Type))
	}

	body, diag := m.ops(fn.Operations)
	if diag != nil {
		return nil, nil, diag
	}

	if diag := verifyReturnType(body, fn.ReturnType, inf); diag != nil {
		return nil, nil, diag
	}

	return &Function{
		Name: fn.Name, Params: params, ReturnType: fn.ReturnType, Body: body,
	}, fn.NewRecords, nil
}

// verifyReturnType is the check cir.validateTypeSafety's doc comment
// already promises happens here: every Return statement's materialized
// value type (computed structurally by the materializer above, not
// re-inferred) must equal the function's declared return type.
// ReturnType "unknown" (or unset) means the declaration itself deferred
// its return type, so there is nothing to check it against yet.
func verifyReturnType(body []Stmt, declared string, inf *types.Infer) *herrors.Diagnostic {
	if declared == "" || declared == "unknown" {
		return nil
	}
	want := inf.FromTypeString(declared)
	for _, ret := range collectReturns(body) {
		if ret.Value == nil {
			continue
		}
		got := inf.FromTypeString(TypeOf(ret.Value))
		if !types.Equal(want, got) {
			return herrors.New(herrors.CIR002, fmt.Sprintf(
				"return type mismatch: declared %s, materialized value has type %s", declared, TypeOf(ret.Value)))
		}
	}
	return nil
}

// collectReturns walks every Return reachable from body, including
// ones nested inside If/Match branches and Loop bodies — CIR's If/Match
// ops can carry an early "return" result in either arm, not just the
// function's trailing operation.
func collectReturns(body []Stmt) []*Return {
	var out []*Return
	for _, s := range body {
		switch st := s.(type) {
		case *Return:
			out = append(out, st)
		case *Loop:
			out = append(out, collectReturns(st.Body)...)
		case *Let:
			out = append(out, collectReturnsInExpr(st.Value)...)
		case *ExprStmt:
			out = append(out, collectReturnsInExpr(st.Value)...)
		}
	}
	return out
}

func collectReturnsInExpr(e Expr) []*Return {
	switch ex := e.(type) {
	case *IfExpr:
		var out []*Return
		out = append(out, collectReturns(ex.Then)...)
		out = append(out, collectReturns(ex.Else)...)
		return out
	case *MatchExpr:
		var out []*Return
		for _, arm := range ex.Arms {
			out = append(out, collectReturns(arm.Body)...)
		}
		return out
	}
	return nil
}

func (m *materializer) ops(ops []cir.Operation) ([]Stmt, *herrors.Diagnostic) {
	var out []Stmt
	for _, op := range ops {
		stmt, expr, t, diag := m.one(op)
		if diag != nil {
			return nil, diag
		}
		if op.Result != "" {
			m.bind(op.Result, t)
		}
		if op.Result == "return" {
			out = append(out, &Return{Value: expr})
			continue
		}
		if stmt != nil {
			out = append(out, stmt)
		} else {
			out = append(out, &Let{Name: op.Result, Value: expr})
		}
	}
	return out, nil
}

// one returns either a ready-made Stmt (for ops whose natural form
// isn't "bind an expression to Result", namely Loop in this release —
// SetField still produces a value) or an Expr to be wrapped in a
// Let/Return by the caller, plus that expression's synthesized type so
// the caller can bind it under op.Result for later ops to reference.
func (m *materializer) one(op cir.Operation) (Stmt, Expr, types.Type, *herrors.Diagnostic) {
	switch op.Op {
	case cir.OpLiteral:
		e := materializeLiteral(op)
		return nil, e, m.inf.FromTypeString(TypeOf(e)), nil

	case cir.OpBinaryOp:
		operator, _ := op.Fields["operator"].(string)
		lt := m.varType(op.Inputs["left"])
		rt := m.varType(op.Inputs["right"])
		t := binaryResultType(operator, lt)
		return nil, NewBinaryExpr(t.String(), operator,
			NewVar(lt.String(), op.Inputs["left"]), NewVar(rt.String(), op.Inputs["right"])), t, nil

	case cir.OpUnaryOp:
		operator, _ := op.Fields["operator"].(string)
		ot := m.varType(op.Inputs["operand"])
		t := ot
		if operator == OpNot {
			t = types.Bool
		}
		return nil, NewUnaryExpr(t.String(), operator, NewVar(ot.String(), op.Inputs["operand"])), t, nil

	case cir.OpGetField:
		field, _ := op.Fields["field"].(string)
		st := m.varType(op.Inputs["subject"])
		ft := fieldType(st, field)
		return nil, NewFieldAccess(ft.String(), NewVar(st.String(), op.Inputs["subject"]), field), ft, nil

	case cir.OpGetIndex:
		st := m.varType(op.Inputs["subject"])
		it := m.varType(op.Inputs["index"])
		et := elemType(st)
		return nil, NewIndexExpr(et.String(), NewVar(st.String(), op.Inputs["subject"]),
			NewVar(it.String(), op.Inputs["index"])), et, nil

	case cir.OpSetField:
		field, _ := op.Fields["field"].(string)
		st := m.varType(op.Inputs["subject"])
		vt := m.varType(op.Inputs["value"])
		return nil, NewBuiltinCall(st.String(), "record.set_field",
			[]Expr{NewVar(st.String(), op.Inputs["subject"]), NewStringLit("string", field),
				NewVar(vt.String(), op.Inputs["value"])}), st, nil

	case cir.OpConstruct:
		typeName, _ := op.Fields["type"].(string)
		names := sortedInputNames(op.Inputs)
		fields := make([]FieldInit, 0, len(names))
		for _, n := range names {
			ft := m.varType(op.Inputs[n])
			fields = append(fields, FieldInit{Name: n, Value: NewVar(ft.String(), op.Inputs[n])})
		}
		rt := m.inf.FromTypeString(typeName)
		return nil, NewRecordLit(rt.String(), typeName, fields), rt, nil

	case cir.OpCreateList:
		names := sortedInputNames(op.Inputs)
		elems := make([]Expr, len(names))
		elemT := types.Type(types.Unit)
		for i, n := range names {
			et := m.varType(op.Inputs[n])
			if i == 0 {
				elemT = et
			}
			elems[i] = NewVar(et.String(), op.Inputs[n])
		}
		lt := &types.List{Elem: elemT}
		return nil, NewListLit(lt.String(), elems), lt, nil

	case cir.OpCreateMap:
		names := sortedInputNames(op.Inputs)
		entries := make([]MapEntry, len(names))
		valT := types.Type(types.Unit)
		for i, n := range names {
			vt := m.varType(op.Inputs[n])
			if i == 0 {
				valT = vt
			}
			entries[i] = MapEntry{Key: NewStringLit("string", n), Value: NewVar(vt.String(), op.Inputs[n])}
		}
		mt := &types.Map{Key: types.String, Value: valT}
		return nil, NewMapLit(mt.String(), entries), mt, nil

	case cir.OpCall:
		callee, _ := op.Fields["callee"].(string)
		names := sortedInputNames(op.Inputs)
		args := make([]Expr, len(names))
		for i, n := range names {
			at := m.varType(op.Inputs[n])
			args[i] = NewVar(at.String(), op.Inputs[n])
		}
		rt := types.Type(types.Unit)
		if sig, ok := m.inf.FuncSignature(callee); ok {
			rt = sig.Return
		}
		return nil, NewCall(rt.String(), callee, args), rt, nil

	case cir.OpIf:
		thenBody, d := m.ops(op.Nested["then"])
		if d != nil {
			return nil, nil, nil, d
		}
		elseBody, d := m.ops(op.Nested["else"])
		if d != nil {
			return nil, nil, nil, d
		}
		ct := m.varType(op.Inputs["condition"])
		t := m.blockType(thenBody)
		return nil, NewIfExpr(t.String(), NewVar(ct.String(), op.Inputs["condition"]), thenBody, elseBody), t, nil

	case cir.OpLoop:
		body, d := m.ops(op.Nested["body"])
		if d != nil {
			return nil, nil, nil, d
		}
		return &Loop{Body: body}, nil, types.Unit, nil

	case cir.OpMatch:
		return m.match(op)

	case cir.OpFileRead:
		builtin := transformBuiltins[cir.OpFileRead]
		pt := m.varType(op.Inputs["path"])
		return nil, NewBuiltinCall("string", builtin, []Expr{NewVar(pt.String(), op.Inputs["path"])}), types.String, nil

	case cir.OpMap, cir.OpFilter, cir.OpReduce, cir.OpGroupBy, cir.OpSort, cir.OpTake,
		cir.OpCount, cir.OpSum, cir.OpMin, cir.OpMax, cir.OpAvg:
		return m.transform(op)

	default:
		return nil, nil, nil, herrors.New(herrors.CIR001, fmt.Sprintf(
			"internal/hir: op %q has no materialization rule (effect-gated ops never reach here)", op.Op))
	}
}

// binaryResultType mirrors types.Infer.inferBinary's per-operator
// result rule (comparisons and boolean ops always yield bool, ++
// always yields string, arithmetic keeps the left operand's type)
// without re-running unification, since both operands are already
// concretely typed by the time a materialized BinaryOp is reached.
func binaryResultType(operator string, left types.Type) types.Type {
	switch operator {
	case OpAnd, OpOr, OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return types.Bool
	case "++":
		return types.String
	default: // + - * / %
		return left
	}
}

func fieldType(t types.Type, field string) types.Type {
	if r, ok := t.(*types.Record); ok {
		if ft, ok := r.FieldType(field); ok {
			return ft
		}
	}
	return types.Unit
}

func materializeLiteral(op cir.Operation) Expr {
	v := op.Fields["value"]
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return NewIntLit("int", int64(val))
		}
		return NewFloatLit("float", val)
	case bool:
		return NewBoolLit("bool", val)
	case string:
		return NewStringLit("string", val)
	case nil:
		return NewUnitLit("unit")
	default:
		return NewUnitLit("unit")
	}
}

// transform builds a BuiltinCall whose last argument is a Lambda
// materialized from the op's nested "transform" body — the worked
// example in spec §4.5 for Map, generalized to every list builtin that
// takes a callback. The lambda body is materialized under its own
// child environment (its "it" parameter bound to the source's element
// type) so references to "it" inside the callback resolve correctly.
func (m *materializer) transform(op cir.Operation) (Stmt, Expr, types.Type, *herrors.Diagnostic) {
	builtin, ok := transformBuiltins[op.Op]
	if !ok {
		return nil, nil, nil, herrors.New(herrors.CIR001, fmt.Sprintf("unmapped transform op %q", op.Op))
	}
	srcT := m.varType(op.Inputs["source"])
	args := []Expr{NewVar(srcT.String(), op.Inputs["source"])}

	elemT := elemType(srcT)
	lambdaRet := elemT
	if nested, ok := op.Nested["transform"]; ok {
		lm := &materializer{inf: m.inf, env: childEnv(m.env, map[string]types.Type{"it": elemT})}
		body, d := lm.ops(nested)
		if d != nil {
			return nil, nil, nil, d
		}
		lambdaRet = lm.blockType(body)
		args = append(args, NewLambda(lambdaRet.String(), []string{"it"}, body))
	}
	if by, ok := op.Fields["by"].(string); ok && by != "" {
		args = append(args, NewStringLit("string", by))
	}

	resultType := transformResultType(op.Op, srcT, elemT, lambdaRet)
	return nil, NewBuiltinCall(resultType.String(), builtin, args), resultType, nil
}

// transformResultType gives every list-builtin transform op the shape
// its stdlib counterpart actually returns (spec §4.6's builtin table):
// Map changes the element type, Filter/Sort/Take keep the source's
// shape, Reduce yields its accumulator, Count is always int, Avg is
// always float, Sum/Min/Max keep the source's element type.
func transformResultType(op cir.Op, source, elem, lambdaRet types.Type) types.Type {
	switch op {
	case cir.OpMap:
		return &types.List{Elem: lambdaRet}
	case cir.OpFilter, cir.OpSort, cir.OpTake:
		return source
	case cir.OpGroupBy:
		return &types.Map{Key: types.String, Value: &types.List{Elem: elem}}
	case cir.OpReduce:
		return lambdaRet
	case cir.OpCount:
		return types.Int
	case cir.OpSum, cir.OpMin, cir.OpMax:
		return elem
	case cir.OpAvg:
		return types.Float
	default:
		return types.Unit
	}
}

func (m *materializer) match(op cir.Operation) (Stmt, Expr, types.Type, *herrors.Diagnostic) {
	armNames := make([]string, 0, len(op.Nested))
	for k := range op.Nested {
		if k == "subject" {
			continue
		}
		armNames = append(armNames, k)
	}
	sort.Strings(armNames)

	arms := make([]MatchArm, 0, len(armNames))
	var resultType types.Type = types.Unit
	for i, variant := range armNames {
		body, d := m.ops(op.Nested[variant])
		if d != nil {
			return nil, nil, nil, d
		}
		if i == 0 {
			resultType = m.blockType(body)
		}
		arms = append(arms, MatchArm{VariantName: variant, Body: body})
	}
	st := m.varType(op.Inputs["subject"])
	return nil, NewMatchExpr(resultType.String(), NewVar(st.String(), op.Inputs["subject"]), arms), resultType, nil
}

// childEnv copies parent and overlays extra, for a nested lambda/arm
// scope that should see every outer binding plus its own parameters.
func childEnv(parent, extra map[string]types.Type) map[string]types.Type {
	out := make(map[string]types.Type, len(parent)+len(extra))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func sortedInputNames(inputs map[string]string) []string {
	names := make([]string, 0, len(inputs))
	for n := range inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
