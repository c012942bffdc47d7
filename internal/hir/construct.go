package hir

// Constructors for every HIR expression. internal/desugar and
// internal/hir's own materializer both build nodes exclusively
// through these functions rather than struct literals, because the
// shared `typed` embed is unexported by design (a lesson learned the
// hard way in internal/ast: an exported embed invites external
// packages to key it directly and then drift out of sync with the
// type it's promoting methods for).

func NewVar(typ, name string) *Var { return &Var{typed{typ}, name} }

func NewIntLit(typ string, v int64) *IntLit { return &IntLit{typed{typ}, v} }

func NewFloatLit(typ string, v float64) *FloatLit { return &FloatLit{typed{typ}, v} }

func NewBoolLit(typ string, v bool) *BoolLit { return &BoolLit{typed{typ}, v} }

func NewStringLit(typ string, v string) *StringLit { return &StringLit{typed{typ}, v} }

func NewUnitLit(typ string) *UnitLit { return &UnitLit{typed{typ}} }

func NewInterpString(typ string, parts []string, exprs []Expr) *InterpString {
	return &InterpString{typed{typ}, parts, exprs}
}

func NewListLit(typ string, elems []Expr) *ListLit { return &ListLit{typed{typ}, elems} }

func NewMapLit(typ string, entries []MapEntry) *MapLit { return &MapLit{typed{typ}, entries} }

func NewRecordLit(typ, typeName string, fields []FieldInit) *RecordLit {
	return &RecordLit{typed{typ}, typeName, fields}
}

func NewFieldAccess(typ string, recv Expr, field string) *FieldAccess {
	return &FieldAccess{typed{typ}, recv, field}
}

func NewIndexExpr(typ string, recv, index Expr) *IndexExpr {
	return &IndexExpr{typed{typ}, recv, index}
}

func NewCall(typ, callee string, args []Expr) *Call { return &Call{typed{typ}, callee, args} }

func NewBuiltinCall(typ, name string, args []Expr) *BuiltinCall {
	return &BuiltinCall{typed{typ}, name, args}
}

func NewLambda(typ string, params []string, body []Stmt) *Lambda {
	return &Lambda{typed{typ}, params, body}
}

func NewMethodCall(typ string, recv Expr, method string, args []Expr) *MethodCall {
	return &MethodCall{typed{typ}, recv, method, args}
}

func NewPipeExpr(typ string, value Expr, call *Call) *PipeExpr {
	return &PipeExpr{typed{typ}, value, call}
}

func NewRangeExpr(typ string, from, to Expr, inclusive bool) *RangeExpr {
	return &RangeExpr{typed{typ}, from, to, inclusive}
}

func NewBinaryExpr(typ, op string, left, right Expr) *BinaryExpr {
	return &BinaryExpr{typed{typ}, op, left, right}
}

func NewUnaryExpr(typ, op string, operand Expr) *UnaryExpr {
	return &UnaryExpr{typed{typ}, op, operand}
}

func NewIfExpr(typ string, cond Expr, then, els []Stmt) *IfExpr {
	return &IfExpr{typed{typ}, cond, then, els}
}

func NewMatchExpr(typ string, subject Expr, arms []MatchArm) *MatchExpr {
	return &MatchExpr{typed{typ}, subject, arms}
}

func NewTryExpr(typ string, value Expr) *TryExpr { return &TryExpr{typed{typ}, value} }
