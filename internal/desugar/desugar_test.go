package desugar

import (
	"testing"

	"github.com/sunholo/haira/internal/hir"
)

func fn(body ...hir.Stmt) *hir.Function {
	return &hir.Function{Name: "f", ReturnType: "unit", Body: body}
}

func TestDesugarInterpolation(t *testing.T) {
	s := hir.NewInterpString("string", []string{"hi ", ""}, []hir.Expr{hir.NewVar("int", "x")})
	out := Desugar(fn(&hir.Return{Value: s}))
	ret := out.Body[0].(*hir.Return)
	call, ok := ret.Value.(*hir.BuiltinCall)
	if !ok || call.Name != "string.concat" {
		t.Fatalf("expected a string.concat chain, got %#v", ret.Value)
	}
}

func TestDesugarPipe(t *testing.T) {
	call := hir.NewCall("int", "inc", nil)
	p := hir.NewPipeExpr("int", hir.NewIntLit("int", 1), call)
	out := Desugar(fn(&hir.Return{Value: p}))
	ret := out.Body[0].(*hir.Return)
	got, ok := ret.Value.(*hir.Call)
	if !ok || got.Callee != "inc" || len(got.Args) != 1 {
		t.Fatalf("expected inc(1), got %#v", ret.Value)
	}
}

func TestDesugarRange(t *testing.T) {
	r := hir.NewRangeExpr("iterator", hir.NewIntLit("int", 0), hir.NewIntLit("int", 10), true)
	out := Desugar(fn(&hir.Return{Value: r}))
	ret := out.Body[0].(*hir.Return)
	call, ok := ret.Value.(*hir.BuiltinCall)
	if !ok || call.Name != "range.inclusive" {
		t.Fatalf("expected range.inclusive, got %#v", ret.Value)
	}
}

func TestDesugarMethodCallUsesStaticReceiverType(t *testing.T) {
	m := hir.NewMethodCall("int", hir.NewVar("Point", "p"), "magnitude", nil)
	out := Desugar(fn(&hir.Return{Value: m}))
	ret := out.Body[0].(*hir.Return)
	call, ok := ret.Value.(*hir.Call)
	if !ok || call.Callee != "Point::magnitude" {
		t.Fatalf("expected Point::magnitude(p), got %#v", ret.Value)
	}
}

func TestDesugarMatchBuildsOrderedDecisionTree(t *testing.T) {
	match := hir.NewMatchExpr("int", hir.NewVar("Shape", "s"), []hir.MatchArm{
		{VariantName: "Circle", Body: []hir.Stmt{&hir.Return{Value: hir.NewIntLit("int", 1)}}},
		{VariantName: "Square", Body: []hir.Stmt{&hir.Return{Value: hir.NewIntLit("int", 2)}}},
	})
	out := Desugar(fn(&hir.ExprStmt{Value: match}))
	top, ok := out.Body[0].(*hir.ExprStmt).Value.(*hir.IfExpr)
	if !ok {
		t.Fatalf("expected top-level IfExpr, got %#v", out.Body[0])
	}
	tagEq, ok := top.Cond.(*hir.BinaryExpr)
	if !ok || tagEq.Op != hir.OpEq {
		t.Fatalf("expected a tag-equality condition, got %#v", top.Cond)
	}
}

func TestDesugarTryRewritesToEarlyReturn(t *testing.T) {
	try := hir.NewTryExpr("int", hir.NewCall("result", "risky", nil))
	out := Desugar(fn(&hir.Let{Name: "v", Value: try}, &hir.Return{Value: hir.NewVar("int", "v")}))
	if len(out.Body) < 2 {
		t.Fatalf("expected the try to expand into multiple statements, got %d", len(out.Body))
	}
	foundGuard := false
	for _, s := range out.Body {
		if _, ok := s.(*hir.IfStmt); ok {
			foundGuard = true
		}
	}
	if !foundGuard {
		t.Fatal("expected an IfStmt guarding the early return")
	}
}
