package types

import (
	"testing"

	"github.com/sunholo/haira/internal/ast"
)

func TestUnifyPrimMismatch(t *testing.T) {
	_, err := Unify(Subst{}, Int, String)
	if err == nil {
		t.Fatal("expected a unify error for int vs string")
	}
}

func TestUnifyOccursCheck(t *testing.T) {
	v := &Var{ID: 1}
	list := &List{Elem: v}
	_, err := Unify(Subst{}, v, list)
	if err == nil {
		t.Fatal("expected occurs-check failure for t1 = [t1]")
	}
}

func TestInferArithmeticFunction(t *testing.T) {
	f := &ast.File{Path: "a.haira", Decls: []ast.Decl{
		&ast.FuncDecl{
			Name: "add",
			Params: []ast.Param{
				{Name: "a", Type: &ast.NamedType{Name: "int"}},
				{Name: "b", Type: &ast.NamedType{Name: "int"}},
			},
			ReturnType: &ast.NamedType{Name: "int"},
			Body: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.BinaryExpr{
					Op:    ast.OpAdd,
					Left:  &ast.Identifier{Name: "a"},
					Right: &ast.Identifier{Name: "b"},
				}},
			},
		},
	}}
	inf := NewInfer()
	inf.RegisterDecls([]*ast.File{f})
	inf.InferFile(f)
	if len(inf.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", inf.Diagnostics())
	}
}

func TestInferReturnMismatch(t *testing.T) {
	f := &ast.File{Path: "a.haira", Decls: []ast.Decl{
		&ast.FuncDecl{
			Name:       "bad",
			ReturnType: &ast.NamedType{Name: "int"},
			Body: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.StringLit{Value: "oops"}},
			},
		},
	}}
	inf := NewInfer()
	inf.RegisterDecls([]*ast.File{f})
	inf.InferFile(f)
	if len(inf.Diagnostics()) == 0 {
		t.Fatal("expected a TypeError for int vs string return")
	}
}

func TestRecordLitPinsShapeAtFirstSite(t *testing.T) {
	inf := NewInfer()
	env := NewEnv(nil)
	lit1 := &ast.RecordLit{TypeName: "Point", Fields: []ast.FieldInit{
		{Name: "x", Value: &ast.IntLit{Value: 1}},
		{Name: "y", Value: &ast.IntLit{Value: 2}},
	}}
	t1 := inf.inferExpr(env, lit1)
	if _, ok := t1.(*Record); !ok {
		t.Fatalf("expected *Record, got %T", t1)
	}

	lit2 := &ast.RecordLit{TypeName: "Point", Fields: []ast.FieldInit{
		{Name: "x", Value: &ast.IntLit{Value: 3}},
	}}
	inf.inferExpr(env, lit2)
	if len(inf.Diagnostics()) == 0 {
		t.Fatal("expected an arity diagnostic for a mismatched second construction site")
	}
}

func TestMethodCallStructuralDispatch(t *testing.T) {
	pointDecl := &ast.RecordDecl{Name: "Point", Fields: []ast.FieldDecl{
		{Name: "x", Type: &ast.NamedType{Name: "int"}},
		{Name: "y", Type: &ast.NamedType{Name: "int"}},
	}}
	sumDecl := &ast.FuncDecl{
		Name:       "sum",
		Params:     []ast.Param{{Name: "p", Type: &ast.NamedType{Name: "Point"}}},
		ReturnType: &ast.NamedType{Name: "int"},
		Body: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:    ast.OpAdd,
				Left:  &ast.FieldAccess{Target: &ast.Identifier{Name: "p"}, Field: "x"},
				Right: &ast.FieldAccess{Target: &ast.Identifier{Name: "p"}, Field: "y"},
			}},
		},
	}
	f := &ast.File{Path: "a.haira", Decls: []ast.Decl{pointDecl, sumDecl}}
	inf := NewInfer()
	inf.RegisterDecls([]*ast.File{f})
	inf.InferFile(f)

	env := NewEnv(nil)
	env.Bind("pt", inf.records["Point"])
	call := &ast.MethodCall{Target: &ast.Identifier{Name: "pt"}, Method: "sum"}
	result := inf.inferExpr(env, call)
	if !Equal(inf.Substitution().Apply(result), Int) {
		t.Fatalf("expected structural dispatch to sum(p Point) -> int, got %s", result)
	}
}
