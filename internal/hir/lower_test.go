package hir

import (
	"testing"

	"github.com/sunholo/haira/internal/ast"
	"github.com/sunholo/haira/internal/types"
)

func TestLowerStraightLineFunction(t *testing.T) {
	fd := &ast.FuncDecl{
		Name:       "add",
		Params:     []ast.Param{{Name: "a", Type: &ast.NamedType{Name: "int"}}, {Name: "b", Type: &ast.NamedType{Name: "int"}}},
		ReturnType: &ast.NamedType{Name: "int"},
		Body: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: ast.OpAdd,
				Left:  &ast.Identifier{Name: "a"},
				Right: &ast.Identifier{Name: "b"}}},
		},
	}
	env := types.NewEnv(nil)
	env.Bind("a", types.Int)
	env.Bind("b", types.Int)
	inf := types.NewInfer()

	fn := Lower(fd, inf, env)
	if fn.Name != "add" || fn.ReturnType != "int" {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	if len(fn.Params) != 2 || fn.Params[0].Type != "int" {
		t.Fatalf("expected both params typed int, got %+v", fn.Params)
	}
	ret, ok := fn.Body[0].(*Return)
	if !ok {
		t.Fatalf("expected a Return statement, got %T", fn.Body[0])
	}
	bin, ok := ret.Value.(*BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected a '+' BinaryExpr, got %+v", ret.Value)
	}
}

func TestLowerIfExprBranchesGetIndependentEnvs(t *testing.T) {
	fd := &ast.FuncDecl{
		Name: "choose",
		Params: []ast.Param{{Name: "cond", Type: &ast.NamedType{Name: "bool"}}},
		ReturnType: &ast.NamedType{Name: "int"},
		Body: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.IfExpr{
				Cond: &ast.Identifier{Name: "cond"},
				Then: []ast.Stmt{&ast.ExprStmt{X: &ast.IntLit{Value: 1}}},
				Else: []ast.Stmt{&ast.ExprStmt{X: &ast.IntLit{Value: 2}}},
			}},
		},
	}
	env := types.NewEnv(nil)
	env.Bind("cond", types.Bool)
	inf := types.NewInfer()

	fn := Lower(fd, inf, env)
	ret := fn.Body[0].(*Return)
	ifExpr, ok := ret.Value.(*IfExpr)
	if !ok {
		t.Fatalf("expected IfExpr, got %T", ret.Value)
	}
	if len(ifExpr.Then) != 1 || len(ifExpr.Else) != 1 {
		t.Fatalf("expected one statement per branch, got then=%d else=%d", len(ifExpr.Then), len(ifExpr.Else))
	}
}
