package symbols

import (
	"testing"

	"github.com/sunholo/haira/internal/ast"
)

func decl(name string) *ast.FuncDecl {
	return &ast.FuncDecl{Name: name, Body: []ast.Stmt{
		&ast.ExprStmt{X: &ast.Call{Callee: &ast.Identifier{Name: name}}},
	}}
}

func TestResolveLocalShadowing(t *testing.T) {
	f := &ast.File{Path: "a.haira", Decls: []ast.Decl{
		&ast.FuncDecl{
			Name:   "f",
			Params: []ast.Param{{Name: "x"}},
			Body: []ast.Stmt{
				&ast.LetStmt{Pattern: &ast.VarPattern{Name: "x"}, Value: &ast.IntLit{Value: 1}},
				&ast.ReturnStmt{Value: &ast.Identifier{Name: "x"}},
			},
		},
	}}
	_, _, diags := Resolve([]*ast.File{f})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestUnresolvedCallQueuedAsCandidate(t *testing.T) {
	f := &ast.File{Path: "a.haira", Decls: []ast.Decl{
		&ast.FuncDecl{Name: "main", Body: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Call{Callee: &ast.Identifier{Name: "get_answer"}}},
		}},
	}}
	_, candidates, diags := Resolve([]*ast.File{f})
	if len(diags) != 0 {
		t.Fatalf("expected no NameError, got %v", diags)
	}
	if len(candidates) != 1 || candidates[0].Name != "get_answer" {
		t.Fatalf("expected one candidate for get_answer, got %v", candidates)
	}
}

func TestUnresolvedNonCallIsNameError(t *testing.T) {
	f := &ast.File{Path: "a.haira", Decls: []ast.Decl{
		&ast.FuncDecl{Name: "main", Body: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.Identifier{Name: "nowhere"}},
		}},
	}}
	_, candidates, diags := Resolve([]*ast.File{f})
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %v", candidates)
	}
	if len(diags) != 1 || diags[0].Code != "NAM001" {
		t.Fatalf("expected one NAM001, got %v", diags)
	}
}

func TestAmbiguousProjectNameAcrossFiles(t *testing.T) {
	a := &ast.File{Path: "a.haira", Decls: []ast.Decl{decl("helper")}}
	b := &ast.File{Path: "b.haira", Decls: []ast.Decl{decl("helper")}}
	// a's and b's own calls resolve in their own module scope; a third
	// file's bare call sees two project-scope declarations.
	c := &ast.File{Path: "c.haira", Decls: []ast.Decl{
		&ast.FuncDecl{Name: "main", Body: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Call{Callee: &ast.Identifier{Name: "helper"}}},
		}},
	}}
	_, _, diags := Resolve([]*ast.File{a, b, c})
	found := false
	for _, d := range diags {
		if d.Code == "NAM002" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an AmbiguityError (NAM002), got %v", diags)
	}
}

func TestPrivateNameNotVisibleAcrossFiles(t *testing.T) {
	a := &ast.File{Path: "a.haira", Decls: []ast.Decl{decl("_helper")}}
	b := &ast.File{Path: "b.haira", Decls: []ast.Decl{
		&ast.FuncDecl{Name: "main", Body: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Call{Callee: &ast.Identifier{Name: "_helper"}}},
		}},
	}}
	_, candidates, _ := Resolve([]*ast.File{a, b})
	if len(candidates) != 1 {
		t.Fatalf("expected _helper to be unresolved (private to a.haira), routed to AI candidate; got %v", candidates)
	}
}

func TestRedefinitionWithinOneScope(t *testing.T) {
	f := &ast.File{Path: "a.haira", Decls: []ast.Decl{
		&ast.FuncDecl{Name: "f", Body: []ast.Stmt{
			&ast.LetStmt{Pattern: &ast.VarPattern{Name: "x"}, Value: &ast.IntLit{Value: 1}},
			&ast.LetStmt{Pattern: &ast.VarPattern{Name: "x"}, Value: &ast.IntLit{Value: 2}},
		}},
	}}
	_, _, diags := Resolve([]*ast.File{f})
	if len(diags) != 1 || diags[0].Code != "NAM003" {
		t.Fatalf("expected one NAM003 redefinition, got %v", diags)
	}
}
