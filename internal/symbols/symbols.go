// Package symbols implements the Symbol & Scope Resolver (component A):
// it walks a parsed program's files, builds the scope DAG, and resolves
// every identifier reference against it. Grounded on the teacher's
// arena-of-scopes resolver shape (symbol table as a flat indexed vector,
// not a pointer tree), adapted to Haira's file/project/dependency
// resolution order.
package symbols

import (
	"fmt"
	"strings"

	"github.com/sunholo/haira/internal/ast"
	"github.com/sunholo/haira/internal/herrors"
)

// Kind is the closed set of symbol kinds.
type Kind string

const (
	KindLocal     Kind = "local"
	KindParameter Kind = "parameter"
	KindFunction  Kind = "function"
	KindType      Kind = "type"
	KindField     Kind = "field"
	KindAIFunc    Kind = "ai-function"
	KindGenerated Kind = "generated"
)

// Visibility is the closed set of symbol visibilities.
type Visibility string

const (
	VisFilePrivate Visibility = "file-private"
	VisProject     Visibility = "project"
	VisPublic      Visibility = "public"
)

// Symbol is one declared name.
type Symbol struct {
	Name       string
	Kind       Kind
	Pos        ast.Pos
	Visibility Visibility
	File       string // declaring file path, used for file-private lookup and dir.file.name qualification
	Decl       ast.Decl
}

// ScopeKind is the closed set of scope kinds.
type ScopeKind string

const (
	ScopeModule   ScopeKind = "module"
	ScopeFunction ScopeKind = "function"
	ScopeBlock    ScopeKind = "block"
	ScopeLoop     ScopeKind = "loop"
	ScopeMatchArm ScopeKind = "match-arm"
)

// noParent marks a scope with no enclosing scope (the module scope).
const noParent = -1

// scope is one entry in the Table's scope arena. Shadowing is permitted:
// a lookup walks Parent chains and the first hit wins.
type scope struct {
	kind   ScopeKind
	parent int
	names  map[string]*Symbol
	order  []string
}

// Table is the resolved symbol graph: a flat, indexed arena of scopes so
// closures capturing outer scopes share structure without cyclic
// ownership (teacher's arena-not-tree rationale, spec §9).
type Table struct {
	scopes []*scope
}

func NewTable() *Table { return &Table{} }

func (t *Table) push(kind ScopeKind, parent int) int {
	t.scopes = append(t.scopes, &scope{kind: kind, parent: parent, names: map[string]*Symbol{}})
	return len(t.scopes) - 1
}

// Declare inserts sym into scopeID's own names, failing with
// RedefinitionError if the name is already present in THIS scope
// (shadowing an outer scope is fine; redeclaring within one scope is not).
func (t *Table) Declare(scopeID int, sym *Symbol) error {
	s := t.scopes[scopeID]
	if existing, ok := s.names[sym.Name]; ok {
		return herrors.New(herrors.NAM003,
			fmt.Sprintf("%q redeclared in this scope (previously declared at %s)", sym.Name, existing.Pos)).
			At(herrors.Span{File: sym.File, Line: sym.Pos.Line, Column: sym.Pos.Column})
	}
	s.names[sym.Name] = sym
	s.order = append(s.order, sym.Name)
	return nil
}

// Lookup walks scopeID and its ancestors, returning the first match.
func (t *Table) Lookup(scopeID int, name string) (*Symbol, bool) {
	for id := scopeID; id != noParent; {
		s := t.scopes[id]
		if sym, ok := s.names[name]; ok {
			return sym, true
		}
		id = s.parent
	}
	return nil, false
}

// Candidate is an unresolved call site queued for the AI Intent Engine
// (spec §4.1): a bare-identifier callee that resolution could not find
// anywhere in the lookup chain.
type Candidate struct {
	Name string
	Call *ast.Call
	File string
	Args []ast.Expr
}

// Resolver runs the resolution pass described in spec §4.1.
type Resolver struct {
	table   *Table
	module  int
	project map[string][]*Symbol // name -> every project-visible (non-private) declaration across files, for ambiguity detection
	byPath  map[string]*Symbol   // "dir.file.name" -> symbol, for explicit qualification
	stdlib  map[string]bool      // builtin names always resolvable, never ambiguous

	bag        herrors.Bag
	candidates []*Candidate
}

// stdlibNames are the always-resolvable builtin call targets HIR
// desugaring lowers onto directly (string interpolation's to_string,
// list/map builtins materialized from CIR ops in (E)).
var stdlibNames = []string{
	"print", "println", "to_string",
	"list.map", "list.filter", "list.reduce", "list.sort", "list.take", "list.count",
	"list.sum", "list.min", "list.max", "list.avg", "list.group_by",
}

func New() *Resolver {
	r := &Resolver{
		table:   NewTable(),
		project: map[string][]*Symbol{},
		byPath:  map[string]*Symbol{},
		stdlib:  map[string]bool{},
	}
	r.module = r.table.push(ScopeModule, noParent)
	for _, n := range stdlibNames {
		r.stdlib[n] = true
	}
	return r
}

func (r *Resolver) Table() *Table               { return r.table }
func (r *Resolver) Candidates() []*Candidate     { return r.candidates }
func (r *Resolver) Diagnostics() []*herrors.Diagnostic { return r.bag.All() }

func dirFile(path string) (dir, file string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", strings.TrimSuffix(path, ".haira")
	}
	return path[:idx], strings.TrimSuffix(path[idx+1:], ".haira")
}

// declTop registers one top-level declaration's symbol, at both the
// file-private scope (always) and, unless private, the project-wide
// ambiguity index and qualified-path index.
func (r *Resolver) declTop(fileScope int, file string, name string, pos ast.Pos, kind Kind, decl ast.Decl) {
	private := strings.HasPrefix(name, "_")
	vis := VisProject
	if private {
		vis = VisFilePrivate
	}
	sym := &Symbol{Name: name, Kind: kind, Pos: pos, Visibility: vis, File: file, Decl: decl}
	if err := r.table.Declare(fileScope, sym); err != nil {
		r.bag.Add(err.(*herrors.Diagnostic))
		return
	}
	if private {
		return
	}
	r.project[name] = append(r.project[name], sym)
	dir, fstem := dirFile(file)
	r.byPath[dir+"."+fstem+"."+name] = sym
}

// Resolve runs the full pass over every file: declare top-level symbols,
// then resolve every reference within every function/ai body.
func Resolve(files []*ast.File) (*Table, []*Candidate, []*herrors.Diagnostic) {
	r := New()

	fileScopes := make(map[string]int, len(files))
	for _, f := range files {
		fileScopes[f.Path] = r.table.push(ScopeModule, r.module)
	}

	for _, f := range files {
		fs := fileScopes[f.Path]
		for _, d := range f.Decls {
			switch decl := d.(type) {
			case *ast.FuncDecl:
				r.declTop(fs, f.Path, decl.Name, decl.Pos, KindFunction, decl)
			case *ast.AiDecl:
				r.declTop(fs, f.Path, decl.Name, decl.Pos, KindAIFunc, decl)
			case *ast.RecordDecl:
				r.declTop(fs, f.Path, decl.Name, decl.Pos, KindType, decl)
			case *ast.UnionDecl:
				r.declTop(fs, f.Path, decl.Name, decl.Pos, KindType, decl)
			}
		}
	}

	for _, f := range files {
		fs := fileScopes[f.Path]
		for _, d := range f.Decls {
			switch decl := d.(type) {
			case *ast.FuncDecl:
				r.resolveFunc(fs, f.Path, decl.Params, decl.Body)
			}
		}
	}

	return r.table, r.candidates, r.bag.All()
}

func (r *Resolver) resolveFunc(parent int, file string, params []ast.Param, body []ast.Stmt) {
	fnScope := r.table.push(ScopeFunction, parent)
	for _, p := range params {
		sym := &Symbol{Name: p.Name, Kind: KindParameter, Visibility: VisFilePrivate, File: file}
		if err := r.table.Declare(fnScope, sym); err != nil {
			r.bag.Add(err.(*herrors.Diagnostic))
		}
	}
	r.resolveBlock(fnScope, file, body)
}

func (r *Resolver) resolveBlock(parent int, file string, stmts []ast.Stmt) {
	blockScope := r.table.push(ScopeBlock, parent)
	for _, s := range stmts {
		r.resolveStmt(blockScope, file, s)
	}
}

func (r *Resolver) resolveStmt(scopeID int, file string, s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		r.resolveExpr(scopeID, file, st.Value)
		r.declarePattern(scopeID, file, st.Pattern)
	case *ast.ExprStmt:
		r.resolveExpr(scopeID, file, st.X)
	case *ast.ReturnStmt:
		if st.Value != nil {
			r.resolveExpr(scopeID, file, st.Value)
		}
	case *ast.AssignStmt:
		r.resolveExpr(scopeID, file, st.Target)
		r.resolveExpr(scopeID, file, st.Value)
	case *ast.ForStmt:
		r.resolveExpr(scopeID, file, st.Iter)
		loopScope := r.table.push(ScopeLoop, scopeID)
		r.declarePattern(loopScope, file, st.Pattern)
		for _, inner := range st.Body {
			r.resolveStmt(loopScope, file, inner)
		}
	case *ast.BreakStmt:
		// nothing to resolve
	}
}

func (r *Resolver) declarePattern(scopeID int, file string, pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.VarPattern:
		sym := &Symbol{Name: p.Name, Kind: KindLocal, Pos: p.Pos, Visibility: VisFilePrivate, File: file}
		if err := r.table.Declare(scopeID, sym); err != nil {
			r.bag.Add(err.(*herrors.Diagnostic))
		}
	case *ast.ConstructorPattern:
		for _, sub := range p.Args {
			r.declarePattern(scopeID, file, sub)
		}
	}
}

// resolveExpr walks expression nodes, resolving every Identifier and
// QualifiedIdentifier leaf. Unresolved bare-identifier callees become
// Candidates; every other unresolved reference is a NameError.
func (r *Resolver) resolveExpr(scopeID int, file string, e ast.Expr) {
	switch ex := e.(type) {
	case *ast.Identifier:
		r.resolveName(scopeID, file, ex)
	case *ast.QualifiedIdentifier:
		key := ex.Dir + "." + ex.File + "." + ex.Name
		if _, ok := r.byPath[key]; !ok {
			r.bag.Add(herrors.New(herrors.NAM001, fmt.Sprintf("unresolved qualified name %q", key)).
				At(herrors.Span{File: file, Line: ex.Pos.Line, Column: ex.Pos.Column}))
		}
	case *ast.BinaryExpr:
		r.resolveExpr(scopeID, file, ex.Left)
		r.resolveExpr(scopeID, file, ex.Right)
	case *ast.UnaryExpr:
		r.resolveExpr(scopeID, file, ex.Operand)
	case *ast.Call:
		r.resolveCall(scopeID, file, ex)
	case *ast.MethodCall:
		r.resolveExpr(scopeID, file, ex.Target)
		for _, a := range ex.Args {
			r.resolveExpr(scopeID, file, a)
		}
	case *ast.PipeExpr:
		r.resolveExpr(scopeID, file, ex.Source)
		r.resolveCall(scopeID, file, ex.Call)
	case *ast.FieldAccess:
		r.resolveExpr(scopeID, file, ex.Target)
	case *ast.IndexExpr:
		r.resolveExpr(scopeID, file, ex.Target)
		r.resolveExpr(scopeID, file, ex.Index)
	case *ast.RangeExpr:
		r.resolveExpr(scopeID, file, ex.Start)
		r.resolveExpr(scopeID, file, ex.End)
	case *ast.TryExpr:
		r.resolveExpr(scopeID, file, ex.Operand)
	case *ast.ListLit:
		for _, el := range ex.Elems {
			r.resolveExpr(scopeID, file, el)
		}
	case *ast.MapLit:
		for _, en := range ex.Entries {
			r.resolveExpr(scopeID, file, en.Key)
			r.resolveExpr(scopeID, file, en.Value)
		}
	case *ast.RecordLit:
		for _, fi := range ex.Fields {
			r.resolveExpr(scopeID, file, fi.Value)
		}
	case *ast.InterpString:
		for _, sub := range ex.Exprs {
			r.resolveExpr(scopeID, file, sub)
		}
	case *ast.IfExpr:
		r.resolveExpr(scopeID, file, ex.Cond)
		r.resolveBlock(scopeID, file, ex.Then)
		if ex.Else != nil {
			r.resolveBlock(scopeID, file, ex.Else)
		}
	case *ast.MatchExpr:
		r.resolveExpr(scopeID, file, ex.Scrutinee)
		for _, arm := range ex.Arms {
			armScope := r.table.push(ScopeMatchArm, scopeID)
			r.declarePattern(armScope, file, arm.Pattern)
			if arm.Guard != nil {
				r.resolveExpr(armScope, file, arm.Guard)
			}
			for _, st := range arm.Body {
				r.resolveStmt(armScope, file, st)
			}
		}
	}
}

// resolveName resolves a bare identifier in non-call position. Failure is
// always a NameError here (only call-position bare identifiers route to
// the AI engine, per spec §4.1).
func (r *Resolver) resolveName(scopeID int, file string, id *ast.Identifier) *Symbol {
	if id.Name == "_" {
		return nil
	}
	if sym, ok := r.table.Lookup(scopeID, id.Name); ok {
		return sym
	}
	if syms, ok := r.project[id.Name]; ok {
		if len(syms) == 1 {
			return syms[0]
		}
		r.bag.Add(herrors.New(herrors.NAM002,
			fmt.Sprintf("%q is visible from %d files; qualify with dir.file.name", id.Name, len(syms))).
			At(herrors.Span{File: file, Line: id.Pos.Line, Column: id.Pos.Column}))
		return nil
	}
	if r.stdlib[id.Name] {
		return nil
	}
	r.bag.Add(herrors.New(herrors.NAM001, fmt.Sprintf("unresolved identifier %q", id.Name)).
		At(herrors.Span{File: file, Line: id.Pos.Line, Column: id.Pos.Column}))
	return nil
}

// resolveCall resolves a call's arguments always; its callee is only
// diagnosed as NameError when it is NOT a bare identifier (a bare
// identifier that fails normal lookup becomes an AI candidate instead).
func (r *Resolver) resolveCall(scopeID int, file string, call *ast.Call) {
	for _, a := range call.Args {
		r.resolveExpr(scopeID, file, a)
	}
	id, isBare := call.Callee.(*ast.Identifier)
	if !isBare {
		r.resolveExpr(scopeID, file, call.Callee)
		return
	}
	if sym, ok := r.table.Lookup(scopeID, id.Name); ok {
		_ = sym
		return
	}
	if syms, ok := r.project[id.Name]; ok {
		if len(syms) == 1 {
			return
		}
		r.bag.Add(herrors.New(herrors.NAM002,
			fmt.Sprintf("%q is visible from %d files; qualify with dir.file.name", id.Name, len(syms))).
			At(herrors.Span{File: file, Line: id.Pos.Line, Column: id.Pos.Column}))
		return
	}
	if r.stdlib[id.Name] {
		return
	}
	r.candidates = append(r.candidates, &Candidate{Name: id.Name, Call: call, File: file, Args: call.Args})
}

// DeclareGenerated registers a symbol the AI Intent Engine produced (a
// materialized ai-function) in this Resolver's project and per-path
// indexes. The package-level Resolve builds a fresh Resolver, so a later
// call to Resolve does not see a symbol registered here.
func (r *Resolver) DeclareGenerated(name, file string, pos ast.Pos, decl ast.Decl) {
	sym := &Symbol{Name: name, Kind: KindGenerated, Pos: pos, Visibility: VisProject, File: file, Decl: decl}
	r.project[name] = append(r.project[name], sym)
	dir, fstem := dirFile(file)
	r.byPath[dir+"."+fstem+"."+name] = sym
}
