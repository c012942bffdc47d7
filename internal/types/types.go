// Package types implements Haira's Hindley-Milner–style type system
// (component B): the Type sum from spec §3, a substitution-based
// unifier with an occurs check (records unify nominally, by name), and the
// constraint-solving inference engine described in spec §4.2. Grounded
// on the teacher's internal/types package (type sum, Env, unification
// with substitution maps).
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the closed sum from spec §3: Int, Float, Bool, String, Unit,
// None, List, Map, Option, Record, Union, Function, TypeVar, Generic.
type Type interface {
	typeNode()
	String() string
}

type Prim struct{ Name string } // Int, Float, Bool, String, Unit, None

func (*Prim) typeNode()       {}
func (p *Prim) String() string { return p.Name }

var (
	Int    = &Prim{"int"}
	Float  = &Prim{"float"}
	Bool   = &Prim{"bool"}
	String = &Prim{"string"}
	Unit   = &Prim{"unit"}
	None   = &Prim{"none"}
)

type List struct{ Elem Type }

func (*List) typeNode()        {}
func (l *List) String() string { return fmt.Sprintf("[%s]", l.Elem) }

type Map struct{ Key, Value Type }

func (*Map) typeNode() {}
func (m *Map) String() string {
	return fmt.Sprintf("{%s: %s}", m.Key, m.Value)
}

type Option struct{ Elem Type }

func (*Option) typeNode()        {}
func (o *Option) String() string { return fmt.Sprintf("%s?", o.Elem) }

// Field is one ordered (name, Type) pair of a Record or a Union variant.
type Field struct {
	Name string
	Type Type
}

// Record is a nominal type identified by Name with an ordered field
// list. Structural method dispatch (§4.2 rule 4) is the only structural
// rule the language has; otherwise records are nominal and equality is
// by Name after full substitution.
type Record struct {
	Name   string
	Fields []Field
}

func (*Record) typeNode()        {}
func (r *Record) String() string { return r.Name }

// FieldType returns the declared type of a field, used by HasField
// constraints.
func (r *Record) FieldType(name string) (Type, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Variant is one tagged alternative of a Union; its Fields give the
// variant's own record shape (spec §3: Union{variants[(name, Record)]}).
type Variant struct {
	Name   string
	Fields []Field
}

type Union struct {
	Name     string
	Variants []Variant
}

func (*Union) typeNode()        {}
func (u *Union) String() string { return u.Name }

func (u *Union) Variant(name string) (*Variant, bool) {
	for i := range u.Variants {
		if u.Variants[i].Name == name {
			return &u.Variants[i], true
		}
	}
	return nil, false
}

type Function struct {
	Params []Type
	Return Type
}

func (*Function) typeNode() {}
func (f *Function) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Return)
}

// Var is an unresolved type variable, identified by a process-global id
// allocated by a Fresh generator (one per inference run).
type Var struct{ ID int }

func (*Var) typeNode()        {}
func (v *Var) String() string { return fmt.Sprintf("t%d", v.ID) }

// Generic is a named, bounded type parameter (e.g. a method-dispatch
// bound) — distinct from Var: a Generic never gets unified away, it
// names a compile-time-checked constraint.
type Generic struct {
	Name   string
	Bounds []string
}

func (*Generic) typeNode()        {}
func (g *Generic) String() string { return g.Name }

// Fresh allocates strictly increasing fresh type variables for one
// inference run (teacher's env.go keeps an equivalent per-run counter
// rather than a global one, so two concurrent inferences never collide).
type Fresh struct{ next int }

func (f *Fresh) New() *Var {
	f.next++
	return &Var{ID: f.next}
}

// Equal reports syntactic equality after full substitution (spec §3:
// "Type equality is syntactic after full substitution; option and union
// are distinct").
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *Prim:
		y, ok := b.(*Prim)
		return ok && x.Name == y.Name
	case *List:
		y, ok := b.(*List)
		return ok && Equal(x.Elem, y.Elem)
	case *Map:
		y, ok := b.(*Map)
		return ok && Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case *Option:
		y, ok := b.(*Option)
		return ok && Equal(x.Elem, y.Elem)
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Name == y.Name
	case *Union:
		y, ok := b.(*Union)
		return ok && x.Name == y.Name
	case *Function:
		y, ok := b.(*Function)
		if !ok || len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	case *Var:
		y, ok := b.(*Var)
		return ok && x.ID == y.ID
	case *Generic:
		y, ok := b.(*Generic)
		return ok && x.Name == y.Name
	}
	return false
}

// CanonicalString renders a type as the canonical type string the AI
// context builder embeds verbatim in its JSON (spec §4.4): deterministic,
// whitespace-stable, independent of map iteration order.
func CanonicalString(t Type) string {
	switch x := t.(type) {
	case *Record:
		names := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			names[i] = f.Name + ":" + CanonicalString(f.Type)
		}
		sort.Strings(names) // field declaration order is preserved elsewhere; canonical string only needs determinism
		return fmt.Sprintf("%s{%s}", x.Name, strings.Join(names, ","))
	case *Map:
		return fmt.Sprintf("{%s:%s}", CanonicalString(x.Key), CanonicalString(x.Value))
	case *List:
		return fmt.Sprintf("[%s]", CanonicalString(x.Elem))
	case *Option:
		return CanonicalString(x.Elem) + "?"
	default:
		return t.String()
	}
}
