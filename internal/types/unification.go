package types

import "fmt"

// Subst is a substitution map from type-variable id to the type it
// resolves to. Composition and application mirror the teacher's
// unification.go substitution-map approach.
type Subst map[int]Type

func (s Subst) Apply(t Type) Type {
	switch x := t.(type) {
	case *Var:
		if r, ok := s[x.ID]; ok {
			if r == t {
				return r
			}
			return s.Apply(r)
		}
		return t
	case *List:
		return &List{Elem: s.Apply(x.Elem)}
	case *Map:
		return &Map{Key: s.Apply(x.Key), Value: s.Apply(x.Value)}
	case *Option:
		return &Option{Elem: s.Apply(x.Elem)}
	case *Function:
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = s.Apply(p)
		}
		return &Function{Params: params, Return: s.Apply(x.Return)}
	default:
		return t
	}
}

// compose returns a substitution equivalent to applying s2 then s1.
func compose(s1, s2 Subst) Subst {
	out := Subst{}
	for k, v := range s2 {
		out[k] = s1.Apply(v)
	}
	for k, v := range s1 {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func occurs(id int, t Type) bool {
	switch x := t.(type) {
	case *Var:
		return x.ID == id
	case *List:
		return occurs(id, x.Elem)
	case *Map:
		return occurs(id, x.Key) || occurs(id, x.Value)
	case *Option:
		return occurs(id, x.Elem)
	case *Function:
		for _, p := range x.Params {
			if occurs(id, p) {
				return true
			}
		}
		return occurs(id, x.Return)
	default:
		return false
	}
}

// UnifyError reports a unification failure with both sides for a
// TypeError{Mismatch} diagnostic at the call site.
type UnifyError struct {
	Expected, Found Type
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
}

// Unify solves `a ≡ b` against the current substitution, returning an
// extended substitution or a UnifyError. Uses the occurs check (spec
// §4.2) to reject infinite types.
func Unify(s Subst, a, b Type) (Subst, error) {
	a = s.Apply(a)
	b = s.Apply(b)

	if av, ok := a.(*Var); ok {
		if bv, ok2 := b.(*Var); ok2 && av.ID == bv.ID {
			return s, nil
		}
		if occurs(av.ID, b) {
			return nil, &UnifyError{Expected: a, Found: b}
		}
		return compose(Subst{av.ID: b}, s), nil
	}
	if bv, ok := b.(*Var); ok {
		if occurs(bv.ID, a) {
			return nil, &UnifyError{Expected: a, Found: b}
		}
		return compose(Subst{bv.ID: a}, s), nil
	}

	switch x := a.(type) {
	case *Prim:
		y, ok := b.(*Prim)
		if !ok || x.Name != y.Name {
			return nil, &UnifyError{a, b}
		}
		return s, nil
	case *List:
		y, ok := b.(*List)
		if !ok {
			return nil, &UnifyError{a, b}
		}
		return Unify(s, x.Elem, y.Elem)
	case *Map:
		y, ok := b.(*Map)
		if !ok {
			return nil, &UnifyError{a, b}
		}
		s2, err := Unify(s, x.Key, y.Key)
		if err != nil {
			return nil, err
		}
		return Unify(s2, x.Value, y.Value)
	case *Option:
		y, ok := b.(*Option)
		if !ok {
			return nil, &UnifyError{a, b}
		}
		return Unify(s, x.Elem, y.Elem)
	case *Record:
		y, ok := b.(*Record)
		if !ok || x.Name != y.Name {
			return nil, &UnifyError{a, b}
		}
		return s, nil
	case *Union:
		y, ok := b.(*Union)
		if !ok || x.Name != y.Name {
			return nil, &UnifyError{a, b}
		}
		return s, nil
	case *Function:
		y, ok := b.(*Function)
		if !ok || len(x.Params) != len(y.Params) {
			return nil, &UnifyError{a, b}
		}
		cur := s
		for i := range x.Params {
			var err error
			cur, err = Unify(cur, x.Params[i], y.Params[i])
			if err != nil {
				return nil, err
			}
		}
		return Unify(cur, x.Return, y.Return)
	case *Generic:
		y, ok := b.(*Generic)
		if !ok || x.Name != y.Name {
			return nil, &UnifyError{a, b}
		}
		return s, nil
	}
	return nil, &UnifyError{a, b}
}

// HasFieldConstraint records `HasField(T, name, T')` (spec §4.2): T is
// expected to be a Record (directly, or eventually via substitution)
// exposing `name` at type T'.
type HasFieldConstraint struct {
	Record Type
	Field  string
	Result Type
}

// Solve resolves a HasField constraint against the current substitution,
// producing an additional Unify obligation between the field's declared
// type and Result, or an UnboundField error.
func (c HasFieldConstraint) Solve(s Subst) (Subst, error) {
	rt := s.Apply(c.Record)
	rec, ok := rt.(*Record)
	if !ok {
		return nil, fmt.Errorf("CannotInfer: %s is not known to be a record", rt)
	}
	ft, ok := rec.FieldType(c.Field)
	if !ok {
		return nil, fmt.Errorf("UnboundField: %s has no field %q", rec.Name, c.Field)
	}
	return Unify(s, c.Result, ft)
}

// ImplementsConstraint records `Implements(T, Capability)` (spec §4.2):
// used by structural method dispatch to record that some function
// `T.method` (or any function taking T as its first parameter) must
// exist; the inferer resolves it against the symbol table, not here.
type ImplementsConstraint struct {
	Subject    Type
	Capability string
}
