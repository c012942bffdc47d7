package mir

import "fmt"

// Optimize runs the fixed, ordered optimizer pipeline spec §4.7 names
// over every function in a module: constant propagation → constant
// folding → dead-code elimination → common-subexpression elimination →
// small-function inlining (≤50 MIR statements). Every pass is
// correctness-preserving only — none reorders floating-point
// operations or otherwise changes observable semantics.
func Optimize(fns map[string]*Function) {
	for _, name := range sortedKeys(fns) {
		fn := fns[name]
		constantPropagateAndFold(fn)
		deadCodeEliminate(fn)
		commonSubexpressionEliminate(fn)
		inlineSmallCallees(fn, fns)
	}
}

func sortedKeys(fns map[string]*Function) []string {
	keys := make([]string, 0, len(fns))
	for k := range fns {
		keys = append(keys, k)
	}
	// Stable, deterministic iteration order (spec §8 resolver-style
	// determinism applies equally to the optimizer: pipeline output
	// must not depend on map iteration order).
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// constantPropagateAndFold resolves every value reference to its
// defining instruction (values are immutable once defined under SSA,
// so this is safe across the whole function, not just one block) and
// replaces any BinaryOp/UnaryOp whose operands are all OpConst with a
// single OpConst holding the computed result.
func constantPropagateAndFold(fn *Function) {
	def := map[string]*Instr{}
	for _, bname := range fn.Order {
		blk := fn.Blocks[bname]
		for i := range blk.Instrs {
			def[blk.Instrs[i].Result.Name] = &blk.Instrs[i]
		}
	}

	constOf := func(v Value) (any, bool) {
		d, ok := def[v.Name]
		if !ok || d.Op != OpConst {
			return nil, false
		}
		return d.Const, true
	}

	for _, bname := range fn.Order {
		blk := fn.Blocks[bname]
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			switch in.Op {
			case OpBinary:
				if len(in.Args) != 2 {
					continue
				}
				l, lok := constOf(in.Args[0])
				r, rok := constOf(in.Args[1])
				if !lok || !rok {
					continue
				}
				if result, ok := foldBinary(in.Operator, l, r); ok {
					in.Op, in.Const, in.Args, in.Operator = OpConst, result, nil, ""
					def[in.Result.Name] = in
				}
			case OpUnary:
				if len(in.Args) != 1 {
					continue
				}
				v, ok := constOf(in.Args[0])
				if !ok {
					continue
				}
				if result, ok := foldUnary(in.Operator, v); ok {
					in.Op, in.Const, in.Args, in.Operator = OpConst, result, nil, ""
					def[in.Result.Name] = in
				}
			}
		}
	}
}

func foldBinary(op string, l, r any) (any, bool) {
	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		switch op {
		case "+":
			return li + ri, true
		case "-":
			return li - ri, true
		case "*":
			return li * ri, true
		case "/":
			if ri == 0 {
				return nil, false
			}
			return li / ri, true
		}
	}
	lf, lFloat := asFloat(l)
	rf, rFloat := asFloat(r)
	if lFloat && rFloat {
		switch op {
		case "+":
			return lf + rf, true
		case "-":
			return lf - rf, true
		case "*":
			return lf * rf, true
		}
	}
	lb, lBool := l.(bool)
	rb, rBool := r.(bool)
	if lBool && rBool {
		switch op {
		case "&&":
			return lb && rb, true
		case "||":
			return lb || rb, true
		}
	}
	return nil, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func foldUnary(op string, v any) (any, bool) {
	switch op {
	case "-":
		if i, ok := v.(int64); ok {
			return -i, true
		}
		if f, ok := v.(float64); ok {
			return -f, true
		}
	case "!":
		if b, ok := v.(bool); ok {
			return !b, true
		}
	}
	return nil, false
}

// deadCodeEliminate drops any instruction whose result is never used
// by a terminator or by any instruction. Uses are collected in one pass
// before anything is dropped, so an instruction whose only user is
// itself dropped here is kept. OpCall and OpBuiltin are
// never removed — they may have externally visible effects (print,
// file.read) the optimizer cannot prove absent.
func deadCodeEliminate(fn *Function) {
	used := map[string]bool{}
	markValue := func(v Value) { used[v.Name] = true }
	for _, bname := range fn.Order {
		blk := fn.Blocks[bname]
		for _, in := range blk.Instrs {
			for _, a := range in.Args {
				markValue(a)
			}
		}
		switch t := blk.Term.(type) {
		case *If:
			markValue(t.Cond)
			for _, a := range t.Then.Args {
				markValue(a)
			}
			for _, a := range t.Else.Args {
				markValue(a)
			}
		case *Goto:
			for _, a := range t.Target.Args {
				markValue(a)
			}
		case *Switch:
			markValue(t.Subject)
			for _, c := range t.Cases {
				for _, a := range c.Target.Args {
					markValue(a)
				}
			}
			for _, a := range t.Default.Args {
				markValue(a)
			}
		case *Return:
			if t.Value != nil {
				markValue(*t.Value)
			}
		}
	}

	for _, bname := range fn.Order {
		blk := fn.Blocks[bname]
		kept := blk.Instrs[:0]
		for _, in := range blk.Instrs {
			if in.Op == OpCall || in.Op == OpBuiltin || used[in.Result.Name] {
				kept = append(kept, in)
			}
		}
		blk.Instrs = kept
	}
}

// commonSubexpressionEliminate merges duplicate pure instructions
// within one block: same op, operator, args, const payload, and
// callee (for OpField/OpRecord, whose Callee carries the field/type
// name) collapse to the first occurrence.
func commonSubexpressionEliminate(fn *Function) {
	for _, bname := range fn.Order {
		blk := fn.Blocks[bname]
		seen := map[string]Value{}
		replace := map[string]Value{}
		kept := blk.Instrs[:0]
		for _, in := range blk.Instrs {
			for i, a := range in.Args {
				if r, ok := replace[a.Name]; ok {
					in.Args[i] = r
				}
			}
			if in.Op == OpCall || in.Op == OpBuiltin {
				kept = append(kept, in)
				continue
			}
			key := cseKey(in)
			if existing, ok := seen[key]; ok {
				replace[in.Result.Name] = existing
				continue
			}
			seen[key] = in.Result
			kept = append(kept, in)
		}
		blk.Instrs = kept
	}
}

func cseKey(in Instr) string {
	key := fmt.Sprintf("%s|%s|%s|%v", in.Op, in.Operator, in.Callee, in.Const)
	for _, a := range in.Args {
		key += "|" + a.Name
	}
	return key
}

// smallFunctionInstrCount bounds small-function inlining (spec §4.7:
// "size threshold ≤ 50 MIR statements").
const smallFunctionInstrCount = 50

// inlineSmallCallees inlines any OpCall whose callee is a single-block
// function (entry block terminated by Return, no internal branches) at
// or under the size threshold. Multi-block callees are left as calls —
// splicing an arbitrary CFG into a call site's block correctly
// requires rewriting every predecessor edge, which is unneeded for the
// common "small pure helper" case the threshold targets.
func inlineSmallCallees(fn *Function, all map[string]*Function) {
	for _, bname := range fn.Order {
		blk := fn.Blocks[bname]
		var out []Instr
		for _, in := range blk.Instrs {
			if in.Op != OpCall {
				out = append(out, in)
				continue
			}
			callee, ok := all[in.Callee]
			if !ok || !isInlinable(callee) {
				out = append(out, in)
				continue
			}
			out = append(out, inlineBody(callee, in)...)
		}
		blk.Instrs = out
	}
}

func isInlinable(fn *Function) bool {
	if len(fn.Order) != 1 {
		return false
	}
	entry := fn.Blocks[fn.Entry]
	if entry == nil {
		return false
	}
	if _, ok := entry.Term.(*Return); !ok {
		return false
	}
	return len(entry.Instrs) <= smallFunctionInstrCount
}

// inlineBody copies callee's single block into the call site,
// renaming every SSA value to avoid collisions and substituting
// parameter references with the call's actual argument values; the
// callee's Return value becomes an OpConst-free alias bound to the
// call's original result name so downstream uses see no difference.
func inlineBody(callee *Function, call Instr) []Instr {
	rename := map[string]Value{}
	for i, p := range callee.Params {
		if i < len(call.Args) {
			rename[p.Name] = call.Args[i]
		}
	}
	entry := callee.Blocks[callee.Entry]
	out := make([]Instr, 0, len(entry.Instrs)+1)
	for _, in := range entry.Instrs {
		clone := in
		clone.Result = Value{Name: fmt.Sprintf("%%inl.%s.%s", callee.Name, in.Result.Name)}
		clone.Args = renameArgs(in.Args, rename)
		rename[in.Result.Name] = clone.Result
		out = append(out, clone)
	}
	ret := entry.Term.(*Return)
	if ret.Value != nil {
		final := ret.Value.Name
		if r, ok := rename[final]; ok {
			out = append(out, Instr{Op: OpUnary, Operator: "identity", Result: call.Result, Args: []Value{r}})
		}
	}
	return out
}

func renameArgs(args []Value, rename map[string]Value) []Value {
	out := make([]Value, len(args))
	for i, a := range args {
		if r, ok := rename[a.Name]; ok {
			out[i] = r
		} else {
			out[i] = a
		}
	}
	return out
}
