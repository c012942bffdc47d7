package mir

import (
	"fmt"
	"sort"

	"github.com/sunholo/haira/internal/hir"
)

// builder lowers one HIR function into an SSA-form CFG. SSA naming is
// simply fresh-name-per-definition: a Let/Assign in HIR always defines
// a brand-new MIR value and records the current "live" value for that
// HIR-level name, so every MIR variable has exactly one defining site
// by construction (spec §8's SSA invariant).
type builder struct {
	fn       *Function
	fresh    int
	blockSeq int
	cur      *Block
	vars     map[string]Value // HIR name -> current SSA value
	loopExit []BlockRef        // stack of enclosing loop exit targets, for Break
	carried  [][]string        // per enclosing loop, the names each Break passes to the exit block
}

// Build lowers a desugared HIR function into MIR. Desugaring must run
// first (internal/desugar) — Build rejects any surviving pre-desugar
// sugar node (Pipe, InterpString, Range, MethodCall, Match, Try) since
// those have no MIR lowering rule of their own.
func Build(fn *hir.Function) (*Function, error) {
	mf := &Function{
		Name: fn.Name, ReturnType: fn.ReturnType, Blocks: map[string]*Block{},
	}
	for _, p := range fn.Params {
		mf.Params = append(mf.Params, Param{Name: p.Name, Type: p.Type})
	}

	b := &builder{fn: mf, vars: map[string]Value{}}
	entry := b.newBlock("entry")
	mf.Entry = entry.Name
	b.cur = entry
	for _, p := range fn.Params {
		b.vars[p.Name] = Value{Name: p.Name}
	}

	if err := b.lowerStmts(fn.Body); err != nil {
		return nil, err
	}
	if b.cur.Term == nil {
		b.cur.Term = &Return{}
	}
	return mf, nil
}

func (b *builder) newBlock(prefix string) *Block {
	b.blockSeq++
	name := fmt.Sprintf("%s%d", prefix, b.blockSeq)
	blk := &Block{Name: name}
	b.fn.addBlock(blk)
	return blk
}

func (b *builder) freshValue(hint string) Value {
	b.fresh++
	return Value{Name: fmt.Sprintf("%%%s.%d", hint, b.fresh)}
}

func (b *builder) emit(op Op, hint string, operator string, args []Value, konst any, callee string) Value {
	res := b.freshValue(hint)
	b.cur.Instrs = append(b.cur.Instrs, Instr{Op: op, Result: res, Operator: operator, Args: args, Const: konst, Callee: callee})
	return res
}

func (b *builder) lowerStmts(stmts []hir.Stmt) error {
	for _, s := range stmts {
		if b.cur.Term != nil {
			return nil // unreachable code past a terminator; drop it
		}
		if err := b.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) lowerStmt(s hir.Stmt) error {
	switch st := s.(type) {
	case *hir.Let:
		v, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		b.vars[st.Name] = v
		return nil
	case *hir.Assign:
		v, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		b.vars[st.Name] = v
		return nil
	case *hir.ExprStmt:
		_, err := b.lowerExpr(st.Value)
		return err
	case *hir.Return:
		if st.Value == nil {
			b.cur.Term = &Return{}
			return nil
		}
		v, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		b.cur.Term = &Return{Value: &v}
		return nil
	case *hir.Break:
		if len(b.loopExit) == 0 {
			return fmt.Errorf("internal/mir: break outside a loop")
		}
		target := b.loopExit[len(b.loopExit)-1]
		names := b.carried[len(b.carried)-1]
		target.Args = make([]Value, len(names))
		for i, name := range names {
			target.Args[i] = b.vars[name]
		}
		b.cur.Term = &Goto{Target: target}
		return nil
	case *hir.IfStmt:
		return b.lowerIfStmt(st)
	case *hir.Loop:
		return b.lowerLoop(st)
	default:
		return fmt.Errorf("internal/mir: statement %T has no MIR lowering (desugar first)", s)
	}
}

func (b *builder) lowerIfStmt(st *hir.IfStmt) error {
	cond, err := b.lowerExpr(st.Cond)
	if err != nil {
		return err
	}
	thenBlk := b.newBlock("if.then")
	afterBlk := b.newBlock("if.after")
	b.cur.Term = &If{Cond: cond, Then: BlockRef{Block: thenBlk.Name}, Else: BlockRef{Block: afterBlk.Name}}

	b.cur = thenBlk
	if err := b.lowerStmts(st.Then); err != nil {
		return err
	}
	if b.cur.Term == nil {
		b.cur.Term = &Goto{Target: BlockRef{Block: afterBlk.Name}}
	}

	b.cur = afterBlk
	return nil
}

// lowerLoop lowers a canonical post-desugar Loop (spec §4.6: "for pat
// in expr → Loop with Break") into a header block that repeats until a
// Break terminator redirects to the exit block.
//
// header has two predecessors — the preheader edge and the body's
// back-edge — so any HIR name bound before the loop and reassigned
// inside it is live across a join point and needs a block parameter
// (this IR's φ-node, spec §4.7), exactly as lowerIfExpr's merge block
// already does for if-expressions. Without it a read of that name
// inside the loop body would resolve to the pre-loop SSA value on every
// iteration instead of the previous iteration's. exit gets the same
// treatment: one block parameter per carried name, fed by every Break,
// so code after the loop reads the value current at the break.
func (b *builder) lowerLoop(l *hir.Loop) error {
	header := b.newBlock("loop.header")
	exit := b.newBlock("loop.exit")

	carried := loopCarriedNames(l.Body, b.vars)
	preArgs := make([]Value, len(carried))
	for i, name := range carried {
		preArgs[i] = b.vars[name]
	}
	b.cur.Term = &Goto{Target: BlockRef{Block: header.Name, Args: preArgs}}

	header.Params = make([]Value, len(carried))
	for i, name := range carried {
		param := b.freshValue(name)
		header.Params[i] = param
		b.vars[name] = param
	}

	b.loopExit = append(b.loopExit, BlockRef{Block: exit.Name})
	b.carried = append(b.carried, carried)
	b.cur = header
	if err := b.lowerStmts(l.Body); err != nil {
		return err
	}
	if b.cur.Term == nil {
		backArgs := make([]Value, len(carried))
		for i, name := range carried {
			backArgs[i] = b.vars[name]
		}
		b.cur.Term = &Goto{Target: BlockRef{Block: header.Name, Args: backArgs}}
	}
	b.loopExit = b.loopExit[:len(b.loopExit)-1]
	b.carried = b.carried[:len(b.carried)-1]

	exit.Params = make([]Value, len(carried))
	for i, name := range carried {
		param := b.freshValue(name)
		exit.Params[i] = param
		b.vars[name] = param
	}
	b.cur = exit
	return nil
}

// loopCarriedNames returns, in deterministic sorted order, every name
// assigned anywhere within body (recursing into nested IfStmt arms and
// Loop bodies, since a nested loop's assignment to an outer variable is
// still carried by the outer header) that was already bound in outer
// before the loop started. A name first bound by a Let inside the loop
// itself is loop-local, not loop-carried, and is excluded.
func loopCarriedNames(body []hir.Stmt, outer map[string]Value) []string {
	assigned := map[string]bool{}
	collectAssignedNames(body, assigned)

	names := make([]string, 0, len(assigned))
	for name := range assigned {
		if _, ok := outer[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func collectAssignedNames(stmts []hir.Stmt, out map[string]bool) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *hir.Assign:
			out[st.Name] = true
		case *hir.IfStmt:
			collectAssignedNames(st.Then, out)
			collectAssignedNames(st.Else, out)
		case *hir.Loop:
			collectAssignedNames(st.Body, out)
		}
	}
}

func (b *builder) lowerExpr(e hir.Expr) (Value, error) {
	switch ex := e.(type) {
	case *hir.Var:
		if v, ok := b.vars[ex.Name]; ok {
			return v, nil
		}
		return Value{}, fmt.Errorf("internal/mir: reference to undefined SSA name %q", ex.Name)
	case *hir.IntLit:
		return b.emit(OpConst, "int", "", nil, ex.Value, ""), nil
	case *hir.FloatLit:
		return b.emit(OpConst, "float", "", nil, ex.Value, ""), nil
	case *hir.BoolLit:
		return b.emit(OpConst, "bool", "", nil, ex.Value, ""), nil
	case *hir.StringLit:
		return b.emit(OpConst, "str", "", nil, ex.Value, ""), nil
	case *hir.UnitLit:
		return b.emit(OpConst, "unit", "", nil, nil, ""), nil
	case *hir.BinaryExpr:
		l, err := b.lowerExpr(ex.Left)
		if err != nil {
			return Value{}, err
		}
		r, err := b.lowerExpr(ex.Right)
		if err != nil {
			return Value{}, err
		}
		return b.emit(OpBinary, "bin", ex.Op, []Value{l, r}, nil, ""), nil
	case *hir.UnaryExpr:
		v, err := b.lowerExpr(ex.Operand)
		if err != nil {
			return Value{}, err
		}
		return b.emit(OpUnary, "un", ex.Op, []Value{v}, nil, ""), nil
	case *hir.FieldAccess:
		v, err := b.lowerExpr(ex.Recv)
		if err != nil {
			return Value{}, err
		}
		return b.emit(OpField, "field", "", []Value{v}, nil, ex.Field), nil
	case *hir.IndexExpr:
		recv, err := b.lowerExpr(ex.Recv)
		if err != nil {
			return Value{}, err
		}
		idx, err := b.lowerExpr(ex.Index)
		if err != nil {
			return Value{}, err
		}
		return b.emit(OpIndex, "idx", "", []Value{recv, idx}, nil, ""), nil
	case *hir.Call:
		args, err := b.lowerExprs(ex.Args)
		if err != nil {
			return Value{}, err
		}
		return b.emit(OpCall, "call", "", args, nil, ex.Callee), nil
	case *hir.BuiltinCall:
		args, err := b.lowerExprs(ex.Args)
		if err != nil {
			return Value{}, err
		}
		return b.emit(OpBuiltin, "blt", "", args, nil, ex.Name), nil
	case *hir.RecordLit:
		args := make([]Value, len(ex.Fields))
		for i, f := range ex.Fields {
			v, err := b.lowerExpr(f.Value)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return b.emit(OpRecord, "rec", "", args, fieldNames(ex.Fields), ex.TypeName), nil
	case *hir.ListLit:
		args, err := b.lowerExprs(ex.Elems)
		if err != nil {
			return Value{}, err
		}
		return b.emit(OpList, "list", "", args, nil, ""), nil
	case *hir.MapLit:
		args := make([]Value, 0, len(ex.Entries)*2)
		for _, me := range ex.Entries {
			k, err := b.lowerExpr(me.Key)
			if err != nil {
				return Value{}, err
			}
			v, err := b.lowerExpr(me.Value)
			if err != nil {
				return Value{}, err
			}
			args = append(args, k, v)
		}
		return b.emit(OpMap, "map", "", args, nil, ""), nil
	case *hir.IfExpr:
		return b.lowerIfExpr(ex)
	default:
		return Value{}, fmt.Errorf("internal/mir: expression %T has no MIR lowering (desugar first)", e)
	}
}

// lowerIfExpr lowers a value-producing conditional using a merge
// block with one parameter — this IR's φ-node — fed by each arm.
func (b *builder) lowerIfExpr(ex *hir.IfExpr) (Value, error) {
	cond, err := b.lowerExpr(ex.Cond)
	if err != nil {
		return Value{}, err
	}
	thenBlk := b.newBlock("expr.then")
	elseBlk := b.newBlock("expr.else")
	merge := b.newBlock("expr.merge")
	phi := b.freshValue("phi")
	merge.Params = []Value{phi}

	b.cur.Term = &If{Cond: cond, Then: BlockRef{Block: thenBlk.Name}, Else: BlockRef{Block: elseBlk.Name}}

	b.cur = thenBlk
	thenVal, err := b.lowerTailValue(ex.Then)
	if err != nil {
		return Value{}, err
	}
	if b.cur.Term == nil {
		b.cur.Term = &Goto{Target: BlockRef{Block: merge.Name, Args: []Value{thenVal}}}
	}

	b.cur = elseBlk
	elseVal, err := b.lowerTailValue(ex.Else)
	if err != nil {
		return Value{}, err
	}
	if b.cur.Term == nil {
		b.cur.Term = &Goto{Target: BlockRef{Block: merge.Name, Args: []Value{elseVal}}}
	}

	b.cur = merge
	return phi, nil
}

// lowerTailValue lowers a statement list that must produce a value:
// every statement but the last is lowered normally; the last, if an
// ExprStmt, supplies the block's value, otherwise the value is unit.
func (b *builder) lowerTailValue(stmts []hir.Stmt) (Value, error) {
	if len(stmts) == 0 {
		return b.emit(OpConst, "unit", "", nil, nil, ""), nil
	}
	for _, s := range stmts[:len(stmts)-1] {
		if b.cur.Term != nil {
			return Value{}, nil
		}
		if err := b.lowerStmt(s); err != nil {
			return Value{}, err
		}
	}
	last := stmts[len(stmts)-1]
	if es, ok := last.(*hir.ExprStmt); ok {
		return b.lowerExpr(es.Value)
	}
	if err := b.lowerStmt(last); err != nil {
		return Value{}, err
	}
	return b.emit(OpConst, "unit", "", nil, nil, ""), nil
}

func (b *builder) lowerExprs(es []hir.Expr) ([]Value, error) {
	out := make([]Value, len(es))
	for i, e := range es {
		v, err := b.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func fieldNames(fields []hir.FieldInit) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}
