package mir

import (
	"testing"

	"github.com/sunholo/haira/internal/hir"
)

func TestBuildStraightLineArithmetic(t *testing.T) {
	fn := &hir.Function{
		Name: "add", ReturnType: "int",
		Params: []hir.Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}},
		Body: []hir.Stmt{
			&hir.Return{Value: hir.NewBinaryExpr("int", hir.OpAdd, hir.NewVar("int", "a"), hir.NewVar("int", "b"))},
		},
	}
	mf, err := Build(fn)
	if err != nil {
		t.Fatal(err)
	}
	entry := mf.Blocks[mf.Entry]
	if len(entry.Instrs) != 1 || entry.Instrs[0].Op != OpBinary {
		t.Fatalf("expected one binary instruction, got %+v", entry.Instrs)
	}
	ret, ok := entry.Term.(*Return)
	if !ok || ret.Value == nil {
		t.Fatalf("expected a Return with a value, got %#v", entry.Term)
	}
}

func TestBuildIfExprMergesThroughBlockParam(t *testing.T) {
	fn := &hir.Function{
		Name: "choose", ReturnType: "int",
		Params: []hir.Param{{Name: "cond", Type: "bool"}},
		Body: []hir.Stmt{
			&hir.Return{Value: hir.NewIfExpr("int", hir.NewVar("bool", "cond"),
				[]hir.Stmt{&hir.ExprStmt{Value: hir.NewIntLit("int", 1)}},
				[]hir.Stmt{&hir.ExprStmt{Value: hir.NewIntLit("int", 2)}})},
		},
	}
	mf, err := Build(fn)
	if err != nil {
		t.Fatal(err)
	}
	var merge *Block
	for _, name := range mf.Order {
		if len(mf.Blocks[name].Params) == 1 {
			merge = mf.Blocks[name]
		}
	}
	if merge == nil {
		t.Fatal("expected a merge block with one block parameter (phi)")
	}
}

func TestBuildLoopWithBreak(t *testing.T) {
	fn := &hir.Function{
		Name: "loopy", ReturnType: "unit",
		Body: []hir.Stmt{
			&hir.Loop{Body: []hir.Stmt{&hir.Break{}}},
			&hir.Return{},
		},
	}
	mf, err := Build(fn)
	if err != nil {
		t.Fatal(err)
	}
	foundExit := false
	for _, name := range mf.Order {
		if g, ok := mf.Blocks[name].Term.(*Goto); ok && g.Target.Block != "" {
			foundExit = true
			_ = g
		}
	}
	if !foundExit {
		t.Fatal("expected at least one Goto terminator from the loop header/break")
	}
}

// TestBuildLoopCarriesMutatedVariableThroughHeaderPhi exercises a loop
// body that reassigns a variable bound outside the loop and then breaks
// (the `sum = sum + x` shape spec §8's SSA invariant covers): the header
// block must gain a parameter for `sum`, the `+` instruction inside the
// body must read that parameter rather than the pre-loop constant, and
// the break edge out of the header must hand the freshly computed sum
// on to the loop exit, where the Return after the loop reads it.
func TestBuildLoopCarriesMutatedVariableThroughHeaderPhi(t *testing.T) {
	fn := &hir.Function{
		Name: "sumAll", ReturnType: "int",
		Params: []hir.Param{{Name: "x", Type: "int"}},
		Body: []hir.Stmt{
			&hir.Let{Name: "sum", Value: hir.NewIntLit("int", 0)},
			&hir.Loop{Body: []hir.Stmt{
				&hir.Assign{Name: "sum", Value: hir.NewBinaryExpr("int", hir.OpAdd,
					hir.NewVar("int", "sum"), hir.NewVar("int", "x"))},
				&hir.Break{},
			}},
			&hir.Return{Value: hir.NewVar("int", "sum")},
		},
	}
	mf, err := Build(fn)
	if err != nil {
		t.Fatal(err)
	}

	var header *Block
	for _, name := range mf.Order {
		if name == mf.Entry {
			continue
		}
		if blk := mf.Blocks[name]; len(blk.Params) == 1 {
			header = blk
			break
		}
	}
	if header == nil {
		t.Fatal("expected the loop header to carry exactly one block parameter for `sum`")
	}

	if len(header.Instrs) != 1 || header.Instrs[0].Op != OpBinary {
		t.Fatalf("expected the header to compute sum+x once, got %+v", header.Instrs)
	}
	addArgs := header.Instrs[0].Args
	if len(addArgs) != 2 || addArgs[0] != header.Params[0] {
		t.Fatalf("expected sum+x's left operand to be the header's phi param, got args %+v, param %+v",
			addArgs, header.Params[0])
	}

	back, ok := header.Term.(*Goto)
	if !ok {
		t.Fatalf("expected the header to close with the break's Goto into the loop exit, got %#v", header.Term)
	}
	if len(back.Target.Args) != 1 || back.Target.Args[0] != header.Instrs[0].Result {
		t.Fatalf("expected the break edge to carry the freshly computed sum, got %+v", back.Target.Args)
	}

	entry := mf.Blocks[mf.Entry]
	entryGoto, ok := entry.Term.(*Goto)
	if !ok {
		t.Fatalf("expected the entry block to close with a Goto into the header, got %#v", entry.Term)
	}
	if len(entryGoto.Target.Args) != 1 {
		t.Fatalf("expected the preheader edge to seed sum's initial value, got %+v", entryGoto.Target.Args)
	}
}

func TestOptimizeConstantFoldsAndEliminatesDeadCode(t *testing.T) {
	fn := &hir.Function{
		Name: "answer", ReturnType: "int",
		Body: []hir.Stmt{
			&hir.Let{Name: "unused", Value: hir.NewIntLit("int", 99)},
			&hir.Return{Value: hir.NewBinaryExpr("int", hir.OpAdd, hir.NewIntLit("int", 40), hir.NewIntLit("int", 2))},
		},
	}
	mf, err := Build(fn)
	if err != nil {
		t.Fatal(err)
	}
	fns := map[string]*Function{"answer": mf}
	Optimize(fns)

	entry := mf.Blocks[mf.Entry]
	ret := entry.Term.(*Return)
	var foundFoldedConst bool
	for _, in := range entry.Instrs {
		if in.Op == OpConst && in.Const == int64(42) {
			foundFoldedConst = true
			if ret.Value == nil || ret.Value.Name != in.Result.Name {
				t.Fatalf("expected Return to reference the folded constant")
			}
		}
	}
	if !foundFoldedConst {
		t.Fatalf("expected constant folding to produce 42, instrs: %+v", entry.Instrs)
	}
	if len(entry.Instrs) != 1 {
		t.Fatalf("expected dead-code elimination to drop the unused binding, got %+v", entry.Instrs)
	}
}

func TestOptimizeInlinesSmallCallee(t *testing.T) {
	callee := &hir.Function{
		Name: "inc", ReturnType: "int", Params: []hir.Param{{Name: "x", Type: "int"}},
		Body: []hir.Stmt{&hir.Return{Value: hir.NewBinaryExpr("int", hir.OpAdd, hir.NewVar("int", "x"), hir.NewIntLit("int", 1))}},
	}
	caller := &hir.Function{
		Name: "twice_inc", ReturnType: "int", Params: []hir.Param{{Name: "x", Type: "int"}},
		Body: []hir.Stmt{&hir.Return{Value: hir.NewCall("int", "inc", []hir.Expr{hir.NewVar("int", "x")})}},
	}
	mCallee, err := Build(callee)
	if err != nil {
		t.Fatal(err)
	}
	mCaller, err := Build(caller)
	if err != nil {
		t.Fatal(err)
	}
	fns := map[string]*Function{"inc": mCallee, "twice_inc": mCaller}
	Optimize(fns)

	entry := mCaller.Blocks[mCaller.Entry]
	for _, in := range entry.Instrs {
		if in.Op == OpCall {
			t.Fatalf("expected the call to inc to be inlined away, found %+v", in)
		}
	}
}
